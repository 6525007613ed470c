package friends

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-vcard"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friends/internal/database"
	"github.com/jason-s-yu/friends/internal/models"
)

// AddContact stores email in ownerID's address book. An existing contact
// for the same address is returned unchanged with created=false.
func (s *Service) AddContact(ctx context.Context, ownerID uuid.UUID, email, name string) (contact *models.Contact, created bool, err error) {
	email, err = NormalizeEmail(email)
	if err != nil {
		return nil, false, err
	}
	err = s.store.WithTx(ctx, func(tx database.Tx) error {
		var err error
		contact, created, err = tx.GetOrCreateContact(ctx, ownerID, email, strings.TrimSpace(name))
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("add contact: %w", err)
	}
	return contact, created, nil
}

func (s *Service) Contacts(ctx context.Context, ownerID uuid.UUID) ([]models.Contact, error) {
	var out []models.Contact
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		var err error
		out, err = tx.ListContacts(ctx, ownerID)
		return err
	})
	return out, err
}

// ImportVCards reads a stream of vCards into ownerID's contacts. Cards
// without both a formatted name and an email are counted but skipped, as are
// addresses already in the address book. It returns how many contacts were
// created and how many cards were read.
func (s *Service) ImportVCards(ctx context.Context, ownerID uuid.UUID, r io.Reader) (imported, total int, err error) {
	type entry struct{ name, email string }
	var entries []entry

	dec := vcard.NewDecoder(r)
	for {
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, total, fmt.Errorf("decode vcard %d: %w", total+1, err)
		}
		total++

		name := strings.TrimSpace(card.PreferredValue(vcard.FieldFormattedName))
		email, err := NormalizeEmail(card.PreferredValue(vcard.FieldEmail))
		if name == "" || err != nil {
			continue
		}
		entries = append(entries, entry{name: name, email: email})
	}

	err = s.store.WithTx(ctx, func(tx database.Tx) error {
		imported = 0
		for _, e := range entries {
			_, created, err := tx.GetOrCreateContact(ctx, ownerID, e.email, e.name)
			if err != nil {
				return fmt.Errorf("import %s: %w", e.email, err)
			}
			if created {
				imported++
			}
		}
		return nil
	})
	if err != nil {
		return 0, total, err
	}
	s.log.WithFields(logrus.Fields{
		"owner_id": ownerID,
		"imported": imported,
		"total":    total,
	}).Info("vcards imported")
	return imported, total, nil
}
