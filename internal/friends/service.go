// Package friends implements the friendship graph: friendships between users,
// friendship invitations, join invitations to people without an account, and
// the notices each transition produces.
package friends

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friends/internal/config"
	"github.com/jason-s-yu/friends/internal/database"
	"github.com/jason-s-yu/friends/internal/mail"
	"github.com/jason-s-yu/friends/internal/notify"
)

// Service runs every friendship operation inside one storage transaction and
// dispatches notices and mail only after that transaction commits.
type Service struct {
	store    database.Store
	notifier notify.Sender
	mailer   mail.Sender
	locker   Locker
	log      logrus.FieldLogger
	now      func() time.Time

	site     config.SiteConfig
	mailFrom string
	secret   []byte
}

type Option func(*Service)

// WithNotifier sets the notice sink. The default drops every notice.
func WithNotifier(n notify.Sender) Option {
	return func(s *Service) { s.notifier = n }
}

// WithMailer sets the mail sink. The default drops every message.
func WithMailer(m mail.Sender, from string) Option {
	return func(s *Service) {
		s.mailer = m
		s.mailFrom = from
	}
}

func WithLocker(l Locker) Option {
	return func(s *Service) { s.locker = l }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSite sets the values used to build join invitation mail.
func WithSite(site config.SiteConfig) Option {
	return func(s *Service) { s.site = site }
}

// WithConfirmationSecret keys the join invitation confirmation hash.
func WithConfirmationSecret(secret string) Option {
	return func(s *Service) { s.secret = hashSecret(secret) }
}

func New(store database.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notify.Nop{},
		mailer:   mail.Nop{},
		locker:   nopLocker{},
		log:      logrus.StandardLogger(),
		now:      time.Now,
		site:     config.SiteConfig{Name: "Friends", URL: "http://localhost:8080"},
		mailFrom: "noreply@localhost",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// notice is one Send call queued until the transaction commits.
type notice struct {
	recipients []uuid.UUID
	noticeType string
	data       map[string]string
}

func (s *Service) dispatch(ctx context.Context, notices []notice) {
	for _, n := range notices {
		if len(n.recipients) == 0 {
			continue
		}
		if err := s.notifier.Send(ctx, n.recipients, n.noticeType, n.data); err != nil {
			s.log.WithFields(logrus.Fields{
				"notice_type": n.noticeType,
				"recipients":  len(n.recipients),
			}).WithError(err).Warn("failed to send notice")
		}
	}
}

// withPair holds the pair lock for the duration of fn.
func (s *Service) withPair(ctx context.Context, a, b uuid.UUID, fn func() error) error {
	unlock, err := s.locker.LockPair(ctx, a, b)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

// usernames returns display names for the from/to keys of notice data.
func usernames(ctx context.Context, tx database.Tx, fromID, toID uuid.UUID) (map[string]string, error) {
	from, err := tx.GetUserByID(ctx, fromID)
	if err != nil {
		return nil, notFound(err, "from user")
	}
	to, err := tx.GetUserByID(ctx, toID)
	if err != nil {
		return nil, notFound(err, "to user")
	}
	return map[string]string{
		"from_user_id":  from.ID.String(),
		"from_username": from.Username,
		"to_user_id":    to.ID.String(),
		"to_username":   to.Username,
	}, nil
}
