// Package notifier drains the notice queue into storage and live
// subscribers, and periodically expires stale join invitations.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friends/internal/database"
	"github.com/jason-s-yu/friends/internal/models"
	"github.com/jason-s-yu/friends/internal/notify"
)

// Expirer is the part of the friendship service the worker drives.
type Expirer interface {
	ExpireJoinInvitations(ctx context.Context, olderThan time.Duration) (int64, error)
}

type Config struct {
	// PopTimeout bounds each blocking pop so cancellation is noticed.
	PopTimeout time.Duration
	// ExpireInterval is how often join invitations are checked; zero disables.
	ExpireInterval    time.Duration
	JoinInvitationTTL time.Duration
}

// Service is the notifier worker.
type Service struct {
	queue       *notify.Queue
	notices     database.NoticeStore
	broadcaster *notify.Broadcaster
	renderer    *notify.Renderer
	expirer     Expirer
	cfg         Config
	log         logrus.FieldLogger
}

// New builds a worker. broadcaster and expirer may be nil.
func New(
	queue *notify.Queue,
	notices database.NoticeStore,
	broadcaster *notify.Broadcaster,
	renderer *notify.Renderer,
	expirer Expirer,
	cfg Config,
	log logrus.FieldLogger,
) *Service {
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 3 * time.Second
	}
	return &Service{
		queue:       queue,
		notices:     notices,
		broadcaster: broadcaster,
		renderer:    renderer,
		expirer:     expirer,
		cfg:         cfg,
		log:         log,
	}
}

// Run starts the queue loop and the expiry loop and blocks until ctx ends.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.readQueueLoop(ctx)
	}()
	if s.expirer != nil && s.cfg.ExpireInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.expireLoop(ctx)
		}()
	}

	s.log.Info("notifier started")
	wg.Wait()
	s.log.Info("notifier stopped")
}

func (s *Service) readQueueLoop(ctx context.Context) {
	for ctx.Err() == nil {
		if _, err := s.ProcessOne(ctx); err != nil && ctx.Err() == nil {
			s.log.WithError(err).Error("failed to process notice")
			// back off so a broken Redis does not spin the loop
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// ProcessOne waits for one envelope and delivers it. It reports whether an
// envelope was handled.
func (s *Service) ProcessOne(ctx context.Context) (bool, error) {
	env, err := s.queue.Pop(ctx, s.cfg.PopTimeout)
	if err != nil {
		return false, err
	}
	if env == nil {
		return false, nil
	}
	if _, err := s.Deliver(ctx, *env); err != nil {
		return true, err
	}
	return true, nil
}

// Deliver renders env into a Notice, stores it, then publishes it to live
// subscribers. A failed publish is logged only; the notice is already stored.
func (s *Service) Deliver(ctx context.Context, env notify.Envelope) (*models.Notice, error) {
	title, body := s.renderer.Render(env.NoticeType, env.Data)
	payload, err := json.Marshal(env.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notice data: %w", err)
	}
	n := &models.Notice{
		RecipientID: env.RecipientID,
		NoticeType:  env.NoticeType,
		Title:       title,
		Body:        body,
		Payload:     payload,
	}
	if err := s.notices.InsertNotice(ctx, n); err != nil {
		return nil, fmt.Errorf("insert notice: %w", err)
	}

	if s.broadcaster != nil {
		if err := s.broadcaster.Publish(ctx, *n); err != nil {
			s.log.WithFields(logrus.Fields{
				"notice_id":    n.ID,
				"recipient_id": n.RecipientID,
			}).WithError(err).Warn("failed to publish notice")
		}
	}
	s.log.WithFields(logrus.Fields{
		"notice_type":  n.NoticeType,
		"recipient_id": n.RecipientID,
	}).Debug("notice delivered")
	return n, nil
}

func (s *Service) expireLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ExpireInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.expirer.ExpireJoinInvitations(ctx, s.cfg.JoinInvitationTTL); err != nil && ctx.Err() == nil {
				s.log.WithError(err).Error("failed to expire join invitations")
			}
		}
	}
}
