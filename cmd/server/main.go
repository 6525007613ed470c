package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friends/internal/auth"
	"github.com/jason-s-yu/friends/internal/cache"
	"github.com/jason-s-yu/friends/internal/config"
	"github.com/jason-s-yu/friends/internal/database"
	"github.com/jason-s-yu/friends/internal/database/memory"
	"github.com/jason-s-yu/friends/internal/friends"
	"github.com/jason-s-yu/friends/internal/handlers"
	"github.com/jason-s-yu/friends/internal/mail"
	"github.com/jason-s-yu/friends/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	logger := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	store, notices, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions, err := auth.NewSessions(cfg.TokenExpireTime)
	if err != nil {
		return err
	}

	opts := []friends.Option{
		friends.WithLogger(logger),
		friends.WithSite(cfg.Site),
		friends.WithConfirmationSecret(cfg.Invite.ConfirmationSecret),
	}
	if cfg.Invite.ConfirmationSecret == "" {
		logger.Warn("CONFIRMATION_SECRET is empty, join invitation keys are unkeyed")
	}

	if cfg.Mail.Enabled() {
		smtp, err := mail.NewSMTP(cfg.Mail)
		if err != nil {
			return err
		}
		opts = append(opts, friends.WithMailer(smtp, cfg.Mail.From))
	} else {
		logger.Info("SMTP_HOST not set, join invitation mail is dropped")
	}

	var broadcaster *notify.Broadcaster
	if cfg.Redis.NotificationsEnabled {
		rdb, err := cache.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts,
			friends.WithNotifier(notify.NewQueue(rdb, cfg.Redis.NoticeQueue)),
			friends.WithLocker(cache.NewPairLock(rdb, cfg.Redis.PairLockTTL, logger)),
		)
		broadcaster = notify.NewBroadcaster(rdb, cfg.Redis.NoticeChannelPrefix)
		logger.WithFields(logrus.Fields{"redis": cfg.Redis.Addr, "queue": cfg.Redis.NoticeQueue}).Info("notices enabled")
	}

	srv := &handlers.Server{
		Friends:     friends.New(store, opts...),
		Store:       store,
		Notices:     notices,
		Sessions:    sessions,
		Broadcaster: broadcaster,
		HookSecret:  cfg.HookSecret,
		Logger:      logger,
	}

	// no write timeout: /notices/ws holds its connection open
	server := &http.Server{
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	l, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return err
	}
	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("terminating")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config) (database.Store, database.NoticeStore, func(), error) {
	if cfg.StoreDriver == "memory" {
		s := memory.New()
		return s, s, func() {}, nil
	}
	pg, err := database.ConnectDB(ctx, cfg.DB)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.DB.Migrate {
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, nil, err
		}
	}
	return pg, pg, pg.Close, nil
}
