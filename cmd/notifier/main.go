// Command notifier drains the notice queue into PostgreSQL, publishes each
// notice to live subscribers and expires stale join invitations.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/jason-s-yu/friends/internal/cache"
	"github.com/jason-s-yu/friends/internal/config"
	"github.com/jason-s-yu/friends/internal/database"
	"github.com/jason-s-yu/friends/internal/friends"
	"github.com/jason-s-yu/friends/internal/notifier"
	"github.com/jason-s-yu/friends/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	logger := config.NewLogger(cfg)
	if cfg.StoreDriver != "postgres" {
		logger.Fatal("the notifier needs STORE_DRIVER=postgres to share storage with the server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := database.ConnectDB(ctx, cfg.DB)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer pg.Close()

	rdb, err := cache.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer rdb.Close()

	svc := friends.New(pg, friends.WithLogger(logger))
	worker := notifier.New(
		notify.NewQueue(rdb, cfg.Redis.NoticeQueue),
		pg,
		notify.NewBroadcaster(rdb, cfg.Redis.NoticeChannelPrefix),
		notify.NewRenderer(language.English),
		svc,
		notifier.Config{
			ExpireInterval:    cfg.Invite.ExpireInterval,
			JoinInvitationTTL: cfg.Invite.JoinInvitationTTL,
		},
		logger,
	)
	worker.Run(ctx)
}
