package main

import (
	"givehub/internal/cache"
	"givehub/internal/config"
	"givehub/internal/db"
	"givehub/internal/ledger"
	"givehub/internal/notify"
	"givehub/internal/queue"
	"givehub/internal/transfer"
	"givehub/internal/worker"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// The worker binary consumes the donation and notification queues. Multiple
// instances may run concurrently; correctness relies on the ledger's atomic
// unit, not on in-process locking.
func main() {
	cfg := config.LoadConfig()
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	gdb, err := db.Open(db.DSN(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	store := ledger.New(gdb)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	cch := cache.New(redisClient, cfg.CacheTTL)

	enqueuer := queue.NewClient(redisOpt, cfg.QueueMaxRetry)
	defer enqueuer.Close()

	engine := transfer.NewEngine(store, enqueuer, cfg)
	mailer := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)

	mux := worker.NewMux(
		worker.NewDonationHandler(store, engine, cch),
		worker.NewNotificationHandler(mailer),
	)

	srv := queue.NewServer(redisOpt, cfg)
	logrus.Infof("Worker running with concurrency %d", cfg.QueueConcurrency)
	if err := srv.Run(mux); err != nil {
		logrus.Fatalf("worker failed: %v", err)
	}
}
