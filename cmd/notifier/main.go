package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-elite-store.git/internal/config"
	kafkax "github.com/ariefcatur/go-elite-store.git/internal/kafka"
	"github.com/ariefcatur/go-elite-store.git/internal/notify"
	"github.com/ariefcatur/go-elite-store.git/internal/orders"
	"github.com/ariefcatur/go-elite-store.git/internal/postgres"
	"github.com/ariefcatur/go-elite-store.git/internal/redisx"
	"github.com/ariefcatur/go-elite-store.git/internal/users"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PGMaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notify.Service{
		Orders: &orders.Repo{DB: db},
		Users:  &users.Repo{DB: db},
		Mailer: notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom),
		Redis:  rdb,
		Log:    log,
	}

	group := getenv("NOTIFIER_GROUP", "notifier-svc")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderCreated, workers, log)

	go func() {
		log.Infof("notifier consumer started: group=%s topic=%s workers=%d", group, orders.TopicOrderCreated, workers)
		if err := cons.Start(ctx, svc.HandleOrderCreated); err != nil {
			log.Errorf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
