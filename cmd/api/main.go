package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-elite-store.git/internal/banners"
	"github.com/ariefcatur/go-elite-store.git/internal/catalog"
	"github.com/ariefcatur/go-elite-store.git/internal/config"
	"github.com/ariefcatur/go-elite-store.git/internal/httpx"
	"github.com/ariefcatur/go-elite-store.git/internal/inventory"
	kafkax "github.com/ariefcatur/go-elite-store.git/internal/kafka"
	"github.com/ariefcatur/go-elite-store.git/internal/notify"
	"github.com/ariefcatur/go-elite-store.git/internal/orders"
	"github.com/ariefcatur/go-elite-store.git/internal/postgres"
	"github.com/ariefcatur/go-elite-store.git/internal/redisx"
	"github.com/ariefcatur/go-elite-store.git/internal/users"
)

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

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PGMaxConns)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, log)
	pCreated.Start(ctx)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024, log)
	pCancelled.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatus, 1024, log)
	pStatus.Start(ctx)

	// Repos & services
	catalogRepo := &catalog.Repo{DB: db}
	userRepo := &users.Repo{DB: db}
	orderSvc := &orders.Service{
		Orders:   &orders.Repo{DB: db},
		Products: catalogRepo,
		Ledger:   &inventory.PGLedger{DB: db},
		Log:      log,
	}
	mailer := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	userSvc := &users.Service{
		Users:     userRepo,
		Addresses: &users.AddressRepo{DB: db},
		OTP:       mailer,
		Log:       log,
	}

	// Router
	router := httpx.NewRouter()
	secret := []byte(cfg.JWTSecret)

	(&httpx.UsersHandler{
		Service:   userSvc,
		JWTSecret: secret,
		JWTTTL:    cfg.JWTTTL,
		Log:       log,
	}).Register(router)

	(&httpx.ProductsHandler{Repo: catalogRepo, Log: log}).Register(router, secret)
	(&httpx.BannersHandler{Repo: &banners.Repo{DB: db}}).Register(router, secret)

	(&httpx.OrdersHandler{
		Service:           orderSvc,
		Users:             userRepo,
		ProducerCreated:   pCreated,
		ProducerCancelled: pCancelled,
		ProducerStatus:    pStatus,
		Redis:             rdb,
		ServiceName:       cfg.ServiceName,
		Log:               log,
	}).Register(router, secret)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Infof("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	for _, p := range []*kafkax.Producer{pCreated, pCancelled, pStatus} {
		p.Close()
	}
	cancel()
	for _, p := range []*kafkax.Producer{pCreated, pCancelled, pStatus} {
		p.WaitClosed()
	}
}
