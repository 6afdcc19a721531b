package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-storefront.git/internal/cart"
	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/checkout"
	"github.com/ariefcatur/go-storefront.git/internal/config"
	"github.com/ariefcatur/go-storefront.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-storefront.git/internal/orders"
	"github.com/ariefcatur/go-storefront.git/internal/payments"
	"github.com/ariefcatur/go-storefront.git/internal/postgres"
	"github.com/ariefcatur/go-storefront.git/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	prodNew := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	prodNew.Start(ctx)
	prodFin := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderFinalized, 1024)
	prodFin.Start(ctx)

	// Stores, gateway, orchestrator
	catalogRepo := &catalog.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}
	carts := &cart.Store{Redis: rdb}
	gateway := payments.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayBaseURL)
	svc := &checkout.Service{
		Catalog: catalogRepo,
		Orders:  orderRepo,
		Carts:   carts,
		Gateway: gateway,
	}

	// Router & handlers
	router := httpx.NewRouter()
	(&httpx.CartHandler{Catalog: catalogRepo, Carts: carts}).Register(router)
	(&httpx.CheckoutHandler{
		Checkout:     svc,
		ProducerNew:  prodNew,
		ProducerFin:  prodFin,
		Service:      cfg.ServiceName,
		PickupPoints: cfg.PickupPoints,
	}).Register(router)
	(&httpx.CatalogHandler{Catalog: catalogRepo, AdminToken: cfg.AdminToken}).Register(router)
	(&httpx.OrdersHandler{Orders: orderRepo, Redis: rdb, AdminToken: cfg.AdminToken}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prodNew.Close()
	prodFin.Close()
	cancel()
	prodNew.WaitClosed()
	prodFin.WaitClosed()
}
