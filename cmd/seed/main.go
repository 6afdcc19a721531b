package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/config"
	"github.com/ariefcatur/go-storefront.git/internal/postgres"
)

var sample = []catalog.Product{
	{SKU: "FIRE-001", Name: "Sparkler 12 inch (pack of 10)", Description: "Bright sparklers for celebrations.", Price: 40.0, Stock: 100},
	{SKU: "FIRE-002", Name: "Ground Spinner (pack of 5)", Description: "Spinning ground firework effect.", Price: 60.0, Stock: 50},
	{SKU: "FIRE-003", Name: "Aerial Multi-shot 20", Description: "20 shots aerial battery with colorful bursts.", Price: 450.0, Stock: 20},
	{SKU: "FIRE-004", Name: "Flower Pot", Description: "Fountain style flower effect.", Price: 120.0, Stock: 30},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	repo := &catalog.Repo{DB: db}
	for _, p := range sample {
		var exists bool
		err := db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE sku=$1)`, p.SKU).Scan(&exists)
		if err != nil {
			log.Fatalf("check sku %s: %v", p.SKU, err)
		}
		if exists {
			continue
		}
		if _, err := repo.Create(ctx, p); err != nil {
			log.Fatalf("seed %s: %v", p.SKU, err)
		}
	}
	log.Println("Seeded database.")
}
