package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"clicks-promotions/internal/config"
	pg "clicks-promotions/internal/infra/db/postgres"
	"clicks-promotions/internal/infra/logging"
	"clicks-promotions/internal/infra/qr"
	"clicks-promotions/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	withPromos := flag.Bool("promos", false, "also create one promotion per seeded venue")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pg.RunMigrations(cfg.Database.URL, logger); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	venueRepo := pg.NewVenueRepo(pool)
	venueUC := usecase.NewVenueUseCase(venueRepo, logger)

	// If venues already exist, do nothing
	venues, err := venueUC.List(ctx)
	if err != nil {
		log.Fatalf("list venues: %v", err)
	}
	if len(venues) > 0 {
		fmt.Printf("%d venues already present. No changes.\n", len(venues))
		for _, v := range venues {
			fmt.Printf("  - %s (id=%d, zone=%s)\n", v.Name, v.ID, v.Zone)
		}
		return
	}

	seed := []struct {
		Name, Zone, Category string
	}{
		{"Blue Bar", "Centro", "Bar"},
		{"Club Eclipse", "Zona Rosa", "Club"},
		{"La Terraza", "Centro", "Lounge"},
	}

	promoUC := usecase.NewPromotionUseCase(
		venueRepo, pg.NewPromotionRepo(pool), pg.NewClaimRepo(pool), pg.NewTxManager(pool),
		qr.NewPNGRenderer(256),
		usecase.PromotionSettings{PublicOrigin: cfg.Promotions.PublicOrigin, Retry: usecase.DefaultRetryPolicy()},
		logger,
	)

	for _, s := range seed {
		v, err := venueUC.Create(ctx, s.Name, s.Zone, s.Category, "")
		if err != nil {
			log.Fatalf("create venue %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%d, zone=%s)\n", v.Name, v.ID, v.Zone)

		if !*withPromos {
			continue
		}
		p, err := promoUC.CreateOrReplace(ctx, usecase.CreatePromotionInput{
			VenueID:     v.ID,
			Title:       "2x1 " + s.Category,
			Description: "Two drinks for the price of one before midnight",
		})
		if err != nil {
			log.Fatalf("create promotion for %q: %v", s.Name, err)
		}
		fmt.Printf("  promotion: %s (code=%s)\n", p.Title, p.Code)
	}

	fmt.Println("✅ Seeding complete.")
}
