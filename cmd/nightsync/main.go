// nightsync runs once a day at 00:00 and upserts the stays checking in
// tomorrow for every known hotel.
package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	mewsapi "pms_bridge/internal/adapters/mews"
	"pms_bridge/internal/adapters/observability"
	redisad "pms_bridge/internal/adapters/redis"
	"pms_bridge/internal/app"
	"pms_bridge/internal/domain"
	"pms_bridge/internal/shared"
	mysqlrepo "pms_bridge/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, "nightsync")

	log.Info().
		Str("base", cfg.MewsBase).
		Int("workers", cfg.SyncWorkers).
		Msg("nightsync starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := mewsapi.New(cfg.MewsBase, cfg.MewsKey, cfg.MewsRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Mews client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	deps := app.Deps{API: client, Repo: repo, Cache: cache, BreakfastTTL: cfg.BreakfastTTL}

	hotels, err := repo.ListHotels(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list hotels failed")
	}

	// Hotels sync concurrently under the semaphore; events within one hotel
	// stay sequential.
	sem := semaphore.NewWeighted(int64(cfg.SyncWorkers))
	var wg sync.WaitGroup

	for _, h := range hotels {
		adapter, ok := app.Get(h.PMS, deps)
		if !ok {
			log.Warn().Int64("hotel_id", h.ID).Str("pms", h.PMS).Msg("no adapter for hotel, skipping")
			continue
		}

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(hotel domain.Hotel, ad app.Adapter) {
			defer wg.Done()
			defer sem.Release(1)

			res, err := ad.UpdateTomorrowsStays(ctx, hotel)
			if err != nil {
				log.Warn().Int64("hotel_id", hotel.ID).Err(err).Msg("nightly sync failed")
				return
			}
			log.Info().
				Int64("hotel_id", hotel.ID).
				Int("processed", res.Processed).
				Int("failed", res.Failed).
				Msg("nightly sync ok")
		}(h, adapter)
	}

	wg.Wait()
	log.Info().Msg("nightsync completed")
}
