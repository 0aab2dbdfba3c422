package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/prabhuzz00/ColorWavePrediction/internal/broadcast"
	"github.com/prabhuzz00/ColorWavePrediction/internal/config"
	"github.com/prabhuzz00/ColorWavePrediction/internal/data"
	"github.com/prabhuzz00/ColorWavePrediction/internal/engine"
	"github.com/prabhuzz00/ColorWavePrediction/internal/handler"
	"github.com/prabhuzz00/ColorWavePrediction/internal/repo"
	"github.com/prabhuzz00/ColorWavePrediction/internal/route"
	"github.com/prabhuzz00/ColorWavePrediction/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("load config")
	}

	log := newLogger(cfg.Log)
	zlog.Logger = log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := data.NewPostgres()
	if err != nil {
		log.Fatal().Err(err).Msg("PostgreSQL connection failed")
	}
	defer db.Close()

	rdb, err := data.NewRedis()
	if err != nil {
		log.Warn().Err(err).Msg("Redis connection failed, proceeding without cache")
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var cache *service.CacheService
	if rdb != nil {
		cache = service.NewCacheService(rdb.Client)
	}

	users := repo.NewUserRepo(db.DB)
	bets := repo.NewBetRepo(db.DB)
	txs := repo.NewTransactionRepo(db.DB)
	results := repo.NewResultRepo(db.DB)
	funding := repo.NewFundingRepo(db.DB)

	hub := broadcast.NewHub(log)
	go hub.Run(ctx)
	if cache != nil {
		go invalidateOnResult(ctx, hub, cache, log)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ledger := engine.NewSQLLedger(db.DB)
	book := engine.NewBetBook(ledger, bets)
	resolver := engine.NewResolver(rng, cfg.WinMultiplier(), cfg.DojiMultiplier())
	settler := engine.NewSettler(bets, ledger, log)

	clock := engine.NewRoundClock(engine.Config{
		PeriodSeconds:      cfg.Game.PeriodSeconds,
		BettingCloseOffset: cfg.Game.BettingCloseOffset,
		OverrideCutoff:     cfg.Game.OverrideCutoff,
	}, book, resolver, settler, results, hub, rng, log)
	clock.Start(ctx)
	go clock.Run(ctx)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetTrustedProxies(nil)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Upgrade", "Connection"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))

	h := handler.NewHandler(clock, book, ledger, bets, txs, results, funding, cache, hub, log)
	route.Register(r, h, users)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Int("period_seconds", cfg.Game.PeriodSeconds).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

// invalidateOnResult drops the cached result and chart lists as soon as a
// round resolves, so history endpoints never serve a stale round for a
// full TTL.
func invalidateOnResult(ctx context.Context, hub *broadcast.Hub, cache *service.CacheService, log zerolog.Logger) {
	sub := hub.Subscribe(16)
	defer hub.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			if evt.Type != broadcast.EventGameResult {
				continue
			}
			if err := cache.InvalidateRound(ctx); err != nil {
				log.Debug().Err(err).Msg("round cache invalidation failed")
			}
		}
	}
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out zerolog.Logger
	if cfg.Format == "json" {
		out = zerolog.New(os.Stdout)
	} else {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return out.Level(level).With().Timestamp().Logger()
}
