package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rail-ticket-reservation/internal/config"
	"github.com/iliyamo/rail-ticket-reservation/internal/database"
	"github.com/iliyamo/rail-ticket-reservation/internal/handler"
	"github.com/iliyamo/rail-ticket-reservation/internal/middleware"
	"github.com/iliyamo/rail-ticket-reservation/internal/queue"
	"github.com/iliyamo/rail-ticket-reservation/internal/repository"
	"github.com/iliyamo/rail-ticket-reservation/internal/router"
	"github.com/iliyamo/rail-ticket-reservation/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("database: %v", err)
	}

	rdb := config.NewRedisClient() // nil when Redis is unreachable
	if rdb == nil {
		log.Printf("redis unavailable; caching and rate limiting disabled")
	}

	stations := repository.NewStationRepo(db)
	journeys := repository.NewJourneyRepo(db)
	capacities := repository.NewCapacityRepo(db)
	orders := repository.NewOrderRepo(db)
	tickets := repository.NewTicketRepo(db)
	users := repository.NewUserRepo(db)
	admins := repository.NewAdminRepo(db)
	tokens := repository.NewTokenRepo(db)

	routeSvc := service.NewRouteService(stations, journeys)
	resvSvc := service.NewReservationService(users, capacities, journeys, stations, orders, tickets, queue.PublishOrderEvent)
	registry := service.NewRegistryCache(stations, journeys, rdb, cfg.RegistryTTL)
	maintSvc := service.NewMaintenanceService(stations, journeys, capacities, registry)

	sweeper := service.NewSweeper(orders, cfg.ResidenceTime, cfg.SweepInterval, queue.PublishOrderEvent)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)

	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, admins, tokens), cfg.JWTSecret)
	router.RegisterPublic(e,
		handler.NewSearchHandler(routeSvc, registry, stations, journeys, resvSvc),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)
	router.RegisterUser(e, handler.NewReservationHandler(resvSvc), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(maintSvc), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
