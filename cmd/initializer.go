package main

import (
	"database/sql"
	"log"

	"tradepost/internal/config"
	"tradepost/internal/events"
	"tradepost/internal/handlers"
	"tradepost/internal/repositories"
	"tradepost/internal/services"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger
	db       *sql.DB

	eventBus *events.Bus

	ledgerService   *services.LedgerService
	rechargeService *services.RechargeService
	listingService  *services.ListingService
	dealService     *services.DealService
	searchService   *services.SearchService

	listingHandler *handlers.ListingHandler
	dealHandler    *handlers.DealHandler
	pointsHandler  *handlers.PointsHandler
	searchHandler  *handlers.SearchHandler
}

// initializeApp wires the whole dependency graph once at startup. Stores are
// chosen here, never by environment sniffing inside constructors: the redis
// search history store falls back to the in-memory one only when no redis
// address is configured.
func initializeApp(cfg config.Config, db *sql.DB, errorLog, infoLog *log.Logger) *application {
	bus := events.NewBus()
	bus.SubscribeAll(func(event string, payload events.Payload) {
		infoLog.Printf("event %s: %v", event, payload)
	})

	// Repositories
	ledgerRepo := repositories.LedgerRepository{DB: db}
	listingRepo := repositories.ListingRepository{DB: db}
	contactRepo := repositories.ContactViewRepository{DB: db}
	statRepo := repositories.DealStatRepository{DB: db}
	rechargeRepo := repositories.RechargeRepository{DB: db}
	userRepo := repositories.UserRepository{DB: db}

	var historyRepo services.SearchHistoryRepository
	if cfg.Redis.Addr != "" {
		client, err := repositories.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			errorLog.Fatal(err)
		}
		historyRepo = &repositories.RedisSearchHistoryRepository{Client: client}
	} else {
		infoLog.Println("redis not configured, keeping search history in memory")
		historyRepo = repositories.NewMemorySearchHistoryRepository()
	}

	aiClient := services.NewAIGatewayClient(nil, cfg.AI.BaseURL, cfg.AI.APIKey)

	// Services
	ledgerService := &services.LedgerService{LedgerRepo: &ledgerRepo}
	rechargeService := &services.RechargeService{RechargeRepo: &rechargeRepo, Ledger: ledgerService, Events: bus, ErrorLog: errorLog}
	listingService := &services.ListingService{
		ListingRepo: &listingRepo,
		Points:      ledgerService,
		AI:          aiClient,
		Events:      bus,
		ErrorLog:    errorLog,
	}
	dealService := &services.DealService{
		ContactRepo: &contactRepo,
		StatRepo:    &statRepo,
		ListingRepo: &listingRepo,
		Users:       &userRepo,
		Points:      ledgerService,
		Events:      bus,
		ErrorLog:    errorLog,
	}
	searchService := &services.SearchService{ListingRepo: &listingRepo, HistoryRepo: historyRepo}

	return &application{
		errorLog:        errorLog,
		infoLog:         infoLog,
		db:              db,
		eventBus:        bus,
		ledgerService:   ledgerService,
		rechargeService: rechargeService,
		listingService:  listingService,
		dealService:     dealService,
		searchService:   searchService,
		listingHandler:  &handlers.ListingHandler{Service: listingService},
		dealHandler:     &handlers.DealHandler{Service: dealService},
		pointsHandler:   &handlers.PointsHandler{Ledger: ledgerService, Recharge: rechargeService},
		searchHandler:   &handlers.SearchHandler{Service: searchService},
	}
}
