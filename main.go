package main

import (
	stdlog "log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/username/corretaje/src/config"
	"github.com/username/corretaje/src/database"
	"github.com/username/corretaje/src/directory"
	"github.com/username/corretaje/src/handlers"
	"github.com/username/corretaje/src/instrumentation"
	"github.com/username/corretaje/src/logger"
	"github.com/username/corretaje/src/security"
	"github.com/username/corretaje/src/services"
	"github.com/username/corretaje/src/store"
	"golang.org/x/time/rate"
)

var limiter *rate.Limiter

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Corretaje backend server starting...")

	limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), config.Cfg.RateLimitBurst)

	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	sqliteStore := store.NewSQLiteStore(database.DB)

	logger.L.Info("Initializing trader directory source...", "ttl", config.Cfg.TraderCacheTTL)
	dirSource := directory.NewCachedSource(sqliteStore, config.Cfg.TraderCacheTTL)

	logger.L.Info("Initializing report cache...", "ttl", config.Cfg.ReportCacheTTL)
	reportCache := cache.New(config.Cfg.ReportCacheTTL, 2*config.Cfg.ReportCacheTTL)

	metrics := instrumentation.NewMetrics()

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)
	reportService := services.NewReportService(sqliteStore, dirSource, reportCache, metrics, config.Cfg.SelfTraderName)

	userHandler := handlers.NewUserHandler(database.DB, authService)
	reportHandler := handlers.NewReportHandler(reportService)
	traderHandler := handlers.NewTraderHandler(reportService)

	logger.L.Info("Configuring routes...")
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(enableCORS)
	router.Use(rateLimitMiddleware)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Corretaje backend is running"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", userHandler.RegisterUserHandler)
		api.Post("/auth/login", userHandler.LoginUserHandler)

		api.Group(func(protected chi.Router) {
			protected.Use(userHandler.AuthMiddleware)

			protected.Get("/reports/ranking", reportHandler.HandleRanking)
			protected.Get("/reports/self-position", reportHandler.HandleSelfPosition)
			protected.Get("/reports/comparison", reportHandler.HandleComparison)
			protected.Get("/reports/sector-matrix", reportHandler.HandleSectorMatrix)
			protected.Get("/reports/pivot/monthly", reportHandler.HandleMonthlyPivot)
			protected.Get("/reports/pivot/rueda", reportHandler.HandleRuedaPivot)

			protected.Get("/traders", traderHandler.HandleListTraders)
			protected.Post("/traders", traderHandler.HandleCreateTrader)
			protected.Post("/traders/{traderID}/aliases", traderHandler.HandleCreateAlias)
			protected.Post("/transactions/import", traderHandler.HandleImportTransactions)
		})
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
