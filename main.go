package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/landrecords/demarcation-backend/internal/auth"
	"github.com/landrecords/demarcation-backend/internal/config"
	"github.com/landrecords/demarcation-backend/internal/db"
	"github.com/landrecords/demarcation-backend/internal/documents"
	"github.com/landrecords/demarcation-backend/internal/geo"
	"github.com/landrecords/demarcation-backend/internal/logger"
	"github.com/landrecords/demarcation-backend/internal/middleware"
	"github.com/landrecords/demarcation-backend/internal/plots"
	"github.com/landrecords/demarcation-backend/internal/reports"
	"gorm.io/gorm"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer appLog.Sync()

	d, err := db.Connect(cfg.DatabaseURL, db.Options{MaxOpenConns: cfg.DBMaxOpenConns})
	if err != nil {
		appLog.Fatal("failed to connect to database", "error", err)
	}
	appLog.Info("connected to database")

	migrations := []struct {
		name string
		run  func(*gorm.DB) error
	}{
		{"geo", geo.Migrate},
		{"auth", auth.Migrate},
		{"plots", plots.Migrate},
		{"documents", documents.Migrate},
	}
	for _, m := range migrations {
		if err := m.run(d); err != nil {
			appLog.Fatal("migration failed", "module", m.name, "error", err)
		}
	}

	geoSvc := geo.NewService(d)
	authSvc := auth.NewService(d, geoSvc, cfg.SessionTTL)
	plotSvc := plots.NewService(d, geoSvc, authSvc)
	docSvc := documents.NewService(d, plotSvc, documents.Storage{Root: cfg.UploadDir}, cfg.MaxUploadBytes)
	reportSvc := reports.NewService(d)

	fetcher := auth.SessionInfo{DB: d}
	limiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst)

	authHandler := &auth.Handler{Service: authSvc, Log: appLog.With("module", "auth"), CookieSecure: cfg.CookieSecure}
	geoHandler := &geo.Handler{Service: geoSvc, Log: appLog.With("module", "geo")}
	plotHandler := &plots.Handler{Service: plotSvc, Log: appLog.With("module", "plots")}
	docHandler := &documents.Handler{Service: docSvc, Log: appLog.With("module", "documents"), MaxBytes: cfg.MaxUploadBytes}
	reportHandler := &reports.Handler{Service: reportSvc, Log: appLog.With("module", "reports")}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes(authHandler, fetcher, limiter))
	r.Mount("/geo", geo.SetupRoutes(geoHandler, fetcher))
	r.Mount("/citizen/plots", plots.CitizenRoutes(plotHandler, fetcher))
	r.Mount("/officer/plots", plots.OfficerRoutes(plotHandler, fetcher))
	r.Mount("/plots", plots.SharedRoutes(plotHandler, fetcher))
	r.Mount("/admin/plots", plots.AdminRoutes(plotHandler, fetcher))
	r.Mount("/admin", reports.SetupRoutes(reportHandler, fetcher))
	r.Mount("/documents", documents.SetupRoutes(docHandler, fetcher))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: cfg.RequestTimeout,
	}
	appLog.Info("server listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		appLog.Fatal("server stopped", "error", err)
	}
}
