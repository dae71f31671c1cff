package main

import (
	"fmt"
	"os"

	"github.com/nurpe/dossiers-service/internal/auth"
	"github.com/nurpe/dossiers-service/internal/config"
	"github.com/nurpe/dossiers-service/internal/db"
	"github.com/nurpe/dossiers-service/internal/excel"
	httphandler "github.com/nurpe/dossiers-service/internal/http"
	"github.com/nurpe/dossiers-service/internal/http/middleware"
	"github.com/nurpe/dossiers-service/internal/logger"
	"github.com/nurpe/dossiers-service/internal/pdf"
	"github.com/nurpe/dossiers-service/internal/repository"
	"github.com/nurpe/dossiers-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	readDatabase, err := db.NewReadOnly(cfg, database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect read database")
	}

	reader := repository.NewDossierRepository(readDatabase)
	writer := repository.NewDossierRepository(database)
	diagnosticRepo := repository.NewDiagnosticRepository(database)

	dossierService := service.NewDossierService(reader, writer, log, cfg)
	diagnosticService := service.NewDiagnosticService(dossierService, diagnosticRepo, log)
	exportService := service.NewExportService(dossierService, diagnosticService, pdf.NewGenerator(), excel.NewGenerator())

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(dossierService, diagnosticService, exportService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.AllowedOrigins, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting dossiers service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
