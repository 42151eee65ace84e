package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dental_clinic_api/config"
	"dental_clinic_api/db"
	"dental_clinic_api/handlers"
	"dental_clinic_api/middleware"
	"dental_clinic_api/models"
	"dental_clinic_api/services"
	"dental_clinic_api/services/ai"
	"dental_clinic_api/services/i18n"
	"dental_clinic_api/services/pdf"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func newLogger(environment, level string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if environment == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}
	if lvl, err := zerolog.ParseLevel(level); err == nil && lvl != zerolog.NoLevel {
		logger = logger.Level(lvl)
	}
	return logger
}

func main() {
	// Bootstrap logger until the config says otherwise
	log.Logger = newLogger(os.Getenv("ENVIRONMENT"), "info")

	// Load configuration
	cfg := config.Load()
	logger := newLogger(cfg.Environment, cfg.LogLevel)
	log.Logger = logger

	if err := i18n.Load(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load translations")
	}

	// Initialize database
	if err := db.Initialize(cfg.DBPath, cfg.Environment); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// PDF pipeline
	renderer := pdf.NewChromeRenderer(pdf.ChromeOptions{
		ExecPath:       cfg.ChromePath,
		NoSandbox:      cfg.ChromeNoSandbox,
		MaxConcurrent:  cfg.PDFMaxConcurrent,
		LoadTimeout:    cfg.PDFLoadTimeout,
		NetworkIdle:    cfg.PDFNetworkIdle,
		RenderTimeout:  cfg.PDFRenderTimeout,
		DisableScripts: cfg.PDFDisableScripts,
	}, logger)
	pdfService := pdf.NewService(renderer, pdf.ServiceOptions{
		SanitizeHTML: cfg.PDFSanitizeHTML,
		MaxHTMLBytes: cfg.PDFMaxHTMLBytes,
	}, logger)
	if !cfg.PDFSanitizeHTML {
		logger.Warn().Msg("PDF_SANITIZE_HTML is off: HTML fragments are rendered as received")
	}

	pdfHandler := &handlers.PDFHandler{Renderer: pdfService, Logger: logger}
	documentHandler := &handlers.DocumentHandler{Logger: logger}
	if cfg.PDFArchiveEnabled {
		archive := services.NewDocumentArchive(db.DB, services.InitializeStorage(cfg, logger), logger)
		pdfHandler.Archive = archive
		documentHandler.Archive = archive
	}

	// Generative AI
	aiClient := ai.NewClient(ai.Options{
		APIKey:       cfg.AIAPIKey,
		BaseURL:      cfg.AIBaseURL,
		Model:        cfg.AIModel,
		VisionModel:  cfg.AIVisionModel,
		Timeout:      cfg.AITimeout,
		NoteMaxChars: cfg.AINoteMaxChars,
	}, logger)
	if !aiClient.IsConfigured() {
		logger.Warn().Msg("AI_API_KEY is not set: AI endpoints will answer 503")
	}
	aiHandler := &handlers.AIHandler{AI: aiClient}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = middleware.NewValidator()

	// Middleware
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	// Leave room for base64 images and large documents
	e.Use(echomw.BodyLimit("12M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, "Accept-Language", echo.HeaderXRequestID},
	}))
	e.Use(middleware.Locale())

	// Public routes
	e.GET("/health", handlers.HealthHandler)

	// Protected API routes
	api := e.Group("/api")
	api.Use(middleware.RequireAPIToken(cfg.APIToken))
	{
		// Expensive routes share a per-IP limiter
		limited := middleware.NewRateLimiter(middleware.RateLimitConfig{RequestsPerSecond: cfg.RateLimitPerSecond})

		api.POST("/pdf/generar", pdfHandler.GeneratePDF, limited)
		api.POST("/ia/citas/digitalizar", aiHandler.DigitizeAppointments, limited)
		api.POST("/ia/notas-motivacionales", aiHandler.MotivationalNote, limited)

		// Image annotation comments
		api.POST("/imagenes/:imageId/comentarios", handlers.CreateAnnotationCommentHandler)
		api.GET("/imagenes/:imageId/comentarios", handlers.GetAnnotationCommentsHandler)
		api.PUT("/comentarios/:id", handlers.UpdateAnnotationCommentHandler)
		api.DELETE("/comentarios/:id", handlers.DeleteAnnotationCommentHandler)

		// Inventory
		api.POST("/materiales", handlers.CreateMaterialHandler)
		api.GET("/materiales", handlers.GetMaterialsHandler)
		api.POST("/materiales/:id/reponer", handlers.RestockMaterialHandler)
		api.POST("/materiales/asignaciones", handlers.AssignMaterialHandler)
		api.GET("/materiales/asignaciones", handlers.GetMaterialAssignmentsHandler)
		api.GET("/materiales/asignaciones/export", handlers.ExportMaterialAssignmentsHandler)

		// Generated document archive
		api.GET("/documentos", documentHandler.ListDocuments)
		api.GET("/documentos/:id", documentHandler.DownloadDocument)
	}

	// Start server
	go func() {
		logger.Info().Str("port", cfg.ServerPort).Str("environment", cfg.Environment).Msg("Server starting")
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server")
	// Long enough for an in-flight render to finish and its browser to exit
	ctx, cancel := context.WithTimeout(context.Background(), cfg.PDFRenderTimeout+5*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
	logger.Info().Msg("Server stopped")
}
