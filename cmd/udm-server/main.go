package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/emrbridge/emrbridge/internal/config"
	"github.com/emrbridge/emrbridge/internal/ingest"
	"github.com/emrbridge/emrbridge/internal/platform/auth"
	"github.com/emrbridge/emrbridge/internal/platform/db"
	"github.com/emrbridge/emrbridge/internal/platform/hl7v2"
	"github.com/emrbridge/emrbridge/internal/platform/middleware"
	"github.com/emrbridge/emrbridge/internal/platform/udm"
	"github.com/emrbridge/emrbridge/internal/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "udm-server",
		Short: "EMR integration bridge: HL7 v2 / FHIR ingestion into the unified data model",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(parseCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the ingestion server (HTTP + optional MLLP)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse an HL7 v2 message file and print its JSON projection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strict, _ := cmd.Flags().GetBool("strict")
			allowCustom, _ := cmd.Flags().GetBool("allow-custom-segments")

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			cfg := hl7v2.DefaultConfig()
			cfg.StrictMode = strict
			cfg.AllowCustomSegments = allowCustom

			msg, err := hl7v2.Parse(string(raw), cfg)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(msg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().Bool("strict", false, "Enable strict parsing and structural validation")
	cmd.Flags().Bool("allow-custom-segments", true, "Accept segment types outside the known registry")
	return cmd
}

func runServer() error {
	// Config first; the logger's output mode depends on it.
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()

	// Record store: Postgres when DATABASE_URL is set, in-memory otherwise.
	var repo store.Repository
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPool(ctx, db.Config{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")
		repo = store.NewRecordRepoPG(pool)
	} else {
		logger.Warn().Msg("DATABASE_URL not set; using in-memory record store")
		repo = store.NewMemoryRepo()
	}

	// Ingest pipeline
	parserCfg := hl7v2.Config{
		StrictMode:          cfg.StrictMode,
		ValidateChecksum:    cfg.ValidateChecksum,
		SupportedVersions:   cfg.SupportedVersions,
		AllowCustomSegments: cfg.AllowCustomSegments,
	}
	transformer := udm.NewTransformer(logger)
	svc := ingest.NewService(parserCfg, transformer, repo, logger)
	defaultSystem := udm.System(cfg.DefaultSystem)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.BodyLimit(cfg.MaxBodySize, cfg.MaxFHIRBodySize))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.AuthSigningKey),
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
		}))
	}

	// Audit middleware
	e.Use(middleware.Audit(logger))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	// API routes
	apiV1 := e.Group("/api/v1")
	ingestHandler := ingest.NewHandler(svc, defaultSystem)
	ingestHandler.RegisterRoutes(apiV1)

	// Optional MLLP listener
	var mllpServer *ingest.MLLPServer
	if cfg.MLLPAddr != "" {
		mllpServer = ingest.NewMLLPServer(cfg.MLLPAddr, svc, defaultSystem, udm.Options{}, logger)
		if err := mllpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("failed to start MLLP listener")
		}
		logger.Info().Str("addr", mllpServer.Addr()).Msg("MLLP listener started")
	}

	// Start HTTP server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("HTTP server started")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	if mllpServer != nil {
		if err := mllpServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("MLLP shutdown error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
