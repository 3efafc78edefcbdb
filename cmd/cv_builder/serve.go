package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-builder/internal/config"
	"github.com/jonathan/cv-builder/internal/editor"
	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/generation"
	"github.com/jonathan/cv-builder/internal/llm"
	"github.com/jonathan/cv-builder/internal/plans"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/rewriting"
	"github.com/jonathan/cv-builder/internal/server"
	"github.com/jonathan/cv-builder/internal/server/middleware"
	"github.com/jonathan/cv-builder/internal/server/ratelimit"
	"github.com/jonathan/cv-builder/internal/storage"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server exposing the optimize, generation, PDF, draft and editor endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env := config.Load()
	fileCfg, err := loadFileConfig(config.Config{Port: env.Port, DatabaseURL: env.DatabaseURL, APIKey: env.GeminiAPIKey, ChromePath: env.ChromePath})
	if err != nil {
		return err
	}
	env.Port, env.DatabaseURL, env.GeminiAPIKey, env.ChromePath = fileCfg.Port, fileCfg.DatabaseURL, fileCfg.APIKey, fileCfg.ChromePath
	if cmd.Flags().Changed("port") {
		env.Port = servePort
	}

	store, err := openStore(ctx, env.DatabaseURL)
	if err != nil {
		return err
	}

	var (
		optimizer server.TextOptimizer
		gateway   rewriting.Gateway = rewriting.Identity{}
	)
	if env.GeminiAPIKey != "" {
		client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), env.GeminiAPIKey)
		if err != nil {
			store.Close()
			return fmt.Errorf("failed to create Gemini client: %w", err)
		}
		defer func() { _ = client.Close() }()
		opt := rewriting.NewOptimizer(client)
		optimizer, gateway = opt, opt
	} else {
		log.Println("[serve] GEMINI_API_KEY not set, /api/optimize is disabled")
	}
	if env.RewriteURL != "" {
		gateway = rewriting.NewHTTPGateway(env.RewriteURL, nil)
		log.Printf("[serve] generation rewrites through %s", env.RewriteURL)
	}

	var archive export.Archive
	if env.ArchiveEnabled() {
		a, err := export.NewS3Archive(ctx, export.S3Config{
			Region:    env.S3Region,
			Endpoint:  env.S3Endpoint,
			Bucket:    env.S3Bucket,
			AccessKey: env.S3AccessKey,
			SecretKey: env.S3SecretKey,
		})
		if err != nil {
			store.Close()
			return fmt.Errorf("failed to create export archive: %w", err)
		}
		archive = a
	}

	auth, err := newTokenValidator(ctx)
	if err != nil {
		store.Close()
		return err
	}

	templates := rendering.DefaultRegistry()
	srv, err := server.New(server.Config{
		Port:               env.Port,
		CORSOrigins:        env.CORSOrigins,
		SessionIdleTimeout: env.SessionIdleTimeout,
	}, server.Deps{
		Store:       store,
		Generator:   generation.NewService(plans.NewGate(plans.DefaultLimits(), store), gateway, store),
		Optimizer:   optimizer,
		Rewriter:    gateway,
		Templates:   templates,
		Exports:     export.NewPipeline(templates, export.NewChromeExporter(export.WithExecPath(env.ChromePath)), archive),
		Sessions:    editor.NewManager(),
		Auth:        auth,
		RateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
	})
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// openStore connects to Postgres when databaseURL is set, and falls back to memory.
func openStore(ctx context.Context, databaseURL string) (storage.Store, error) {
	if databaseURL == "" {
		log.Println("[serve] DATABASE_URL not set, using in-memory storage")
		return storage.NewMemoryStore(), nil
	}
	pg, err := storage.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return pg, nil
}

// newTokenValidator verifies tokens with the identity provider's JWKS when configured,
// otherwise with the shared HS256 secret.
func newTokenValidator(ctx context.Context) (middleware.TokenValidator, error) {
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	if jwtConfig.JWKSURL != "" {
		verifier, err := server.NewJWKSVerifier(ctx, jwtConfig.JWKSURL)
		if err != nil {
			return nil, err
		}
		return verifier.AsTokenValidator(), nil
	}
	return server.NewJWTService(jwtConfig).AsTokenValidator(), nil
}
