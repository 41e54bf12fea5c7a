package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"maimai/internal/auth"
	"maimai/internal/config"
	billingRepo "maimai/internal/domain/repositories/billing"
	billingSvc "maimai/internal/domain/services/billing"
	"maimai/internal/handler"
	"maimai/internal/middleware"
	"maimai/internal/repository/postgres"
	postgresBilling "maimai/internal/repository/postgres/billing"
	postgresChat "maimai/internal/repository/postgres/chat"
	postgresFeed "maimai/internal/repository/postgres/feed"
	postgresPlaylist "maimai/internal/repository/postgres/playlist"
	postgresSocial "maimai/internal/repository/postgres/social"
	"maimai/internal/repository/rediscache"
	serviceBilling "maimai/internal/service/billing"
	serviceChat "maimai/internal/service/chat"
	serviceDocument "maimai/internal/service/document"
	serviceFeed "maimai/internal/service/feed"
	serviceLLM "maimai/internal/service/llm"
	servicePlaylist "maimai/internal/service/playlist"
	"maimai/internal/service/playlist/spotify"
	serviceSocial "maimai/internal/service/social"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"debit_policy", cfg.DebitPolicy,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", pool.Config().MaxConns,
		"min_conns", pool.Config().MinConns,
	)

	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}

	// Repositories
	profileRepo := postgresBilling.NewProfileRepository(repoConfig)
	var modelCostRepo billingRepo.ModelCostRepository = postgresBilling.NewModelCostRepository(repoConfig)
	threadRepo := postgresChat.NewThreadRepository(repoConfig)
	messageRepo := postgresChat.NewMessageRepository(repoConfig)
	projectRepo := postgresChat.NewProjectRepository(repoConfig)
	songRepo := postgresPlaylist.NewSongRepository(repoConfig)
	playlistRepo := postgresPlaylist.NewPlaylistRepository(repoConfig)
	feedRepo := postgresFeed.NewFeedRepository(repoConfig)
	postRepo := postgresSocial.NewPostRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Shared rate-card cache across instances (optional)
	if cfg.RedisAddr != "" {
		rdb, err := rediscache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		modelCostRepo = rediscache.NewModelCostRepository(modelCostRepo, rdb, cfg.RateCacheTTL, cfg.TablePrefix, logger)
		logger.Info("redis rate cache enabled", "addr", cfg.RedisAddr)
	}

	// Billing
	rateCache := serviceBilling.NewRateCache(modelCostRepo, cfg.RateCacheTTL, logger)
	creditService := serviceBilling.NewCreditService(profileRepo, billingSvc.DebitPolicy(cfg.DebitPolicy), logger)
	predictor := serviceBilling.NewPredictor(modelCostRepo, messageRepo, rateCache, logger)
	rateCardService := serviceBilling.NewRateCardService(modelCostRepo, rateCache, cfg)

	// AI providers
	providers, err := serviceLLM.SetupProviders(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup LLM providers: %v", err)
	}

	// Chat
	threadService := serviceChat.NewThreadService(threadRepo, messageRepo, projectRepo, logger)
	projectService := serviceChat.NewProjectService(projectRepo, logger)
	messageService := serviceChat.NewMessageService(
		threadRepo,
		messageRepo,
		projectRepo,
		txManager,
		creditService,
		rateCache,
		predictor,
		serviceChat.Providers{
			Completion: providers.Completion,
			Summarizer: providers.Summarizer,
			KeyInfo:    providers.KeyInfo,
			Images:     providers.Images,
		},
		serviceChat.NewKeywordClassifier(),
		cfg,
		logger,
	)

	// Integrations
	playlistService := servicePlaylist.NewService(
		songRepo,
		playlistRepo,
		spotify.NewFactory(cfg.SpotifyAPIURL),
		cfg.SpotifySearchInterval,
		logger,
	)
	feedService := serviceFeed.NewService(feedRepo, serviceFeed.NewHTTPFetcher(nil), logger)
	socialService := serviceSocial.NewService(postRepo, messageRepo, serviceSocial.NewGraphClient(cfg.FacebookGraphURL), logger)
	extractor := serviceDocument.NewPDFExtractor(logger)

	// Handlers
	threadHandler := handler.NewThreadHandler(threadService, messageService, logger)
	projectHandler := handler.NewProjectHandler(projectService, logger)
	creditsHandler := handler.NewCreditsHandler(creditService, rateCardService, logger)
	playlistHandler := handler.NewPlaylistHandler(playlistService, logger)
	feedHandler := handler.NewFeedHandler(feedService, logger)
	socialHandler := handler.NewSocialHandler(socialService, logger)
	documentHandler := handler.NewDocumentHandler(extractor, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Thread routes
	mux.HandleFunc("POST /api/threads", threadHandler.CreateThread)
	mux.HandleFunc("GET /api/threads", threadHandler.ListThreads)
	mux.HandleFunc("GET /api/threads/{id}", threadHandler.GetThread)
	mux.HandleFunc("PATCH /api/threads/{id}", threadHandler.UpdateThread)
	mux.HandleFunc("DELETE /api/threads/{id}", threadHandler.HideThread)
	mux.HandleFunc("POST /api/threads/{id}/messages", threadHandler.SendMessage)
	mux.HandleFunc("POST /api/messages", threadHandler.StartConversation)

	// Project routes
	mux.HandleFunc("GET /api/projects", projectHandler.ListProjects)
	mux.HandleFunc("POST /api/projects", projectHandler.CreateProject)
	mux.HandleFunc("GET /api/projects/{id}", projectHandler.GetProject)
	mux.HandleFunc("PATCH /api/projects/{id}", projectHandler.UpdateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", projectHandler.HideProject)

	// Credit and rate-card routes
	mux.HandleFunc("GET /api/credits", creditsHandler.GetBalance)
	mux.HandleFunc("POST /api/credits/estimate", creditsHandler.Estimate)
	mux.HandleFunc("GET /api/models/costs", creditsHandler.ListModelCosts)

	// Playlist routes
	mux.HandleFunc("GET /api/playlists", playlistHandler.ListPlaylists)
	mux.HandleFunc("GET /api/playlists/{id}/songs", playlistHandler.ListSongs)
	mux.HandleFunc("POST /api/playlists/{id}/songs", playlistHandler.AddSong)
	mux.HandleFunc("POST /api/playlists/{id}/update", playlistHandler.Update)
	mux.HandleFunc("POST /api/playlists/{id}/copy", playlistHandler.CopyPlaylist)
	mux.HandleFunc("POST /api/playlists/{id}/import", playlistHandler.ImportTracks)
	mux.HandleFunc("DELETE /api/songs/{id}", playlistHandler.RemoveSong)
	mux.HandleFunc("POST /api/songs/{id}/restore", playlistHandler.RestoreSong)
	mux.HandleFunc("POST /api/songs/{id}/move", playlistHandler.MoveSong)
	mux.HandleFunc("GET /api/spotify/playlists", playlistHandler.ListRemotePlaylists)
	mux.HandleFunc("GET /api/spotify/playlists/{id}/tracks", playlistHandler.RemoteTracks)

	// Feed routes
	mux.HandleFunc("GET /api/feeds", feedHandler.ListFeeds)
	mux.HandleFunc("POST /api/feeds", feedHandler.AddFeed)
	mux.HandleFunc("POST /api/feeds/refresh", feedHandler.RefreshAll) // Must come before {id} routes
	mux.HandleFunc("DELETE /api/feeds/{id}", feedHandler.RemoveFeed)
	mux.HandleFunc("POST /api/feeds/{id}/refresh", feedHandler.RefreshFeed)
	mux.HandleFunc("GET /api/feeds/{id}/items", feedHandler.ListItems)

	// Social and document routes
	mux.HandleFunc("POST /api/social/posts", socialHandler.Publish)
	mux.HandleFunc("GET /api/social/posts", socialHandler.ListPosts)
	mux.HandleFunc("POST /api/documents/extract", documentHandler.ExtractPDF)

	// Debug routes (only in dev environment)
	if cfg.IsDev() {
		mux.HandleFunc("POST /debug/api/credits", creditsHandler.AddCredits)
		logger.Warn("Debug route registered: POST /debug/api/credits (grants credits without payment)")
	}

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → RequestLogger → Routes
	h = middleware.RequestLogger(logger)(h)
	h = middleware.AuthMiddleware(jwtVerifier, logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", handler.SpotifyTokenHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // completions and playlist pushes with backoff are slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("server stopped")
}
