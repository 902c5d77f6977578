package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nickhawn/news-agent/db"
	"github.com/nickhawn/news-agent/internal/assistant"
	"github.com/nickhawn/news-agent/internal/cache"
	"github.com/nickhawn/news-agent/internal/config"
	"github.com/nickhawn/news-agent/internal/feedback"
	"github.com/nickhawn/news-agent/internal/handler"
	"github.com/nickhawn/news-agent/internal/intent"
	"github.com/nickhawn/news-agent/internal/profile"
	"github.com/nickhawn/news-agent/internal/repository"
	"github.com/nickhawn/news-agent/pkg/llm"
	"github.com/nickhawn/news-agent/pkg/news"
)

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	repo, cleanup, err := buildRepository(cfg)
	if err != nil {
		log.Fatalf("error setting up profile store: %v", err)
	}
	defer cleanup()

	completer := buildCompleter(cfg)

	extractor := buildExtractor(completer)
	store := profile.NewStore(repo, extractor)

	search := buildSearch(cfg)

	classifier := intent.NewClassifier(completer)
	a := assistant.New(store, classifier, search, completer, cfg)

	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		a.RegisterSource(news.NewFinnHubClient(key), "finnhub", "market news", "markets")
	}

	chatHandler := handler.NewChatHandler(a)
	profileHandler := handler.NewProfileHandler(store)

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}

	if frontendURL := cfg.Server.FrontendURL; frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	slog.Info("AllowOrigins URL:", "urls", allowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.POST("/chat", chatHandler.Chat)
	r.GET("/profile/:id", profileHandler.GetProfile)
	r.GET("/health", profileHandler.GetHealth)

	err = r.Run(cfg.Server.Addr)
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}

// buildRepository picks postgres when DATABASE_URL is set, otherwise a
// file-backed store under the configured data directory.
func buildRepository(cfg *config.Config) (repository.ProfileRepository, func(), error) {
	if os.Getenv("DATABASE_URL") != "" {
		if err := db.Connect(); err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, err
		}
		slog.Info("using postgres profile store")
		return repository.NewPostgresProfileRepository(db.DB), db.Close, nil
	}

	repo, err := repository.NewFileProfileRepository(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("using file profile store", "dir", cfg.DataDir)
	return repo, func() {}, nil
}

func buildCompleter(cfg *config.Config) llm.Completer {
	var completer llm.Completer

	switch cfg.LLM.Provider {
	case "anthropic":
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			completer = llm.NewAnthropicClient(key)
		}
	default:
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			completer = llm.NewOpenAIClient(key)
		}
	}

	if completer == nil {
		slog.Warn("no LLM API key set, running with keyword fallbacks only")
		return nil
	}

	slog.Info("using LLM provider", "provider", cfg.LLM.Provider)
	return llm.WithRetry(completer)
}

func buildExtractor(completer llm.Completer) profile.Extractor {
	if completer == nil {
		return feedback.KeywordExtractor{}
	}
	return feedback.NewLLMExtractor(completer)
}

func buildSearch(cfg *config.Config) news.SearchClient {
	tavily := news.NewTavilyClient(os.Getenv("TAVILY_API_KEY"))

	if os.Getenv("REDIS_URL") == "" {
		return tavily
	}

	if err := db.ConnectRedis(); err != nil {
		slog.Warn("redis unavailable, search cache disabled", "error", err)
		return tavily
	}

	slog.Info("search cache enabled", "ttl", cfg.CacheTTL())
	return cache.NewSearchCache(tavily, db.Redis, cfg.CacheTTL())
}
