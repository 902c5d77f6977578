package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/nickhawn/news-agent/db"
	"github.com/nickhawn/news-agent/internal/assistant"
	"github.com/nickhawn/news-agent/internal/config"
	"github.com/nickhawn/news-agent/internal/feedback"
	"github.com/nickhawn/news-agent/internal/intent"
	"github.com/nickhawn/news-agent/internal/profile"
	"github.com/nickhawn/news-agent/internal/repository"
	"github.com/nickhawn/news-agent/pkg/llm"
	"github.com/nickhawn/news-agent/pkg/news"
)

// One-shot digest generator. Prints the markdown digest for a profile to
// stdout so it can be piped into mail or a scheduler.
func main() {
	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	profileID := flag.String("profile", "default", "profile to build the digest for")
	flag.Parse()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	var repo repository.ProfileRepository
	if os.Getenv("DATABASE_URL") != "" {
		if err := db.Connect(); err != nil {
			log.Fatalf("error connecting to DB: %v", err)
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			log.Fatalf("error migrating DB: %v", err)
		}
		repo = repository.NewPostgresProfileRepository(db.DB)
	} else {
		fileRepo, err := repository.NewFileProfileRepository(cfg.DataDir)
		if err != nil {
			log.Fatalf("error opening profile store: %v", err)
		}
		repo = fileRepo
	}

	var completer llm.Completer
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		completer = llm.WithRetry(llm.NewOpenAIClient(key))
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		completer = llm.WithRetry(llm.NewAnthropicClient(key))
	}

	var extractor profile.Extractor = feedback.KeywordExtractor{}
	if completer != nil {
		extractor = feedback.NewLLMExtractor(completer)
	}

	store := profile.NewStore(repo, extractor)
	search := news.NewTavilyClient(os.Getenv("TAVILY_API_KEY"))
	classifier := intent.NewClassifier(completer)

	a := assistant.New(store, classifier, search, completer, cfg)

	slog.Info("building digest", "profile_id", *profileID)

	res := a.Respond(context.Background(), *profileID, "daily news digest")

	fmt.Println(res.Reply)
}
