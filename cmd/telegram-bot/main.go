package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mealgrid/internal/app"
	"mealgrid/internal/auth"
	"mealgrid/internal/categorize"
	"mealgrid/internal/config"
	"mealgrid/internal/database"
	"mealgrid/internal/metrics"
	"mealgrid/internal/plan"
	"mealgrid/internal/recipe"
	"mealgrid/internal/shopping"
	"mealgrid/internal/telegram"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TelegramBotToken == "" || cfg.TelegramWebhookURL == "" {
		log.Fatalf("TELEGRAM_BOT_TOKEN and TELEGRAM_WEBHOOK_URL must be set for the bot")
	}

	ctx := context.Background()

	// 2. Initialize the SQLite database
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// 3. Initialize repositories
	recipeRepo := recipe.NewRepository(db.SQL)
	planRepo := plan.NewRepository(db.SQL)
	shoppingRepo := shopping.NewRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	// 4. Pick the categorization backend
	var (
		categorizer      categorize.Categorizer
		categorizerModel string
	)
	if cfg.GeminiAPIKey != "" {
		gen, err := categorize.NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		defer gen.Close()
		categorizer = categorize.NewLLMCategorizer(gen)
		categorizerModel = categorize.GeminiModel
	} else {
		log.Println("GEMINI_API_KEY not set; using keyword categorization")
		categorizer = categorize.KeywordCategorizer{}
		categorizerModel = "keyword"
	}

	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), 24*time.Hour)

	application := app.NewApp(
		recipeRepo,
		planRepo,
		shoppingRepo,
		metricsStore,
		categorizer,
		categorizerModel,
		recipe.NewImporter(),
		issuer,
	)

	// 5. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, application)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	// 6. Start Server with Graceful Shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	bot.RegisterHandlers()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
