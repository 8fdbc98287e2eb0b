package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"akane/pkg/bot"
	"akane/pkg/cache"
	"akane/pkg/config"
	"akane/pkg/database"
	"akane/pkg/gemini"
	"akane/pkg/gpt"
	"akane/pkg/health"
	"akane/pkg/llm"
	"akane/pkg/memory"
	"akane/pkg/persona"
	"akane/pkg/sentryhelper"
	"akane/pkg/surreal"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Load .env for secrets
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, relying on environment variables")
	}
	setupLogging(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig("config.yml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		log.Fatal("Missing required environment variable: DISCORD_TOKEN")
	}

	if err := sentryhelper.Init(os.Getenv("SENTRY_DSN"), os.Getenv("SENTRY_ENVIRONMENT"), os.Getenv("RELEASE")); err != nil {
		log.Warnf("Sentry init failed, error reporting disabled: %v", err)
	}
	defer sentryhelper.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize model client: %v", err)
	}

	dbPath := cfg.ResolveDBPath()
	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database %s: %v", dbPath, err)
	}
	defer db.Close()
	log.Infof("Using database at %s", dbPath)

	var quota bot.QuotaStore = db
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisCache, err := cache.NewRedisCache(redisURL, cfg.Cache.RedisPrefix)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		quota = cache.NewQuota(redisCache)
		log.Info("Daily quota shared through Redis")
	}

	var turns memory.Log = db
	if surrealHost := os.Getenv("SURREAL_DB_HOST"); surrealHost != "" {
		surrealClient, err := surreal.NewClient(ctx, surrealHost,
			os.Getenv("SURREAL_DB_USER"), os.Getenv("SURREAL_DB_PASS"),
			envOr("SURREAL_DB_NAMESPACE", "akane"), envOr("SURREAL_DB_DATABASE", "conversations"))
		if err != nil {
			log.Fatalf("Failed to connect to SurrealDB: %v", err)
		}
		defer surrealClient.Close()
		turns = memory.NewSurrealLog(ctx, surrealClient)
		log.Infof("Conversation log stored in SurrealDB at %s", surreal.NormalizeHost(surrealHost))
	}

	classifier := persona.NewClassifier(persona.Rules{
		Keywords:        cfg.Responder.RegulationKeywords,
		QuestionMarkers: cfg.Responder.QuestionMarkers,
		Policy:          persona.ParsePolicy(cfg.Responder.AnalysisPolicy),
		Placeholder:     cfg.Responder.TargetPlaceholder,
	})

	handler := bot.NewHandler(bot.NewHandlerConfig(cfg), bot.Dependencies{
		Generator:  generator,
		Classifier: classifier,
		Quota:      quota,
		Settings:   memory.NewCachedSettings(db, cfg.Cache.SettingsSize, database.ErrNotFound),
		Levels:     db,
		Turns:      turns,
		Pruner:     db,
		Reporter:   sentryhelper.NewReporter(nil),
	})

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		log.Fatalf("Error creating Discord session: %v", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessageReactions |
		discordgo.IntentsGuildMembers

	dg.AddHandler(handler.MessageCreate)
	dg.AddHandler(handler.MessageReactionAdd)
	dg.AddHandler(handler.GuildMemberAdd)
	dg.AddHandler(handler.InteractionCreate)

	if err := dg.Open(); err != nil {
		log.Fatalf("Error opening connection: %v", err)
	}

	// Set Bot ID in handler (so it can ignore itself)
	handler.SetBotID(dg.State.User.ID)
	handler.SetSession(&bot.DiscordSession{Session: dg})

	// Empty guild ID registers globally; set DISCORD_GUILD_ID for instant updates while developing
	guildID := os.Getenv("DISCORD_GUILD_ID")
	registeredCommands, err := bot.RegisterSlashCommands(dg, guildID)
	if err != nil {
		log.Fatalf("Error registering slash commands: %v", err)
	}

	go handler.RunDailyRoutine(ctx)
	go handler.RunMaintenance(ctx)

	if cfg.HTTP.Addr != "" {
		go func() {
			if err := health.Serve(ctx, cfg.HTTP.Addr, health.NewRouter(handler, db)); err != nil {
				log.Errorf("Health server stopped: %v", err)
			}
		}()
	}

	log.Infof("Akane is now running as %s. Press CTRL-C to exit.", dg.State.User.Username)
	<-ctx.Done()
	log.Info("Shutting down...")

	if err := bot.UnregisterSlashCommands(dg, guildID, registeredCommands); err != nil {
		log.Warnf("Error unregistering slash commands: %v", err)
	}
	dg.Close()
	handler.WaitForReady()
}

func setupLogging(level string) {
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		FieldsOrder:     []string{"component", "user_id", "guild_id", "mode"},
		TimestampFormat: time.RFC3339,
	})

	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// newGenerator builds the configured provider client and wraps it with the
// request limiter and the retry policy. Each retry attempt waits on the limiter.
func newGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	capability, err := llm.ParseCapability(cfg.Model.Capability)
	if err != nil {
		return nil, err
	}
	model := llm.Model{
		ID:              cfg.Model.ID,
		Capability:      capability,
		Temperature:     cfg.Model.Temperature,
		ReasoningEffort: cfg.Model.ReasoningEffort,
	}

	var base llm.Generator
	switch cfg.Model.Provider {
	case "gemini":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			log.Fatal("Missing required environment variable: GEMINI_API_KEY")
		}
		client, err := gemini.NewClient(ctx, apiKey, cfg.Model.BaseURL, model)
		if err != nil {
			return nil, err
		}
		base = client
	default:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			log.Fatal("Missing required environment variable: OPENAI_API_KEY")
		}
		base = gpt.NewClient(apiKey, cfg.Model.BaseURL, model, cfg.ModelTimeout())
	}

	log.WithField("component", "llm").Infof("Using %s model %s (%s)", cfg.Model.Provider, model.ID, capability)

	limited := llm.NewRateLimitedGenerator(base, cfg.Model.RequestsPerSecond, cfg.Model.Burst)
	return llm.NewRetryingGenerator(limited, llm.RetryConfig{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.RetryDelay(),
		MaxDelay:     cfg.RetryMaxDelay(),
		Multiplier:   cfg.Retry.Multiplier,
	}), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
