package cli

import (
	"context"
	goerrors "errors"
	"fmt"
	"log"
	"time"

	"github.com/Last-emo-boy/github-bot/internal/api"
	"github.com/Last-emo-boy/github-bot/internal/config"
	"github.com/Last-emo-boy/github-bot/internal/errors"
	"github.com/Last-emo-boy/github-bot/internal/github"
	"github.com/Last-emo-boy/github-bot/internal/metrics"
	"github.com/Last-emo-boy/github-bot/internal/models"
	"github.com/Last-emo-boy/github-bot/internal/store"
	"github.com/Last-emo-boy/github-bot/internal/telegram"
	"github.com/Last-emo-boy/github-bot/internal/webhook"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s", "server", "run"},
	Short:   "Start the GitHub Bot gateway",
	Long: `Start the GitHub Bot in main mode.

This command starts the HTTP gateway that handles the OAuth callback and
webhook intake, and the Telegram bot that serves chat commands.

Example:
  github-bot serve --config config.yaml --db ./data/github-bot.db

The gateway listens on the address configured in the config file.`,
	RunE: runServe,
}

var serveFlags struct {
	Host    string
	Port    int
	Timeout time.Duration
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.Host, "host", "", "Server host (overrides config)")
	serveCmd.Flags().IntVar(&serveFlags.Port, "port", 0, "Server port (overrides config)")
	serveCmd.Flags().DurationVar(&serveFlags.Timeout, "timeout", 0, "Shutdown timeout (overrides config)")

	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if globalFlags.Verbose {
		log.Println("Starting GitHub Bot...")
		log.Printf("Config path: %s", globalFlags.Config)
	}

	// Load configuration
	loader := config.NewLoader(globalFlags.Config)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Apply CLI flags to config
	if serveFlags.Host != "" {
		cfg.Server.Host = serveFlags.Host
	}
	if serveFlags.Port != 0 {
		cfg.Server.HTTPPort = serveFlags.Port
	}
	if serveFlags.Timeout > 0 {
		cfg.Server.ShutdownTimeout = serveFlags.Timeout
	}

	if globalFlags.Verbose {
		log.Printf("Configuration loaded successfully")
		log.Printf("Server host: %s, port: %d", cfg.Server.Host, cfg.Server.HTTPPort)
	}

	// Create SQLite store with WAL mode enabled. Settings and the webhook
	// delivery log live here; access tokens stay in memory.
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = globalFlags.DBPath
	}
	sqliteStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to create SQLite store: %w", err)
	}
	defer func() {
		if err := sqliteStore.Close(); err != nil {
			log.Printf("Error closing store: %v", err)
		}
	}()

	settingsStore := sqliteStore.Settings()
	applySettingsToTelegramConfig(settingsStore, &cfg.Telegram)

	tokens := store.NewMemoryTokenStore()

	exchanger := github.NewExchanger(
		cfg.GitHub.ClientID,
		cfg.GitHub.ClientSecret,
		cfg.GitHub.RedirectURI(),
		&github.ExchangerOptions{
			TokenURL: cfg.GitHub.TokenURL,
			Timeout:  cfg.GitHub.RequestTimeout,
		},
	)

	lister := github.NewLister(tokens, &github.ListerOptions{
		BaseURL: cfg.GitHub.APIBaseURL,
		Timeout: cfg.GitHub.RequestTimeout,
	})

	tgBot, err := setupTelegramBot(cfg, settingsStore, exchanger)
	if err != nil {
		log.Printf("Telegram setup warning: %v", err)
	}

	var forwarder webhook.Forwarder
	if tgBot != nil && tgBot.IsEnabled() {
		forwarder = webhook.ForwarderFunc(tgBot.ForwardNotification)
	} else if cfg.Telegram.BotToken != "" && cfg.Webhook.ForwardChatID != 0 {
		// Bot polling disabled but a forward target exists: send one-off
		// notifications without a running bot instance. A failed send
		// propagates so the gateway answers the delivery with an error.
		botToken := cfg.Telegram.BotToken
		forwardChatID := cfg.Webhook.ForwardChatID
		forwarder = webhook.ForwarderFunc(func(message string) error {
			return telegram.Notify(botToken, forwardChatID, message)
		})
	}

	ingestor := webhook.NewIngestor(&webhook.IngestorOptions{
		Secret:    cfg.Webhook.Secret,
		Forwarder: forwarder,
	})

	server := api.NewServer(cfg.Server, cfg.API, exchanger, tokens, ingestor)
	server.SetDeliveryLog(sqliteStore)

	if tgBot != nil {
		tgBot.SetReposCallback(listReposWithMetrics(lister, server.Metrics()))
	}

	// Watch the config file so webhook secret rotations and forward target
	// changes take effect without a restart.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	loader.SetOnChange(func(updated *config.Config) {
		ingestor.SetSecret(updated.Webhook.Secret)
		if tgBot != nil {
			tgBot.SetForwardChatID(updated.Webhook.ForwardChatID)
		}
		log.Printf("Configuration reloaded from %s", globalFlags.Config)
	})
	go func() {
		if err := loader.Watch(watchCtx); err != nil && watchCtx.Err() == nil {
			log.Printf("Config watcher stopped: %v", err)
		}
	}()

	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Printf("GitHub Bot HTTP gateway listening on %s", server.Addr())
	log.Printf("Database: %s (WAL mode enabled)", dbPath)

	if tgBot != nil {
		if err := tgBot.Start(); err != nil {
			log.Printf("Telegram bot warning: %v", err)
		}
	}

	// Block until a shutdown signal arrives
	sig := api.WaitForSignal(api.SetupSignalHandler())
	log.Printf("Received signal: %v", sig)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	if tgBot != nil {
		if err := tgBot.Stop(); err != nil {
			log.Printf("Error stopping telegram bot: %v", err)
		}
	}

	log.Println("Graceful shutdown completed")
	return nil
}

// setupTelegramBot wires the chat bot to the OAuth service. The repository
// listing callback is attached later, once the gateway's metrics exist.
// Returns nil when Telegram is disabled.
func setupTelegramBot(cfg *config.Config, settings store.SettingsStore, exchanger *github.Exchanger) (*telegram.Bot, error) {
	if !cfg.Telegram.Enabled {
		return nil, nil
	}

	opts := &telegram.BotOptions{
		RateLimiter: telegram.NewRateLimiter(cfg.Telegram.RateLimit.MessagesPerMinute),
		Settings:    settings,
	}

	client, err := telegram.NewTGBotAPIClient(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	opts.BotAPI = client

	bot := telegram.NewBot(cfg.Telegram.BotToken, cfg.Telegram.ChatID, true, opts)
	bot.SetForwardChatID(cfg.Webhook.ForwardChatID)

	bot.SetAuthorizeURLCallback(func(identity models.CallerIdentity) (string, error) {
		return exchanger.AuthorizeURL(identity), nil
	})

	return bot, nil
}

// listReposWithMetrics counts listing outcomes alongside the lookup.
func listReposWithMetrics(lister *github.Lister, m *metrics.Metrics) func(context.Context, models.CallerIdentity) ([]string, error) {
	return func(ctx context.Context, identity models.CallerIdentity) ([]string, error) {
		repos, err := lister.ListRepos(ctx, identity)

		var unauthorized *errors.ErrUnauthorized
		switch {
		case err == nil:
			m.RecordRepoListing("success")
		case goerrors.As(err, &unauthorized):
			m.RecordRepoListing("unauthorized")
		default:
			m.RecordRepoListing("error")
		}
		return repos, err
	}
}

// applySettingsToTelegramConfig lets values stored via chat commands
// override the static config file.
func applySettingsToTelegramConfig(settings store.SettingsStore, cfg *config.TelegramConfig) {
	if settings == nil {
		return
	}
	if token, ok := settings.Get(store.SettingTelegramBotToken); ok && token != "" {
		cfg.BotToken = token
	}
	if chatID := settings.GetInt(store.SettingTelegramChatID, 0); chatID != 0 {
		cfg.ChatID = int64(chatID)
	}
}
