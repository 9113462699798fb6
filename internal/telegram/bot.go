package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Last-emo-boy/github-bot/internal/models"
	"github.com/Last-emo-boy/github-bot/internal/store"
)

// Message represents a message sent by the bot
type Message struct {
	ID        int64
	ChatID    int64
	Text      string
	Timestamp time.Time
}

// BotAPI interface for Telegram bot operations (allows mocking in tests)
type BotAPI interface {
	SendMessage(chatID int64, text string) error
	GetUpdates() ([]Message, error)
}

// RateLimiter implements token bucket algorithm for rate limiting
type RateLimiter struct {
	rate       int // messages per minute
	bucketSize int // burst size
	tokens     float64
	lastUpdate time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(messagesPerMinute int) *RateLimiter {
	return &RateLimiter{
		rate:       messagesPerMinute,
		bucketSize: messagesPerMinute,
		tokens:     float64(messagesPerMinute),
		lastUpdate: time.Now(),
	}
}

// Allow checks if a message can be sent
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastUpdate).Minutes()
	rl.lastUpdate = now

	// Add tokens based on elapsed time
	rl.tokens += float64(rl.rate) * elapsed
	if rl.tokens > float64(rl.bucketSize) {
		rl.tokens = float64(rl.bucketSize)
	}

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// BotOptions contains optional configuration for the bot
type BotOptions struct {
	RateLimiter *RateLimiter
	BotAPI      BotAPI
	Settings    store.SettingsStore
}

// Bot is the chat host for the GitHub bridge. Each chat is a caller
// identity: the chat ID becomes the OAuth state, so the token exchanged on
// the callback ends up keyed to the chat that asked for the link.
type Bot struct {
	botToken    string
	chatID      int64
	enabled     bool
	rateLimiter *RateLimiter
	api         BotAPI
	settings    store.SettingsStore

	// forwardChatID is written by /setforward and by config reloads while
	// the message loop reads it.
	fwdMu         sync.Mutex
	forwardChatID int64

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	msgChan chan Message

	// Callbacks for command handlers
	onBuildAuthorizeURL func(identity models.CallerIdentity) (string, error)
	onListRepos         func(ctx context.Context, identity models.CallerIdentity) ([]string, error)
}

// NewBot creates a new Telegram bot
func NewBot(botToken string, chatID int64, enabled bool, opts *BotOptions) *Bot {
	ctx, cancel := context.WithCancel(context.Background())

	b := &Bot{
		botToken: botToken,
		chatID:   chatID,
		enabled:  enabled,
		ctx:      ctx,
		cancel:   cancel,
		msgChan:  make(chan Message, 100),
	}

	if opts != nil {
		if opts.RateLimiter != nil {
			b.rateLimiter = opts.RateLimiter
		}
		if opts.BotAPI != nil {
			b.api = opts.BotAPI
		}
		if opts.Settings != nil {
			b.settings = opts.Settings
		}
	}

	// Set default rate limiter if not provided
	if b.rateLimiter == nil {
		b.rateLimiter = NewRateLimiter(30) // 30 messages per minute
	}

	// Load token/chat from settings if not provided
	if b.settings != nil {
		if b.botToken == "" {
			if token, ok := b.settings.Get(store.SettingTelegramBotToken); ok {
				b.botToken = token
			}
		}
		if b.chatID == 0 {
			if raw, ok := b.settings.Get(store.SettingTelegramChatID); ok && raw != "" {
				chatID := b.settings.GetInt(store.SettingTelegramChatID, 0)
				if chatID != 0 {
					b.chatID = int64(chatID)
				}
			}
		}
		if b.forwardChatID == 0 {
			forwardID := b.settings.GetInt(store.SettingForwardChatID, 0)
			if forwardID != 0 {
				b.forwardChatID = int64(forwardID)
			}
		}
	}

	return b
}

// SetForwardChatID sets the chat that receives webhook notifications.
// A zero value is ignored so reloads cannot wipe a target set via chat.
func (b *Bot) SetForwardChatID(chatID int64) {
	if chatID == 0 {
		return
	}
	b.fwdMu.Lock()
	b.forwardChatID = chatID
	b.fwdMu.Unlock()
}

// ForwardChatID returns the chat that receives webhook notifications.
func (b *Bot) ForwardChatID() int64 {
	b.fwdMu.Lock()
	defer b.fwdMu.Unlock()
	return b.forwardChatID
}

// SetAuthorizeURLCallback sets the callback that builds an authorization link
func (b *Bot) SetAuthorizeURLCallback(cb func(identity models.CallerIdentity) (string, error)) {
	b.onBuildAuthorizeURL = cb
}

// SetReposCallback sets the callback that lists the caller's repositories
func (b *Bot) SetReposCallback(cb func(ctx context.Context, identity models.CallerIdentity) ([]string, error)) {
	b.onListRepos = cb
}

// Start starts the bot
func (b *Bot) Start() error {
	if !b.enabled {
		return nil
	}

	if b.botToken == "" {
		return fmt.Errorf("bot token is required")
	}

	// Start message processing loop
	b.wg.Add(1)
	go b.processMessages()

	// Start polling updates if API is configured
	if b.api != nil {
		b.wg.Add(1)
		go b.pollUpdates()
	}

	return nil
}

// Stop gracefully stops the bot
func (b *Bot) Stop() error {
	b.cancel()

	// Wait for all goroutines to finish
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timeout waiting for bot to stop")
	}
}

// processMessages processes incoming messages
func (b *Bot) processMessages() {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-b.msgChan:
			if !ok {
				return
			}
			b.handleMessage(msg)
		}
	}
}

// pollUpdates polls the Telegram API for updates and forwards them to the message channel.
func (b *Bot) pollUpdates() {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			return
		default:
		}

		updates, err := b.api.GetUpdates()
		if err != nil {
			time.Sleep(2 * time.Second)
			continue
		}

		if len(updates) == 0 {
			time.Sleep(250 * time.Millisecond)
			continue
		}

		for _, msg := range updates {
			select {
			case <-b.ctx.Done():
				return
			case b.msgChan <- msg:
			default:
				// Drop if buffer is full to avoid blocking
			}
		}
	}
}

// SendMessage sends a message to the configured chat
func (b *Bot) SendMessage(text string) error {
	if !b.enabled {
		return nil
	}

	if !b.rateLimiter.Allow() {
		return fmt.Errorf("rate limit exceeded")
	}

	if b.api != nil {
		return b.api.SendMessage(b.chatID, text)
	}

	return nil
}

// ForwardNotification delivers a webhook notification to the forward chat.
// It satisfies the webhook Forwarder contract: a send failure is returned so
// the gateway can answer the delivery with an error.
func (b *Bot) ForwardNotification(message string) error {
	if !b.enabled {
		return fmt.Errorf("telegram bot is disabled")
	}

	target := b.ForwardChatID()
	if target == 0 {
		target = b.chatID
	}
	if target == 0 {
		return fmt.Errorf("no forward chat configured")
	}

	if b.api == nil {
		return fmt.Errorf("telegram api not configured")
	}

	return b.api.SendMessage(target, message)
}

// IsEnabled returns whether the bot is enabled
func (b *Bot) IsEnabled() bool {
	return b.enabled
}

// GetChatID returns the configured chat ID
func (b *Bot) GetChatID() int64 {
	return b.chatID
}
