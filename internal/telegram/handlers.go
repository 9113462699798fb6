package telegram

import (
	"context"
	goerrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Last-emo-boy/github-bot/internal/errors"
	"github.com/Last-emo-boy/github-bot/internal/models"
	"github.com/Last-emo-boy/github-bot/internal/store"
)

// handleMessage processes an incoming message
func (b *Bot) handleMessage(msg Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	// Drop silently once limited; replying would cost an outbound send per
	// inbound message and defeat the limiter.
	if !b.rateLimiter.Allow() {
		return
	}

	b.handleCommand(msg.ChatID, text)
}

// handleCommand dispatches a command to its handler
func (b *Bot) handleCommand(chatID int64, text string) {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/start":
		b.handleStart(chatID)
	case "/help", "/github":
		b.handleHelp(chatID)
	case "/github_authorize":
		b.handleAuthorize(chatID)
	case "/github_repos":
		b.handleRepos(chatID)
	case "/settoken":
		b.handleSetToken(chatID, args)
	case "/setforward":
		b.handleSetForward(chatID, args)
	default:
		b.sendErrorMessage(chatID, fmt.Sprintf("Unknown command: %s. Type /help for available commands.", command))
	}
}

// handleStart handles the /start command
func (b *Bot) handleStart(chatID int64) {
	msg := `🤖 *GitHub Bot*

Welcome! I connect this chat to GitHub: authorize once and I can list your repositories and relay webhook events here.

Type /help to see available commands.`
	b.sendMessage(chatID, msg)
}

// handleHelp handles /help and the bare /github command
func (b *Bot) handleHelp(chatID int64) {
	b.sendMessage(chatID, formatHelp())
}

// handleAuthorize handles the /github_authorize command. The chat ID is the
// caller identity and travels as the OAuth state.
func (b *Bot) handleAuthorize(chatID int64) {
	if b.onBuildAuthorizeURL == nil {
		b.sendErrorMessage(chatID, "Authorization is not available.")
		return
	}

	identity := identityForChat(chatID)
	url, err := b.onBuildAuthorizeURL(identity)
	if err != nil {
		b.sendErrorMessage(chatID, fmt.Sprintf("Failed to build authorization link: %v", err))
		return
	}

	b.sendMessage(chatID, formatAuthorizeLink(url))
}

// handleRepos handles the /github_repos command
func (b *Bot) handleRepos(chatID int64) {
	if b.onListRepos == nil {
		b.sendErrorMessage(chatID, "Repository listing is not available.")
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, 30*time.Second)
	defer cancel()

	repos, err := b.onListRepos(ctx, identityForChat(chatID))
	if err != nil {
		var unauthorized *errors.ErrUnauthorized
		if goerrors.As(err, &unauthorized) {
			b.sendErrorMessage(chatID, err.Error())
			return
		}
		b.sendErrorMessage(chatID, fmt.Sprintf("Failed to list repositories: %v", err))
		return
	}

	b.sendMessage(chatID, formatRepoList(repos))
}

// handleSetToken stores the bot token in settings
func (b *Bot) handleSetToken(chatID int64, args []string) {
	if b.settings == nil {
		b.sendErrorMessage(chatID, "Settings storage is not available.")
		return
	}
	if len(args) != 1 {
		b.sendErrorMessage(chatID, "Usage: /settoken <bot_token>")
		return
	}

	if err := b.settings.Set(store.SettingTelegramBotToken, args[0]); err != nil {
		b.sendErrorMessage(chatID, fmt.Sprintf("Failed to store token: %v", err))
		return
	}

	b.sendMessage(chatID, "✅ Bot token stored. It takes effect on the next restart.")
}

// handleSetForward stores the webhook forward chat in settings
func (b *Bot) handleSetForward(chatID int64, args []string) {
	if b.settings == nil {
		b.sendErrorMessage(chatID, "Settings storage is not available.")
		return
	}

	target := chatID
	if len(args) == 1 {
		parsed, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			b.sendErrorMessage(chatID, "Usage: /setforward [chat_id]")
			return
		}
		target = parsed
	}

	if err := b.settings.SetInt(store.SettingForwardChatID, int(target)); err != nil {
		b.sendErrorMessage(chatID, fmt.Sprintf("Failed to store forward chat: %v", err))
		return
	}
	b.SetForwardChatID(target)

	b.sendMessage(chatID, fmt.Sprintf("✅ Webhook events will be forwarded to chat %d.", target))
}

// identityForChat derives the caller identity from a chat ID.
func identityForChat(chatID int64) models.CallerIdentity {
	return models.CallerIdentity(strconv.FormatInt(chatID, 10))
}

// sendMessage sends a message to a chat
func (b *Bot) sendMessage(chatID int64, text string) {
	if b.api != nil {
		_ = b.api.SendMessage(chatID, text)
	}
}

// sendErrorMessage sends an error message to a chat
func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := fmt.Sprintf("❌ *Error*\n\n%s", text)
	b.sendMessage(chatID, msg)
}
