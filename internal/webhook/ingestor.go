package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/Last-emo-boy/github-bot/internal/errors"
	"github.com/Last-emo-boy/github-bot/internal/models"
	"github.com/Last-emo-boy/github-bot/pkg/headers"
)

// Forwarder delivers a formatted notification to the configured chat target.
type Forwarder interface {
	Forward(message string) error
}

// ForwarderFunc adapts a function to the Forwarder interface.
type ForwarderFunc func(message string) error

func (f ForwarderFunc) Forward(message string) error {
	return f(message)
}

// Ingestor validates and decodes inbound webhook deliveries and forwards a
// human-readable notification. The signature secret may be swapped while
// deliveries are in flight; everything else is fixed at construction.
type Ingestor struct {
	mu        sync.RWMutex
	secret    string
	forwarder Forwarder
}

// IngestorOptions configures an Ingestor.
type IngestorOptions struct {
	// Secret enables X-Hub-Signature-256 verification when non-empty.
	Secret string
	// Forwarder receives the formatted message; nil means events are
	// accepted and formatted but not sent anywhere.
	Forwarder Forwarder
}

// NewIngestor creates a webhook ingestor.
func NewIngestor(opts *IngestorOptions) *Ingestor {
	ing := &Ingestor{}
	if opts != nil {
		ing.secret = opts.Secret
		ing.forwarder = opts.Forwarder
	}
	return ing
}

// Forwards reports whether a forward target is configured.
func (ing *Ingestor) Forwards() bool {
	return ing.forwarder != nil
}

// SetSecret replaces the signature secret. Used on config reload so a
// rotated webhook secret takes effect without a restart; empty disables
// verification.
func (ing *Ingestor) SetSecret(secret string) {
	ing.mu.Lock()
	ing.secret = secret
	ing.mu.Unlock()
}

// Ingest decodes one webhook delivery and forwards the notification exactly
// once. The returned message is what was (or would have been) forwarded.
// Forwarding errors are not swallowed; the gateway turns them into a non-2xx
// response so GitHub's delivery system can retry.
func (ing *Ingestor) Ingest(header http.Header, rawBody []byte) (string, error) {
	ing.mu.RLock()
	secret := ing.secret
	ing.mu.RUnlock()

	if secret != "" {
		if err := VerifySignature(secret, headers.Signature(header), rawBody); err != nil {
			return "", err
		}
	}

	event, err := Decode(header, rawBody)
	if err != nil {
		return "", err
	}

	message := FormatMessage(event)

	if ing.forwarder != nil {
		if err := ing.forwarder.Forward(message); err != nil {
			return message, fmt.Errorf("forward webhook notification: %w", err)
		}
	}

	return message, nil
}

// Decode parses the delivery headers and body into a WebhookEvent.
func Decode(header http.Header, rawBody []byte) (*models.WebhookEvent, error) {
	var payload any
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, &errors.ErrMalformedPayload{Err: err}
	}

	return &models.WebhookEvent{
		Type:    headers.EventType(header),
		Payload: payload,
	}, nil
}

// FormatMessage renders the notification text for a decoded event: the event
// type followed by the pretty-printed payload. HTML escaping is off so
// non-ASCII and URLs survive intact.
func FormatMessage(event *models.WebhookEvent) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(event.Payload); err != nil {
		// Payload came out of json.Unmarshal, so this cannot fail; keep the
		// notification usable regardless.
		return fmt.Sprintf("GitHub webhook event: %s", event.Type)
	}

	return fmt.Sprintf("GitHub webhook event: %s\nPayload:\n%s", event.Type, strings.TrimRight(buf.String(), "\n"))
}
