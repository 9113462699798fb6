// Package headers provides parsing of GitHub webhook delivery headers.
package headers

import "net/http"

// Header names GitHub attaches to webhook deliveries.
const (
	EventTypeHeader = "X-Github-Event"
	DeliveryHeader  = "X-Github-Delivery"
	SignatureHeader = "X-Hub-Signature-256"
)

// UnknownEvent is reported when a delivery carries no event type header.
// GitHub always sets one; its absence is degraded input, not an error.
const UnknownEvent = "unknown"

// EventType extracts the webhook event type, defaulting to UnknownEvent.
func EventType(h http.Header) string {
	if v := h.Get(EventTypeHeader); v != "" {
		return v
	}
	return UnknownEvent
}

// DeliveryID extracts the unique delivery identifier, empty when absent.
func DeliveryID(h http.Header) string {
	return h.Get(DeliveryHeader)
}

// Signature extracts the HMAC signature header, empty when absent.
func Signature(h http.Header) string {
	return h.Get(SignatureHeader)
}
