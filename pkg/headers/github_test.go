package headers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventType(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, "unknown", EventType(h))

	h.Set("X-Github-Event", "push")
	assert.Equal(t, "push", EventType(h))
}

func TestSignature(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, "", Signature(h))

	h.Set("X-Hub-Signature-256", "sha256=abc")
	assert.Equal(t, "sha256=abc", Signature(h))
}

func TestDeliveryID(t *testing.T) {
	h := http.Header{}
	h.Set("X-Github-Delivery", "72d3162e-cc78-11e3-81ab-4c9367dc0958")
	assert.Equal(t, "72d3162e-cc78-11e3-81ab-4c9367dc0958", DeliveryID(h))
}
