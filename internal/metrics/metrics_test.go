package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findMetric(t *testing.T, families []*dto.MetricFamily, name string) *dto.MetricFamily {
	t.Helper()
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestRecordOAuthExchange(t *testing.T) {
	m := NewMetrics("githubbot")

	m.RecordOAuthExchange("success")
	m.RecordOAuthExchange("success")
	m.RecordOAuthExchange("denied")

	families, err := m.registry.Gather()
	require.NoError(t, err)

	mf := findMetric(t, families, "githubbot_oauth_exchanges_total")
	require.NotNil(t, mf)

	counts := map[string]float64{}
	for _, metric := range mf.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "outcome" {
				counts[label.GetValue()] = metric.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(2), counts["success"])
	assert.Equal(t, float64(1), counts["denied"])
}

func TestRecordWebhookEvent(t *testing.T) {
	m := NewMetrics("githubbot")

	m.RecordWebhookEvent("push", "forwarded")
	m.RecordWebhookEvent("ping", "rejected")

	families, err := m.registry.Gather()
	require.NoError(t, err)

	mf := findMetric(t, families, "githubbot_webhook_events_total")
	require.NotNil(t, mf)
	assert.Len(t, mf.GetMetric(), 2)
}

func TestSetAuthorizedIdentities(t *testing.T) {
	m := NewMetrics("githubbot")

	m.SetAuthorizedIdentities(3)

	families, err := m.registry.Gather()
	require.NoError(t, err)

	mf := findMetric(t, families, "githubbot_authorized_identities")
	require.NotNil(t, mf)
	require.Len(t, mf.GetMetric(), 1)
	assert.Equal(t, float64(3), mf.GetMetric()[0].GetGauge().GetValue())
}

func TestSeparateRegistries(t *testing.T) {
	// Two instances must not collide on registration
	a := NewMetrics("githubbot")
	b := NewMetrics("githubbot")

	a.RecordRepoListing("success")
	b.RecordRepoListing("error")

	families, err := a.registry.Gather()
	require.NoError(t, err)
	mf := findMetric(t, families, "githubbot_repo_listings_total")
	require.NotNil(t, mf)
	assert.Len(t, mf.GetMetric(), 1)
}
