package models

// Repository is the slice of a GitHub repository object this service cares
// about. The API returns many more fields; only full_name is consumed.
type Repository struct {
	FullName string `json:"full_name"`
}

// WebhookEvent is a decoded webhook delivery. It lives only for the duration
// of one ingestion call and is never persisted.
type WebhookEvent struct {
	// Type is the value of the X-GitHub-Event header, "unknown" when absent.
	Type string
	// Payload is the decoded JSON body.
	Payload any
}
