package ports

import (
	"context"
	"time"
)

// Outbox event types written alongside workflow transitions.
const (
	EventApplicationSubmitted = "application.submitted"
	EventApplicationVerified  = "application.verified"
	EventApplicationApproved  = "application.approved"
	EventApplicationRejected  = "application.rejected"
)

// ApplicationEvent is the payload stored in the outbox and relayed to the
// message broker whenever an application changes state.
type ApplicationEvent struct {
	Type          string    `json:"type"`
	ApplicationID string    `json:"application_id"`
	Parent        string    `json:"parent"`
	Status        string    `json:"status"`
	CertificateID string    `json:"certificate_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type ApplicationEventPublisher interface {
	PublishApplicationEvent(ctx context.Context, evt ApplicationEvent) error
}

// VerificationCache caches public certificate verification lookups.
type VerificationCache interface {
	Get(ctx context.Context, certificateID string) ([]byte, bool)
	Set(ctx context.Context, certificateID string, payload []byte, ttl time.Duration)
}
