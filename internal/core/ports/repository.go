package ports

import (
	"context"
	"time"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Available reports whether the backing store is reachable. Write
	// paths check it up front so an outage surfaces as ErrUnavailable
	// instead of a generic failure.
	Available(ctx context.Context) bool
}

// ApplicationRepository persists applications and drives the workflow
// transitions. Verify, Approve and Reject are conditional updates: the
// status guard is part of the UPDATE itself, so concurrent transitions on
// one record yield exactly one winner. A guard miss returns
// domain.ErrConflict; an unknown id returns domain.ErrNotFound.
//
// Mutations accept an outbox payload that is written in the same
// transaction as the row change (transactional outbox).
type ApplicationRepository interface {
	Create(ctx context.Context, app domain.Application, outboxPayload []byte) (*domain.Application, error)
	FindByID(ctx context.Context, id string) (*domain.Application, error)
	FindByParent(ctx context.Context, parentID string) ([]domain.Application, error)
	FindAll(ctx context.Context) ([]domain.Application, error)
	FindByCertificateID(ctx context.Context, certificateID string) (*domain.Application, error)

	Verify(ctx context.Context, id string, target domain.Status, notes, signature, verifierID string, at time.Time, outboxPayload []byte) (*domain.Application, error)
	Approve(ctx context.Context, id, certificateID string, at time.Time, outboxPayload []byte) (*domain.Application, error)
	Reject(ctx context.Context, id, notes string, outboxPayload []byte) (*domain.Application, error)

	CountByStatus(ctx context.Context) (*domain.StatusCounts, error)
	MonthlyCounts(ctx context.Context, months int) ([]domain.MonthlyCount, error)
	Available(ctx context.Context) bool
}
