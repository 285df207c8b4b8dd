package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/ports"
)

// outboxChannel is the NOTIFY channel the relay listens on.
const outboxChannel = "outbox_channel"

const applicationColumns = `
	a.id, a.child_name, a.child_dob, a.place_of_birth, a.gender, a.weight,
	a.city_of_birth, a.state_of_birth, a.country_of_birth,
	a.mother_name, a.mother_dob, a.mother_nationality, a.mother_id_number,
	a.father_name, a.father_dob, a.father_nationality, a.father_id_number,
	a.contact_email, a.phone_number, a.residential_address,
	a.parent_id, a.documents, a.status, a.review_notes,
	a.verified_by, COALESCE(u.name, ''), a.verification_date,
	a.digital_signature, a.certificate_id, a.date_of_issue, a.applied_at`

const applicationFrom = ` FROM applications a LEFT JOIN users u ON u.id = a.verified_by `

// ApplicationRepository is the Postgres adapter for the application
// workflow. Transitions are single conditional UPDATEs (the status guard
// lives in the WHERE clause), and every mutation writes its outbox event
// in the same transaction, followed by a NOTIFY so the relay picks it up
// immediately.
type ApplicationRepository struct {
	db *sql.DB
}

var _ ports.ApplicationRepository = (*ApplicationRepository)(nil)

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, app domain.Application, outboxPayload []byte) (*domain.Application, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO applications (
			id, child_name, child_dob, place_of_birth, gender, weight,
			city_of_birth, state_of_birth, country_of_birth,
			mother_name, mother_dob, mother_nationality, mother_id_number,
			father_name, father_dob, father_nationality, father_id_number,
			contact_email, phone_number, residential_address,
			parent_id, documents, status, review_notes, digital_signature, applied_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
		)`,
		app.ID, app.ChildName, app.ChildDOB, app.PlaceOfBirth, app.Gender, app.Weight,
		app.CityOfBirth, app.StateOfBirth, app.CountryOfBirth,
		app.MotherName, app.MotherDOB, app.MotherNationality, app.MotherIDNumber,
		app.FatherName, app.FatherDOB, app.FatherNationality, app.FatherIDNumber,
		app.ContactEmail, app.PhoneNumber, app.ResidentialAddress,
		app.Parent, pq.Array(app.Documents), app.Status, app.ReviewNotes, app.DigitalSignature, app.AppliedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := insertOutboxEvent(ctx, tx, ports.EventApplicationSubmitted, outboxPayload); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*domain.Application, error) {
	return r.findOne(ctx, r.db, "a.id = $1", id)
}

func (r *ApplicationRepository) FindByCertificateID(ctx context.Context, certificateID string) (*domain.Application, error) {
	return r.findOne(ctx, r.db, "a.certificate_id = $1", certificateID)
}

func (r *ApplicationRepository) FindByParent(ctx context.Context, parentID string) ([]domain.Application, error) {
	return r.findMany(ctx, "WHERE a.parent_id = $1", parentID)
}

func (r *ApplicationRepository) FindAll(ctx context.Context) ([]domain.Application, error) {
	return r.findMany(ctx, "")
}

// Verify applies the reviewed status. The WHERE clause is the workflow
// guard: records already verified or approved are left untouched and the
// caller gets ErrConflict.
func (r *ApplicationRepository) Verify(ctx context.Context, id string, target domain.Status, notes, signature, verifierID string, at time.Time, outboxPayload []byte) (*domain.Application, error) {
	eventType := ports.EventApplicationVerified
	query := `UPDATE applications
		SET status = $2, review_notes = $3
		WHERE id = $1 AND status NOT IN ('verified', 'approved')`
	args := []any{id, target, notes}

	if target == domain.StatusVerified {
		query = `UPDATE applications
			SET status = $2, review_notes = $3, verified_by = $4,
			    digital_signature = $5, verification_date = $6
			WHERE id = $1 AND status NOT IN ('verified', 'approved')`
		args = []any{id, target, notes, verifierID, signature, at}
	} else {
		eventType = ports.EventApplicationRejected
	}

	return r.transition(ctx, id, eventType, query, args, outboxPayload)
}

// Approve is the only transition that assigns a certificate. The unique
// index on certificate_id backs up the structural uniqueness of the
// generated number.
func (r *ApplicationRepository) Approve(ctx context.Context, id, certificateID string, at time.Time, outboxPayload []byte) (*domain.Application, error) {
	app, err := r.transition(ctx, id, ports.EventApplicationApproved,
		`UPDATE applications
		 SET status = 'approved', certificate_id = $2, date_of_issue = $3
		 WHERE id = $1 AND status = 'verified'`,
		[]any{id, certificateID, at},
		outboxPayload,
	)
	if isCertificateCollision(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateCertificateID, certificateID)
	}
	return app, err
}

func (r *ApplicationRepository) Reject(ctx context.Context, id, notes string, outboxPayload []byte) (*domain.Application, error) {
	return r.transition(ctx, id, ports.EventApplicationRejected,
		`UPDATE applications
		 SET status = 'rejected', review_notes = $2
		 WHERE id = $1 AND status <> 'approved'`,
		[]any{id, notes},
		outboxPayload,
	)
}

func (r *ApplicationRepository) CountByStatus(ctx context.Context) (*domain.StatusCounts, error) {
	var counts domain.StatusCounts
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'approved'),
		       COUNT(*) FILTER (WHERE status = 'rejected'),
		       COUNT(*) FILTER (WHERE status = 'approved' AND certificate_id IS NOT NULL)
		FROM applications`,
	).Scan(&counts.Total, &counts.Pending, &counts.Approved, &counts.Rejected, &counts.CertificatesIssued)
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

func (r *ApplicationRepository) MonthlyCounts(ctx context.Context, months int) ([]domain.MonthlyCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(date_trunc('month', applied_at), 'Mon') AS month,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'approved'),
		       COUNT(*) FILTER (WHERE status = 'pending')
		FROM applications
		WHERE applied_at >= date_trunc('month', NOW()) - make_interval(months => $1 - 1)
		GROUP BY date_trunc('month', applied_at)
		ORDER BY date_trunc('month', applied_at)`,
		months,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MonthlyCount
	for rows.Next() {
		var mc domain.MonthlyCount
		if err := rows.Scan(&mc.Month, &mc.Applications, &mc.Approved, &mc.Pending); err != nil {
			return nil, err
		}
		result = append(result, mc)
	}
	return result, rows.Err()
}

func (r *ApplicationRepository) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(ctx) == nil
}

// transition runs one guarded UPDATE plus its outbox write atomically.
// Zero rows updated means either the record does not exist (ErrNotFound)
// or the guard failed (ErrConflict).
func (r *ApplicationRepository) transition(ctx context.Context, id, eventType, query string, args []any, outboxPayload []byte) (*domain.Application, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)", id,
		).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: application", domain.ErrNotFound)
		}
		return nil, domain.ErrConflict
	}

	app, err := r.findOne(ctx, tx, "a.id = $1", id)
	if err != nil {
		return nil, err
	}

	if err := insertOutboxEvent(ctx, tx, eventType, outboxPayload); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return app, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *ApplicationRepository) findOne(ctx context.Context, q queryer, where string, arg any) (*domain.Application, error) {
	row := q.QueryRowContext(ctx, "SELECT"+applicationColumns+applicationFrom+"WHERE "+where, arg)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: application", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

func (r *ApplicationRepository) findMany(ctx context.Context, where string, args ...any) ([]domain.Application, error) {
	query := "SELECT" + applicationColumns + applicationFrom + where + " ORDER BY a.applied_at DESC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []domain.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(s scanner) (*domain.Application, error) {
	var app domain.Application
	var documents pq.StringArray
	err := s.Scan(
		&app.ID, &app.ChildName, &app.ChildDOB, &app.PlaceOfBirth, &app.Gender, &app.Weight,
		&app.CityOfBirth, &app.StateOfBirth, &app.CountryOfBirth,
		&app.MotherName, &app.MotherDOB, &app.MotherNationality, &app.MotherIDNumber,
		&app.FatherName, &app.FatherDOB, &app.FatherNationality, &app.FatherIDNumber,
		&app.ContactEmail, &app.PhoneNumber, &app.ResidentialAddress,
		&app.Parent, &documents, &app.Status, &app.ReviewNotes,
		&app.VerifiedBy, &app.VerifiedByName, &app.VerificationDate,
		&app.DigitalSignature, &app.CertificateID, &app.DateOfIssue, &app.AppliedAt,
	)
	if err != nil {
		return nil, err
	}
	app.Documents = []string(documents)
	return &app, nil
}

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, eventType string, payload []byte) error {
	eventID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_events (id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, NOW())`,
		eventID, eventType, payload,
	); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, "SELECT pg_notify($1, $2)", outboxChannel, eventID)
	return err
}

func isCertificateCollision(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505" &&
		strings.Contains(pqErr.Constraint, "certificate")
}
