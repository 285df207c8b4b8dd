package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/civicgov/birth-registry/certificate-service/internal/config"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/ports"
)

const (
	// PostgreSQL NOTIFY/LISTEN configuration
	listenerMinReconnectInterval = 10 * time.Second
	listenerMaxReconnectInterval = time.Minute
	outboxChannelName            = "outbox_channel"

	// Event processing timeouts
	eventProcessTimeout     = 30 * time.Second
	batchProcessTimeout     = 60 * time.Second
	periodicProcessInterval = 90 * time.Second

	// Health check configuration
	healthCheckStaleThreshold = 5 * time.Minute

	// Batch processing limits
	maxEventsPerBatch = 100

	// Only application lifecycle events leave this service.
	applicationEventPrefix = "application."
)

// Relay listens for PostgreSQL NOTIFY signals on the outbox channel and
// publishes application lifecycle events to RabbitMQ.
type Relay struct {
	db            *sql.DB
	publisher     ports.ApplicationEventPublisher
	listener      *pq.Listener
	dbURL         string
	dbCB          *gobreaker.CircuitBreaker
	logger        *logrus.Logger
	lastProcessed time.Time
	isHealthy     bool
}

func NewRelay(db *sql.DB, dbURL string, publisher ports.ApplicationEventPublisher, logger *logrus.Logger) *Relay {
	return &Relay{
		db:            db,
		dbURL:         dbURL,
		publisher:     publisher,
		dbCB:          config.NewCircuitBreaker("Relay-PostgreSQL", logger),
		logger:        logger,
		lastProcessed: time.Now(),
		isHealthy:     true,
	}
}

// IsHealthy reports whether the relay process is alive and responsive.
// Liveness probes use this; an open circuit breaker is a degraded but
// recoverable state and does not fail liveness.
func (r *Relay) IsHealthy() bool {
	return r.isHealthy
}

// IsReady reports whether the relay can currently process events.
func (r *Relay) IsReady() bool {
	if r.dbCB.State() == gobreaker.StateOpen {
		return false
	}
	if time.Since(r.lastProcessed) > healthCheckStaleThreshold {
		return false
	}
	return r.isHealthy
}

// Start begins listening for outbox notifications and processing events.
// This is a blocking call that runs until the context is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			r.logger.WithError(err).Error("outbox relay: listener error")
		}
	}

	r.listener = pq.NewListener(r.dbURL, listenerMinReconnectInterval, listenerMaxReconnectInterval, reportProblem)
	defer r.listener.Close()

	if err := r.listener.Listen(outboxChannelName); err != nil {
		return err
	}

	r.logger.WithField("channel", outboxChannelName).Info("outbox relay: listening for notifications")

	// Process any unprocessed events on startup (catch-up)
	if err := r.processUnprocessedEvents(ctx); err != nil {
		r.logger.WithError(err).Error("outbox relay: error processing startup backlog")
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay: shutting down")
			return ctx.Err()

		case notification := <-r.listener.Notify:
			if notification == nil {
				r.logger.Warn("outbox relay: received nil notification (reconnecting)")
				r.isHealthy = false
				continue
			}

			if err := r.processEventByID(ctx, notification.Extra); err != nil {
				r.logger.WithError(err).WithField("event_id", notification.Extra).Error("outbox relay: error processing event")
			} else {
				r.lastProcessed = time.Now()
				r.isHealthy = true
			}

		case <-time.After(periodicProcessInterval):
			// Periodic ping to keep connection alive and catch any missed events
			go r.listener.Ping()

			// Also process any unprocessed events (safety net)
			if err := r.processUnprocessedEvents(ctx); err != nil {
				r.logger.WithError(err).Error("outbox relay: error in periodic processing")
			} else {
				r.lastProcessed = time.Now()
			}
		}
	}
}

// processEventByID processes a single event by its ID.
func (r *Relay) processEventByID(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, eventProcessTimeout)
	defer cancel()

	_, err := r.dbCB.Execute(func() (interface{}, error) {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		// Lock and fetch the event
		var id, eventType string
		var payload []byte
		err = tx.QueryRowContext(ctx, `
			SELECT id, event_type, payload
			FROM outbox_events
			WHERE id = $1 AND processed_at IS NULL
			FOR UPDATE SKIP LOCKED`, eventID).Scan(&id, &eventType, &payload)

		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		if strings.HasPrefix(eventType, applicationEventPrefix) {
			var evt ports.ApplicationEvent
			if err := json.Unmarshal(payload, &evt); err != nil {
				r.logger.WithError(err).WithField("event_id", id).Error("outbox relay: invalid payload")
				// Mark as processed anyway to avoid infinite retries on bad data
				_, _ = tx.ExecContext(ctx, `UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, id)
				return nil, tx.Commit()
			}

			if err := r.publisher.PublishApplicationEvent(ctx, evt); err != nil {
				return nil, err
			}
		}

		if _, err := tx.ExecContext(ctx, `UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, id); err != nil {
			return nil, err
		}

		return nil, tx.Commit()
	})
	return err
}

// processUnprocessedEvents processes all unprocessed events (catch-up/recovery).
func (r *Relay) processUnprocessedEvents(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, batchProcessTimeout)
	defer cancel()

	_, err := r.dbCB.Execute(func() (interface{}, error) {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		rows, err := tx.QueryContext(ctx, `
			SELECT id, event_type, payload
			FROM outbox_events
			WHERE processed_at IS NULL
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED`, maxEventsPerBatch)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		type record struct {
			ID        string
			EventType string
			Payload   []byte
		}

		var records []record
		for rows.Next() {
			var rec record
			if err := rows.Scan(&rec.ID, &rec.EventType, &rec.Payload); err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}

		for _, rec := range records {
			if strings.HasPrefix(rec.EventType, applicationEventPrefix) {
				var evt ports.ApplicationEvent
				if err := json.Unmarshal(rec.Payload, &evt); err != nil {
					r.logger.WithError(err).WithField("event_id", rec.ID).Error("outbox relay: invalid payload")
					_, _ = tx.ExecContext(ctx, `UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, rec.ID)
					continue
				}

				if err := r.publisher.PublishApplicationEvent(ctx, evt); err != nil {
					r.logger.WithError(err).WithField("event_id", rec.ID).Error("outbox relay: failed to publish event")
					continue
				}
			}

			if _, err := tx.ExecContext(ctx, `UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, rec.ID); err != nil {
				return nil, err
			}

			r.logger.WithField("event_id", rec.ID).Debug("outbox relay: processed event")
		}

		return nil, tx.Commit()
	})
	return err
}
