package storage

import (
	"context"
	"errors"

	"github.com/jmalhado/crisiscast/internal/protocol"
)

// ErrNotFound reports a missing record.
var ErrNotFound = errors.New("record not found")

// Store defines the persistence operations of the alert-creation
// workflow. Alerts are written here durably before the ingress adapter
// is invoked; broadcast never blocks or rolls back a write.
type Store interface {
	Close() error
	Migrate(ctx context.Context) error

	SaveAlert(ctx context.Context, alert *protocol.Alert) error
	FindAlert(ctx context.Context, id string) (*protocol.Alert, error)
}
