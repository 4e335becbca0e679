package repository

import (
	"context"

	"labtopo/internal/domain"
)

// Repository defines the interface for topology snapshot and
// observation persistence.
type Repository interface {
	// ReplaceTopology swaps the persisted snapshot for a new one in a
	// single transaction.
	ReplaceTopology(ctx context.Context, hosts []domain.HostRecord) error

	// ListHosts returns all persisted records sorted by host_id.
	ListHosts(ctx context.Context) ([]domain.HostRecord, error)

	// RecordObservation appends a probe observation.
	RecordObservation(ctx context.Context, obs *domain.Observation) error

	// ListObservations returns recent observations, newest first.
	// hostID filters when non-empty; limit caps the result when > 0.
	ListObservations(ctx context.Context, hostID string, limit int) ([]domain.Observation, error)

	// Close releases resources.
	Close() error
}
