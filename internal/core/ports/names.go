package ports

import (
	"context"

	"github.com/twinmarket/twin-api/internal/core/domain"
)

// NameRegistry reverse-resolves an address to a human readable name.
type NameRegistry interface {
	// Lookup returns nil, nil when the address has no primary name.
	Lookup(ctx context.Context, address string) (*domain.ResolvedName, error)
}

// NameResolutionJob asks for the registry names of a freshly created wallet.
type NameResolutionJob struct {
	UserID  string
	Address string
}

// NameResolver processes name resolution jobs.
type NameResolver interface {
	Resolve(ctx context.Context, job NameResolutionJob) error
}

// NameQueue accepts name resolution jobs for asynchronous processing.
type NameQueue interface {
	Enqueue(job NameResolutionJob)
}
