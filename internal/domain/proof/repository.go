package proof

import (
	"context"

	"github.com/tradeflow/backend/internal/domain/shared"
)

// BundleRepository defines the interface for proof bundle persistence
type BundleRepository interface {
	// Create inserts a sealed bundle
	Create(ctx context.Context, b *ProofBundle) error

	// FindByID finds a bundle by ID
	FindByID(ctx context.Context, id string) (*ProofBundle, error)

	// FindByMerkleRoot finds a bundle by its stored root
	FindByMerkleRoot(ctx context.Context, root string) (*ProofBundle, error)

	// FindByTrade returns the bundle of a trade
	FindByTrade(ctx context.Context, tradeID string) (*ProofBundle, error)

	// SetArchiveKey records where the bundle document was archived.
	// The evidentiary content is never updated.
	SetArchiveKey(ctx context.Context, id, key string) error

	// List returns bundles newest first
	List(ctx context.Context, filter shared.Filter) ([]ProofBundle, int64, error)
}
