package proof

import (
	"fmt"

	"github.com/tradeflow/backend/internal/domain/shared"
)

// ManifestVersion is the current bundle manifest schema version
const ManifestVersion = "1.0"

// Bundle and anchor statuses
const (
	BundleStatusReady = "ready"

	AnchorStatusPending = "pending"

	anchorPendingNote = "Ready for blockchain anchoring"
)

// Manifest summarises a bundle; its hash is the bundle hash
type Manifest struct {
	BundleID      string `json:"bundle_id"`
	TradeID       string `json:"trade_id"`
	Version       string `json:"version"`
	CreatedAt     string `json:"created_at"`
	ArtifactCount int    `json:"artifact_count"`
	MerkleRoot    string `json:"merkle_root"`
}

// AnchorInfo describes external anchoring of the root
type AnchorInfo struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// ProofBundle is the terminal, immutable evidence record of a trade
type ProofBundle struct {
	shared.BaseEntity
	TradeID       string
	Status        string
	HashAlgorithm string
	Artifacts     []Artifact
	MerkleRoot    string
	Tree          Tree
	Manifest      Manifest
	BundleHash    string
	Anchor        AnchorInfo
	ArchiveKey    string
}

// NewBundle seals artifacts into a bundle. At least one artifact is required.
func NewBundle(h Hasher, tradeID string, artifacts []Artifact) (*ProofBundle, error) {
	if tradeID == "" {
		return nil, shared.NewDomainError("INVALID_TRADE", "Trade ID cannot be empty")
	}
	leaves := make([]string, len(artifacts))
	for i, a := range artifacts {
		leaves[i] = a.Hash
	}
	if _, err := Root(h, leaves); err != nil {
		return nil, shared.NewDomainError("EMPTY_BUNDLE", "A proof bundle needs at least one artifact")
	}
	tree := Build(h, leaves)

	b := &ProofBundle{
		BaseEntity:    shared.NewBaseEntity(shared.NewID(shared.PrefixBundle)),
		TradeID:       tradeID,
		Status:        BundleStatusReady,
		HashAlgorithm: h.Algorithm(),
		Artifacts:     append([]Artifact(nil), artifacts...),
		MerkleRoot:    tree.Root,
		Tree:          tree,
		Anchor:        AnchorInfo{Status: AnchorStatusPending, Note: anchorPendingNote},
	}
	b.Manifest = Manifest{
		BundleID:      b.ID,
		TradeID:       tradeID,
		Version:       ManifestVersion,
		CreatedAt:     CanonicalTime(b.CreatedAt),
		ArtifactCount: len(artifacts),
		MerkleRoot:    tree.Root,
	}
	bundleHash, err := ManifestHash(h, b.Manifest)
	if err != nil {
		return nil, err
	}
	b.BundleHash = bundleHash
	return b, nil
}

// ManifestHash hashes the canonical manifest encoding
func ManifestHash(h Hasher, m Manifest) (string, error) {
	data, err := Canonicalize(m)
	if err != nil {
		return "", fmt.Errorf("hash manifest: %w", err)
	}
	return h.Sum(data), nil
}

// LeafHashes returns the stored artifact hashes in bundle order
func (b *ProofBundle) LeafHashes() []string {
	out := make([]string, len(b.Artifacts))
	for i, a := range b.Artifacts {
		out[i] = a.Hash
	}
	return out
}
