package models

import (
	"github.com/tradeflow/backend/internal/domain/proof"
)

// ProofBundleModel is the persistence model for a sealed proof bundle.
// Evidentiary columns are written once; only archive_key is ever updated.
// Artifacts are kept as text so the stored payload bytes stay exactly as hashed.
type ProofBundleModel struct {
	BaseModel
	TradeID       string           `gorm:"type:varchar(40);not null;uniqueIndex"`
	Status        string           `gorm:"type:varchar(20);not null"`
	HashAlgorithm string           `gorm:"type:varchar(20);not null"`
	Artifacts     []proof.Artifact `gorm:"serializer:json;type:text;not null"`
	MerkleRoot    string           `gorm:"type:varchar(128);not null;uniqueIndex"`
	Tree          proof.Tree       `gorm:"serializer:json;type:jsonb;not null"`
	Manifest      proof.Manifest   `gorm:"serializer:json;type:jsonb;not null"`
	BundleHash    string           `gorm:"type:varchar(128);not null"`
	Anchor        proof.AnchorInfo `gorm:"serializer:json;type:jsonb;not null"`
	ArchiveKey    string           `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (ProofBundleModel) TableName() string {
	return "proof_bundles"
}

// ToDomain converts the persistence model to a domain ProofBundle.
func (m *ProofBundleModel) ToDomain() *proof.ProofBundle {
	return &proof.ProofBundle{
		BaseEntity:    m.entity(),
		TradeID:       m.TradeID,
		Status:        m.Status,
		HashAlgorithm: m.HashAlgorithm,
		Artifacts:     m.Artifacts,
		MerkleRoot:    m.MerkleRoot,
		Tree:          m.Tree,
		Manifest:      m.Manifest,
		BundleHash:    m.BundleHash,
		Anchor:        m.Anchor,
		ArchiveKey:    m.ArchiveKey,
	}
}

// ProofBundleModelFromDomain creates a new persistence model from a domain ProofBundle.
func ProofBundleModelFromDomain(b *proof.ProofBundle) *ProofBundleModel {
	m := &ProofBundleModel{
		TradeID:       b.TradeID,
		Status:        b.Status,
		HashAlgorithm: b.HashAlgorithm,
		Artifacts:     b.Artifacts,
		MerkleRoot:    b.MerkleRoot,
		Tree:          b.Tree,
		Manifest:      b.Manifest,
		BundleHash:    b.BundleHash,
		Anchor:        b.Anchor,
		ArchiveKey:    b.ArchiveKey,
	}
	m.setEntity(b.BaseEntity)
	return m
}
