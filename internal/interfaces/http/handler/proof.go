package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tradeflow/backend/internal/application/workflow"
	"github.com/tradeflow/backend/internal/domain/proof"
	"github.com/tradeflow/backend/internal/domain/shared"
)

// Archive link lifetimes accepted by ArchiveLink
const (
	DefaultArchiveLinkTTL = 15 * time.Minute
	MaxArchiveLinkTTL     = 24 * time.Hour
)

// ProofService is the proof bundle use case
type ProofService interface {
	GenerateBundle(ctx context.Context, tradeID string) (*workflow.ProofBundleResponse, error)
	GetByID(ctx context.Context, id string) (*workflow.ProofBundleResponse, error)
	ListRecent(ctx context.Context, query workflow.PageQuery) ([]workflow.ProofBundleResponse, int64, error)
	Verify(ctx context.Context, query workflow.VerifyQuery) (*proof.Verification, error)
	ArchiveLink(ctx context.Context, bundleID string, expiresIn time.Duration) (*workflow.ArchiveLinkResponse, error)
	InclusionProof(ctx context.Context, bundleID, artifactID string) (*workflow.InclusionProofResponse, error)
}

// ArchiveLinkQuery carries the requested link lifetime
type ArchiveLinkQuery struct {
	ExpiresIn time.Duration `form:"expires_in"`
}

// ProofHandler handles proof bundle endpoints
type ProofHandler struct {
	BaseHandler
	proofs ProofService
}

// NewProofHandler creates a new ProofHandler
func NewProofHandler(proofs ProofService) *ProofHandler {
	return &ProofHandler{proofs: proofs}
}

// Generate handles POST /trades/:id/proofs
func (h *ProofHandler) Generate(c *gin.Context) {
	tradeID, ok := h.RequireID(c, "id", shared.PrefixTrade)
	if !ok {
		return
	}

	bundle, err := h.proofs.GenerateBundle(c.Request.Context(), tradeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bundle)
}

// GetByID handles GET /proofs/:id
func (h *ProofHandler) GetByID(c *gin.Context) {
	id, ok := h.RequireID(c, "id", shared.PrefixBundle)
	if !ok {
		return
	}

	bundle, err := h.proofs.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bundle)
}

// ListRecent handles GET /proofs
func (h *ProofHandler) ListRecent(c *gin.Context) {
	var query workflow.PageQuery
	if !h.BindQuery(c, &query) {
		return
	}

	bundles, total, err := h.proofs.ListRecent(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, bundles, total, query)
}

// Verify handles GET /proofs/verify. Every outcome, including tampered
// and not_found, is a 200 with the verification in the body.
func (h *ProofHandler) Verify(c *gin.Context) {
	var query workflow.VerifyQuery
	if !h.BindQuery(c, &query) {
		return
	}

	v, err := h.proofs.Verify(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, v)
}

// ArchiveLink handles GET /proofs/:id/archive
func (h *ProofHandler) ArchiveLink(c *gin.Context) {
	id, ok := h.RequireID(c, "id", shared.PrefixBundle)
	if !ok {
		return
	}
	var query ArchiveLinkQuery
	if !h.BindQuery(c, &query) {
		return
	}
	ttl := query.ExpiresIn
	if ttl <= 0 {
		ttl = DefaultArchiveLinkTTL
	}
	ttl = min(ttl, MaxArchiveLinkTTL)

	link, err := h.proofs.ArchiveLink(c.Request.Context(), id, ttl)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}

// InclusionProof handles GET /proofs/:id/artifacts/:artifactId/proof
func (h *ProofHandler) InclusionProof(c *gin.Context) {
	id, ok := h.RequireID(c, "id", shared.PrefixBundle)
	if !ok {
		return
	}
	artifactID, ok := h.RequireID(c, "artifactId", shared.PrefixArtifact)
	if !ok {
		return
	}

	path, err := h.proofs.InclusionProof(c.Request.Context(), id, artifactID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, path)
}
