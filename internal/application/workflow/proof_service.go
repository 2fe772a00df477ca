package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tradeflow/backend/internal/domain/payment"
	"github.com/tradeflow/backend/internal/domain/proof"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// ProofService seals trade evidence into Merkle proof bundles and verifies them
type ProofService struct {
	stageBase
	hasher  proof.Hasher
	archive BundleArchive
}

// NewProofService creates a new ProofService. A nil hasher uses SHA-256.
func NewProofService(
	repos Repositories,
	uow UnitOfWork,
	locker Locker,
	hasher proof.Hasher,
	logger *zap.Logger,
) *ProofService {
	if hasher == nil {
		hasher = proof.SHA256()
	}
	return &ProofService{
		stageBase: newStageBase(repos, uow, locker, logger),
		hasher:    hasher,
	}
}

// SetArchive sets the object store that receives a copy of every sealed bundle
func (s *ProofService) SetArchive(archive BundleArchive) {
	s.archive = archive
}

// ArchiveKey is the object key of an archived bundle document
func ArchiveKey(tradeID, bundleID string) string {
	return "bundles/" + tradeID + "/" + bundleID + ".json"
}

// GenerateBundle hashes the artifacts of every completed stage, seals them
// into a bundle and completes the trade. A trade that already has a bundle
// gets it back unchanged.
func (s *ProofService) GenerateBundle(ctx context.Context, tradeID string) (*ProofBundleResponse, error) {
	var bundle *proof.ProofBundle
	var created bool
	err := s.observer.ObserveStage(ctx, trade.StageProof, func(ctx context.Context) error {
		unlock, err := s.lockTrade(ctx, tradeID)
		if err != nil {
			return err
		}
		defer unlock()

		t, err := s.loadTrade(ctx, tradeID)
		if err != nil {
			return err
		}

		bundle, err = s.existingBundle(ctx, t)
		if err != nil || bundle != nil {
			return err
		}

		if err := t.EnsureEligible(trade.StageProof); err != nil {
			return err
		}
		evidence, err := s.gatherEvidence(ctx, t)
		if err != nil {
			return err
		}
		artifacts, err := evidence.Artifacts(s.hasher, time.Now().UTC())
		if err != nil {
			return err
		}
		bundle, err = proof.NewBundle(s.hasher, t.ID, artifacts)
		if err != nil {
			return err
		}

		err = s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
			if err := repos.Bundles.Create(ctx, bundle); err != nil {
				return err
			}
			if err := t.AttachProofBundle(bundle.ID, bundle.MerkleRoot, len(bundle.Artifacts)); err != nil {
				return err
			}
			return repos.Trades.Save(ctx, t)
		})
		if err != nil {
			return err
		}
		s.publishTrade(ctx, t)
		created = true

		s.logger.Info("Proof bundle sealed",
			zap.String("trade_id", t.ID),
			zap.String("bundle_id", bundle.ID),
			zap.String("merkle_root", bundle.MerkleRoot),
			zap.Int("artifact_count", len(bundle.Artifacts)),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.archiveBundle(context.WithoutCancel(ctx), bundle)
	}

	response := ToProofBundleResponse(bundle, false)
	return &response, nil
}

// existingBundle returns the bundle already sealed for a trade, or nil
func (s *ProofService) existingBundle(ctx context.Context, t *trade.Trade) (*proof.ProofBundle, error) {
	if t.ProofBundleID != "" {
		return s.repos.Bundles.FindByID(ctx, t.ProofBundleID)
	}
	b, err := s.repos.Bundles.FindByTrade(ctx, t.ID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return b, err
}

// gatherEvidence collects the payloads of the stages the trade completed
func (s *ProofService) gatherEvidence(ctx context.Context, t *trade.Trade) (proof.Evidence, error) {
	evidence := proof.Evidence{
		TradeID: t.ID,
		Trade: proof.TradeDetails{
			TradeID:   t.ID,
			Status:    string(t.Status),
			Route:     t.Route(),
			Product:   t.Product,
			Amount:    t.EstimatedAmount,
			Currency:  t.Currency,
			Incoterm:  t.Incoterm,
			CreatedAt: proof.CanonicalTime(t.CreatedAt),
		},
	}

	run, err := s.repos.Compliance.FindLatestByTrade(ctx, t.ID)
	switch {
	case err == nil:
		evidence.Compliance = &proof.ComplianceResults{
			RunID:       run.ID,
			Status:      string(run.Status),
			RiskScore:   run.RiskScore,
			ChecksCount: len(run.Checks),
			CompletedAt: proof.CanonicalTime(run.CompletedAt),
		}
	case !errors.Is(err, shared.ErrNotFound):
		return proof.Evidence{}, err
	}

	if t.FinanceOfferID != "" {
		offer, err := s.repos.Offers.FindByID(ctx, t.FinanceOfferID)
		if err != nil {
			return proof.Evidence{}, err
		}
		evidence.Finance = &proof.FinanceTerms{
			OfferID:      offer.ID,
			Provider:     offer.ProviderName,
			Amount:       offer.Amount,
			Rate:         offer.InterestRate,
			TermDays:     offer.TermDays,
			STFCertified: offer.STFCertified,
		}
	}

	if t.PaymentID != "" {
		p, err := s.repos.Payments.FindByID(ctx, t.PaymentID)
		if err != nil {
			return proof.Evidence{}, err
		}
		if p.Status == payment.StatusCompleted && p.ExecutedAt != nil {
			evidence.Payment = &proof.PaymentConfirmation{
				PaymentID:        p.ID,
				Amount:           p.Amount,
				Currency:         p.Currency,
				ConfirmationCode: p.ConfirmationCode,
				SenderHash:       p.Sender.AccountHash,
				RecipientHash:    p.Recipient.AccountHash,
				ExecutedAt:       proof.CanonicalTime(*p.ExecutedAt),
			}
		}
	}

	return evidence, nil
}

// archiveBundle stores the full bundle document. Failures are logged only;
// the database copy is authoritative.
func (s *ProofService) archiveBundle(ctx context.Context, b *proof.ProofBundle) {
	if s.archive == nil {
		return
	}
	doc, err := json.Marshal(ToProofBundleResponse(b, true))
	if err != nil {
		s.logger.Warn("Failed to encode bundle for archive", zap.String("bundle_id", b.ID), zap.Error(err))
		return
	}
	key := ArchiveKey(b.TradeID, b.ID)
	if err := s.archive.Archive(ctx, key, doc); err != nil {
		s.logger.Warn("Failed to archive proof bundle",
			zap.String("bundle_id", b.ID),
			zap.String("key", key),
			zap.Error(err),
		)
		return
	}
	if err := s.repos.Bundles.SetArchiveKey(ctx, b.ID, key); err != nil {
		s.logger.Warn("Failed to record archive key", zap.String("bundle_id", b.ID), zap.Error(err))
		return
	}
	b.ArchiveKey = key
}

// ArchiveLink returns a download link for the archived document of a bundle.
// A bundle that was never archived, or an archive without links, is NOT_FOUND.
func (s *ProofService) ArchiveLink(ctx context.Context, bundleID string, expiresIn time.Duration) (*ArchiveLinkResponse, error) {
	b, err := s.repos.Bundles.FindByID(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	linker, ok := s.archive.(ArchiveLinker)
	if !ok || b.ArchiveKey == "" {
		return nil, shared.NewDomainError("NOT_FOUND", "Bundle has no archived document")
	}
	url, expiresAt, err := linker.DownloadURL(ctx, b.ArchiveKey, expiresIn)
	if err != nil {
		return nil, fmt.Errorf("link archived bundle %s: %w", b.ID, err)
	}
	return &ArchiveLinkResponse{
		BundleID:   b.ID,
		ArchiveKey: b.ArchiveKey,
		URL:        url,
		ExpiresAt:  expiresAt,
	}, nil
}

// InclusionProof proves that one artifact is a leaf of the bundle's Merkle
// root. The path is rebuilt from the stored artifact hashes, so Verified is
// false once a leaf no longer folds up to the stored root.
func (s *ProofService) InclusionProof(ctx context.Context, bundleID, artifactID string) (*InclusionProofResponse, error) {
	b, err := s.repos.Bundles.FindByID(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(b.Artifacts, func(a proof.Artifact) bool { return a.ID == artifactID })
	if idx < 0 {
		return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Artifact %s is not part of bundle %s", artifactID, b.ID))
	}
	h, err := proof.HasherFor(b.HashAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", b.ID, err)
	}
	path, err := proof.Build(h, b.LeafHashes()).Proof(idx)
	if err != nil {
		return nil, fmt.Errorf("prove artifact %s: %w", artifactID, err)
	}
	return &InclusionProofResponse{
		BundleID:      b.ID,
		ArtifactID:    artifactID,
		ArtifactType:  string(b.Artifacts[idx].Type),
		HashAlgorithm: h.Algorithm(),
		MerkleRoot:    b.MerkleRoot,
		LeafIndex:     path.LeafIndex,
		LeafHash:      path.LeafHash,
		Siblings:      path.Siblings,
		Verified:      proof.VerifyProof(h, path, b.MerkleRoot),
	}, nil
}

// Verify looks a bundle up by id or Merkle root and re-derives its root.
// An unknown query yields a not_found verification, not an error.
func (s *ProofService) Verify(ctx context.Context, query VerifyQuery) (*proof.Verification, error) {
	q := strings.TrimSpace(query.Query)
	if q == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Bundle ID or Merkle root is required")
	}

	b, err := s.findForVerification(ctx, q)
	if errors.Is(err, shared.ErrNotFound) {
		v := proof.NotFound()
		return &v, nil
	}
	if err != nil {
		return nil, err
	}

	v := proof.Verify(b, query.Deep)
	s.publish(ctx, trade.NewBundleVerifiedEvent(b.TradeID, b.ID, string(v.Result)))

	if v.Result == proof.ResultTampered {
		s.logger.Warn("Proof bundle failed verification",
			zap.String("bundle_id", b.ID),
			zap.String("stored_root", v.StoredRoot),
			zap.String("computed_root", v.ComputedRoot),
			zap.Strings("tampered_artifacts", v.TamperedArtifacts),
		)
	}
	return &v, nil
}

func (s *ProofService) findForVerification(ctx context.Context, q string) (*proof.ProofBundle, error) {
	if shared.HasPrefix(strings.ToUpper(q), shared.PrefixBundle) {
		return s.repos.Bundles.FindByID(ctx, strings.ToUpper(q))
	}
	return s.repos.Bundles.FindByMerkleRoot(ctx, strings.ToLower(q))
}

// GetByID retrieves a bundle by ID
func (s *ProofService) GetByID(ctx context.Context, id string) (*ProofBundleResponse, error) {
	b, err := s.repos.Bundles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToProofBundleResponse(b, false)
	return &response, nil
}

// ListRecent returns recent bundles
func (s *ProofService) ListRecent(ctx context.Context, query PageQuery) ([]ProofBundleResponse, int64, error) {
	bundles, total, err := s.repos.Bundles.List(ctx, query.toFilter())
	if err != nil {
		return nil, 0, err
	}
	return ToProofBundleResponses(bundles), total, nil
}
