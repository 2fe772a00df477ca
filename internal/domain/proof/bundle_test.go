package proof

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backend/internal/domain/shared"
)

func fullEvidence() Evidence {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return Evidence{
		TradeID: "TRD-1",
		Trade: TradeDetails{
			TradeID:   "TRD-1",
			Status:    "payment_completed",
			Route:     "Germany → Kenya",
			Product:   "Industrial pumps",
			Amount:    decimal.NewFromInt(250000),
			Currency:  "USD",
			Incoterm:  "FOB",
			CreatedAt: CanonicalTime(created),
		},
		Compliance: &ComplianceResults{
			RunID:       "CMP-1",
			Status:      "passed",
			RiskScore:   100,
			ChecksCount: 6,
			CompletedAt: CanonicalTime(created.Add(time.Hour)),
		},
		Finance: &FinanceTerms{
			OfferID:      "OFF-1",
			Provider:     "Global Trade Bank",
			Amount:       decimal.NewFromInt(250000),
			Rate:         decimal.RequireFromString("5.25"),
			TermDays:     90,
			STFCertified: true,
		},
		Payment: &PaymentConfirmation{
			PaymentID:        "PAY-1",
			Amount:           decimal.NewFromInt(250000),
			Currency:         "USD",
			ConfirmationCode: "ABCDEF123456",
			SenderHash:       strings.Repeat("a", 64),
			RecipientHash:    strings.Repeat("b", 64),
			ExecutedAt:       CanonicalTime(created.Add(2 * time.Hour)),
		},
	}
}

func sealTestBundle(t *testing.T, h Hasher, ev Evidence) *ProofBundle {
	artifacts, err := ev.Artifacts(h, time.Now())
	require.NoError(t, err)
	b, err := NewBundle(h, ev.TradeID, artifacts)
	require.NoError(t, err)
	return b
}

// ============================================
// Artifact Tests
// ============================================

func TestEvidence_Artifacts(t *testing.T) {
	artifacts, err := fullEvidence().Artifacts(SHA256(), time.Now())
	require.NoError(t, err)
	require.Len(t, artifacts, 4)

	assert.Equal(t, "ART-TRADE-TRD-1", artifacts[0].ID)
	assert.Equal(t, ArtifactTypeTradeDetails, artifacts[0].Type)
	assert.Equal(t, "ART-COMP-TRD-1", artifacts[1].ID)
	assert.Equal(t, "ART-FIN-TRD-1", artifacts[2].ID)
	assert.Equal(t, "ART-PAY-TRD-1", artifacts[3].ID)

	for _, a := range artifacts {
		assert.Equal(t, SHA256().Sum(a.Data), a.Hash)
	}
}

func TestEvidence_OnlyCompletedStages(t *testing.T) {
	ev := fullEvidence()
	ev.Finance = nil
	ev.Payment = nil

	artifacts, err := ev.Artifacts(SHA256(), time.Now())
	require.NoError(t, err)
	assert.Len(t, artifacts, 2)
}

func TestCanonicalize_FixedFieldOrder(t *testing.T) {
	data, err := Canonicalize(ComplianceResults{RunID: "CMP-1", Status: "passed", RiskScore: 90, ChecksCount: 6, CompletedAt: "2026-03-01T10:30:00.000Z"})
	require.NoError(t, err)
	assert.Equal(t, `{"run_id":"CMP-1","status":"passed","risk_score":90,"checks_count":6,"completed_at":"2026-03-01T10:30:00.000Z"}`, string(data))

	terms, err := Canonicalize(FinanceTerms{OfferID: "OFF-1", Amount: decimal.RequireFromString("100000.00"), Rate: decimal.RequireFromString("5.20")})
	require.NoError(t, err)
	assert.Contains(t, string(terms), `"amount":"100000"`)
	assert.Contains(t, string(terms), `"rate":"5.2"`)
}

func TestArtifactHash_StableAcrossRuns(t *testing.T) {
	a, err := fullEvidence().Artifacts(SHA256(), time.Now())
	require.NoError(t, err)
	b, err := fullEvidence().Artifacts(SHA256(), time.Now().Add(time.Minute))
	require.NoError(t, err)
	for i := range a {
		assert.Equal(t, a[i].Hash, b[i].Hash)
	}
}

func TestNewArtifact_UnknownType(t *testing.T) {
	_, err := NewArtifact(SHA256(), "TRD-1", ArtifactType("invoice"), struct{}{}, time.Now())
	assert.Error(t, err)
}

// ============================================
// Bundle Tests
// ============================================

func TestNewBundle(t *testing.T) {
	h := SHA256()
	b := sealTestBundle(t, h, fullEvidence())

	assert.True(t, shared.HasPrefix(b.ID, shared.PrefixBundle))
	assert.Equal(t, BundleStatusReady, b.Status)
	assert.Equal(t, AlgorithmSHA256, b.HashAlgorithm)
	assert.Equal(t, Build(h, b.LeafHashes()).Root, b.MerkleRoot)
	assert.Equal(t, b.MerkleRoot, b.Tree.Root)
	assert.Len(t, b.Tree.Levels, 3)

	assert.Equal(t, b.ID, b.Manifest.BundleID)
	assert.Equal(t, "TRD-1", b.Manifest.TradeID)
	assert.Equal(t, ManifestVersion, b.Manifest.Version)
	assert.Equal(t, 4, b.Manifest.ArtifactCount)
	assert.Equal(t, b.MerkleRoot, b.Manifest.MerkleRoot)

	manifestHash, err := ManifestHash(h, b.Manifest)
	require.NoError(t, err)
	assert.Equal(t, manifestHash, b.BundleHash)
	assert.NotEqual(t, b.MerkleRoot, b.BundleHash)

	assert.Equal(t, AnchorInfo{Status: AnchorStatusPending, Note: "Ready for blockchain anchoring"}, b.Anchor)
}

func TestNewBundle_NoArtifacts(t *testing.T) {
	_, err := NewBundle(SHA256(), "TRD-1", nil)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "EMPTY_BUNDLE", domainErr.Code)
}

// ============================================
// Verification Tests
// ============================================

func TestVerify_FreshBundle(t *testing.T) {
	for _, h := range []Hasher{SHA256(), SHA3256()} {
		b := sealTestBundle(t, h, fullEvidence())
		assert.Equal(t, ResultVerified, Verify(b, false).Result, h.Algorithm())
		assert.Equal(t, ResultVerified, Verify(b, true).Result, h.Algorithm())
	}
}

func TestVerify_TamperedArtifactHash(t *testing.T) {
	b := sealTestBundle(t, SHA256(), fullEvidence())
	for i := range b.Artifacts {
		clone := *b
		clone.Artifacts = append([]Artifact(nil), b.Artifacts...)
		clone.Artifacts[i].Hash = SHA256().Sum([]byte("forged"))

		v := Verify(&clone, false)
		assert.Equal(t, ResultTampered, v.Result, "artifact %d", i)
		assert.Equal(t, b.MerkleRoot, v.StoredRoot)
		assert.NotEqual(t, v.StoredRoot, v.ComputedRoot)
	}
	assert.Equal(t, ResultVerified, Verify(b, false).Result)
}

func TestVerify_TamperedRoot(t *testing.T) {
	b := sealTestBundle(t, SHA256(), fullEvidence())
	b.MerkleRoot = strings.Repeat("0", 64)
	assert.Equal(t, ResultTampered, Verify(b, false).Result)
}

func TestVerify_DeepDetectsPayloadEdit(t *testing.T) {
	b := sealTestBundle(t, SHA256(), fullEvidence())

	var payment map[string]any
	require.NoError(t, json.Unmarshal(b.Artifacts[3].Data, &payment))
	payment["amount"] = "1"
	edited, err := json.Marshal(payment)
	require.NoError(t, err)
	b.Artifacts[3].Data = edited

	// hashes untouched, so the shallow check still passes
	assert.Equal(t, ResultVerified, Verify(b, false).Result)

	v := Verify(b, true)
	assert.Equal(t, ResultTampered, v.Result)
	assert.Equal(t, []string{"ART-PAY-TRD-1"}, v.TamperedArtifacts)
}

func TestVerify_DeepDetectsManifestEdit(t *testing.T) {
	b := sealTestBundle(t, SHA256(), fullEvidence())
	b.Manifest.ArtifactCount = 3

	v := Verify(b, true)
	assert.Equal(t, ResultTampered, v.Result)
	assert.True(t, v.BundleHashMismatch)
}

func TestVerify_NilIsNotFound(t *testing.T) {
	assert.Equal(t, ResultNotFound, Verify(nil, false).Result)
	assert.Equal(t, ResultNotFound, NotFound().Result)
}
