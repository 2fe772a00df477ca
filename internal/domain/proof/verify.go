package proof

// Result is the outcome of a verification
type Result string

const (
	ResultVerified Result = "verified"
	ResultTampered Result = "tampered"
	ResultNotFound Result = "not_found"
)

// Verification details a verification outcome. Mismatches are reported,
// never repaired.
type Verification struct {
	Result             Result   `json:"result"`
	BundleID           string   `json:"bundle_id,omitempty"`
	TradeID            string   `json:"trade_id,omitempty"`
	StoredRoot         string   `json:"stored_root,omitempty"`
	ComputedRoot       string   `json:"computed_root,omitempty"`
	TamperedArtifacts  []string `json:"tampered_artifacts,omitempty"`
	BundleHashMismatch bool     `json:"bundle_hash_mismatch,omitempty"`
}

// NotFound is the verification of an unknown bundle id or root
func NotFound() Verification {
	return Verification{Result: ResultNotFound}
}

// Verify re-derives the Merkle root from the stored artifact hashes and
// compares it with the stored root. With deep set, every artifact payload
// is re-hashed and the manifest hash is recomputed as well.
func Verify(b *ProofBundle, deep bool) Verification {
	if b == nil {
		return NotFound()
	}
	v := Verification{
		Result:     ResultVerified,
		BundleID:   b.ID,
		TradeID:    b.TradeID,
		StoredRoot: b.MerkleRoot,
	}
	h, err := HasherFor(b.HashAlgorithm)
	if err != nil {
		v.Result = ResultTampered
		return v
	}

	computed, err := Root(h, b.LeafHashes())
	if err != nil {
		v.Result = ResultTampered
		return v
	}
	v.ComputedRoot = computed
	if computed != b.MerkleRoot {
		v.Result = ResultTampered
	}

	if deep {
		for _, a := range b.Artifacts {
			if h.Sum(a.Data) != a.Hash {
				v.TamperedArtifacts = append(v.TamperedArtifacts, a.ID)
			}
		}
		if hash, err := ManifestHash(h, b.Manifest); err != nil || hash != b.BundleHash || b.Manifest.MerkleRoot != b.MerkleRoot {
			v.BundleHashMismatch = true
		}
		if len(v.TamperedArtifacts) > 0 || v.BundleHashMismatch {
			v.Result = ResultTampered
		}
	}
	return v
}
