package proof

import (
	"errors"
)

// ErrEmptyTree is returned when a tree is requested over no leaves
var ErrEmptyTree = errors.New("merkle tree has no leaves")

// Tree is a binary hash tree. Levels[0] holds the leaves and the last
// level holds only the root. Odd levels are not padded in storage; the
// duplicate used for pairing is implicit.
type Tree struct {
	Root   string     `json:"root"`
	Leaves []string   `json:"leaves"`
	Levels [][]string `json:"levels"`
}

// Build pairs adjacent nodes left to right, duplicating the last node of
// an odd level, and hashes the hex text of left then right until one node
// remains. An empty input yields the zero Tree.
func Build(h Hasher, leaves []string) Tree {
	if len(leaves) == 0 {
		return Tree{}
	}
	level := append([]string(nil), leaves...)
	levels := [][]string{level}
	for len(level) > 1 {
		next := make([]string, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, HashPair(h, left, right))
		}
		levels = append(levels, next)
		level = next
	}
	return Tree{
		Root:   level[0],
		Leaves: levels[0],
		Levels: levels,
	}
}

// Root computes only the root, returning ErrEmptyTree for no leaves
func Root(h Hasher, leaves []string) (string, error) {
	if len(leaves) == 0 {
		return "", ErrEmptyTree
	}
	return Build(h, leaves).Root, nil
}

// HashPair returns H(left || right) over the hex text of both children
func HashPair(h Hasher, left, right string) string {
	buf := make([]byte, 0, len(left)+len(right))
	buf = append(buf, left...)
	buf = append(buf, right...)
	return h.Sum(buf)
}

// Side tells on which side of the running hash a sibling sits
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Sibling is one step of an inclusion proof
type Sibling struct {
	Hash string `json:"hash"`
	Side Side   `json:"side"`
}

// InclusionProof proves that a leaf is part of a tree
type InclusionProof struct {
	LeafIndex int       `json:"leaf_index"`
	LeafHash  string    `json:"leaf_hash"`
	Siblings  []Sibling `json:"siblings"`
}

// Proof returns the inclusion proof of the leaf at index
func (t Tree) Proof(index int) (InclusionProof, error) {
	if len(t.Levels) == 0 {
		return InclusionProof{}, ErrEmptyTree
	}
	if index < 0 || index >= len(t.Leaves) {
		return InclusionProof{}, errors.New("leaf index out of range")
	}
	p := InclusionProof{LeafIndex: index, LeafHash: t.Leaves[index]}
	idx := index
	for _, row := range t.Levels[:len(t.Levels)-1] {
		if idx%2 == 0 {
			sib := row[idx]
			if idx+1 < len(row) {
				sib = row[idx+1]
			}
			p.Siblings = append(p.Siblings, Sibling{Hash: sib, Side: SideRight})
		} else {
			p.Siblings = append(p.Siblings, Sibling{Hash: row[idx-1], Side: SideLeft})
		}
		idx /= 2
	}
	return p, nil
}

// VerifyProof folds the proof and compares it against root
func VerifyProof(h Hasher, p InclusionProof, root string) bool {
	acc := p.LeafHash
	for _, s := range p.Siblings {
		if s.Side == SideLeft {
			acc = HashPair(h, s.Hash, acc)
		} else {
			acc = HashPair(h, acc, s.Hash)
		}
	}
	return acc == root
}
