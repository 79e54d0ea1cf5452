package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"
)

// Domain prefixes for digests.
// Version suffix enables future algorithm migration.
const (
	DomainEdgeSet = "nequip-repro/edges/v" + DigestVersion
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns a content hash of the neighbor list's edge set.
//
// The digest covers the sorted triples, the edge count, and the exact bit
// patterns of the lengths in triple order, so two lists have equal digests
// only when they are bit-for-bit the same set. Edge order does not matter.
func (nl *NeighborList) Digest() string {
	edges := make([]Edge, len(nl.Edges))
	copy(edges, nl.Edges)
	sortEdges(edges)

	buf := make([]byte, 0, 8+len(edges)*48)
	buf = binary.BigEndian.AppendUint64(buf, uint64(len(edges)))
	for _, e := range edges {
		buf = binary.BigEndian.AppendUint64(buf, uint64(int64(e.Source)))
		buf = binary.BigEndian.AppendUint64(buf, uint64(int64(e.Target)))
		for k := 0; k < 3; k++ {
			buf = binary.BigEndian.AppendUint64(buf, uint64(int64(e.Shift[k])))
		}
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(e.Length))
	}
	return hashWithDomain(DomainEdgeSet, buf)
}

// sortEdges orders edges by triple, then length.
func sortEdges(edges []Edge) {
	sort.Slice(edges, func(a, b int) bool {
		ta, tb := edges[a].Triple(), edges[b].Triple()
		if ta != tb {
			return ta.Less(tb)
		}
		return edges[a].Length < edges[b].Length
	})
}
