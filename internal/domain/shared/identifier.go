package shared

import (
	"strconv"
	"strings"
	"time"
)

// Identifier prefixes per record kind
const (
	PrefixTrade      = "TRD"
	PrefixCompliance = "CMP"
	PrefixOffer      = "OFF"
	PrefixPayment    = "PAY"
	PrefixBundle     = "BND"
	PrefixEvent      = "EVT"
	PrefixArtifact   = "ART" // artifact ids are ART-<kind>-<trade id>, never generated
)

const (
	idAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	idSuffixLen = 6
)

var idRandom RandomSource = NewRandomSource()

// NewID returns "<prefix>-<base36 unix millis>-<6 random base36 chars>"
func NewID(prefix string) string {
	return NewIDAt(prefix, time.Now(), idRandom)
}

// NewIDAt builds an identifier from an explicit instant and random source
func NewIDAt(prefix string, at time.Time, rnd RandomSource) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteByte('-')
	sb.WriteString(strconv.FormatInt(at.UnixMilli(), 36))
	sb.WriteByte('-')
	for i := 0; i < idSuffixLen; i++ {
		sb.WriteByte(idAlphabet[rnd.IntN(len(idAlphabet))])
	}
	return strings.ToUpper(sb.String())
}

// HasPrefix reports whether id was minted for the given prefix
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"-")
}
