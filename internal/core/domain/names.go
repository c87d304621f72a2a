package domain

import (
	"math"
	"regexp"
	"strings"
)

// NameMatchThreshold is the relaxed similarity cutoff for the identity
// cross-check between income and ID documents.
const NameMatchThreshold = 0.50

var (
	nonNameRunes = regexp.MustCompile(`[^0-9a-zA-Zก-๙]+`)

	titleStopwordsEN = map[string]struct{}{
		"mr": {}, "mr.": {}, "mrs": {}, "mrs.": {}, "ms": {}, "ms.": {},
		"miss": {}, "miss.": {}, "mister": {},
	}
	titleStopwordsTH = map[string]struct{}{
		"นาย": {}, "นาง": {}, "น.ส.": {}, "นส.": {}, "คุณ": {}, "ด.ช.": {},
		"ด.ญ.": {}, "เด็กชาย": {}, "เด็กหญิง": {}, "คุณนาย": {},
	}
)

// NameMatch is the outcome of the relaxed identity comparison, with the
// individual signals kept for logging.
type NameMatch struct {
	Same          bool
	Score         float64
	Ratio         float64
	TokenOverlap  float64
	LastTokenSame float64
}

// NormalizeName lowercases, strips punctuation and honorific titles (Thai
// and English), and collapses whitespace.
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}
	s := nonNameRunes.ReplaceAllString(strings.ToLower(name), " ")
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, tok := range fields {
		if _, isTitle := titleStopwordsEN[tok]; isTitle {
			continue
		}
		if _, isTitle := titleStopwordsTH[tok]; isTitle {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// RelaxedNameMatch scores two names as the maximum of three signals:
// sequence-similarity ratio over the normalized strings, token-set Jaccard
// overlap, and a last-token (surname proxy) equality bit.
func RelaxedNameMatch(a, b string) NameMatch {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == "" || nb == "" {
		return NameMatch{}
	}

	ratio := sequenceRatio(na, nb)

	tokensA, tokensB := strings.Fields(na), strings.Fields(nb)
	overlap := jaccard(tokensA, tokensB)

	lastSame := 0.0
	if tokensA[len(tokensA)-1] == tokensB[len(tokensB)-1] {
		lastSame = 1.0
	}

	score := math.Max(ratio, math.Max(overlap, lastSame))
	return NameMatch{
		Same:          score >= NameMatchThreshold,
		Score:         round3(score),
		Ratio:         round3(ratio),
		TokenOverlap:  round3(overlap),
		LastTokenSame: lastSame,
	}
}

func jaccard(a, b []string) float64 {
	union := make(map[string]struct{}, len(a)+len(b))
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
		union[t] = struct{}{}
	}
	shared := 0
	seenB := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := seenB[t]; dup {
			continue
		}
		seenB[t] = struct{}{}
		union[t] = struct{}{}
		if _, ok := setA[t]; ok {
			shared++
		}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(shared) / float64(len(union))
}

// sequenceRatio is 2*M/T where M is the total length of the matching blocks
// found by recursive longest-common-substring matching and T the combined
// length, over runes.
func sequenceRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	return 2 * float64(matchLen(ra, rb)) / float64(total)
}

func matchLen(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	bestA, bestB, bestLen := 0, 0, 0
	// lengths[j] holds the common-suffix length ending at a[i-1], b[j-1].
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prevDiag := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prevDiag + 1
				if lengths[j] > bestLen {
					bestLen = lengths[j]
					bestA = i - bestLen
					bestB = j - bestLen
				}
			} else {
				lengths[j] = 0
			}
			prevDiag = cur
		}
	}
	if bestLen == 0 {
		return 0
	}

	return bestLen +
		matchLen(a[:bestA], b[:bestB]) +
		matchLen(a[bestA+bestLen:], b[bestB+bestLen:])
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
