package grading

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Qualitative letters, best first.
const (
	LetterA = "A"
	LetterB = "B"
	LetterC = "C"
	LetterD = "D"
)

var letterRank = map[string]int{LetterA: 0, LetterB: 1, LetterC: 2, LetterD: 3}

// LetterFor maps a 0-20 score to its letter. A missing score yields "".
// The score is rounded half up before banding, so 18.5 is an A.
func LetterFor(score *float64) string {
	if !valid(score) {
		return ""
	}
	switch n := RoundHalfUp(*score); {
	case n >= 19:
		return LetterA
	case n >= 15:
		return LetterB
	case n >= 11:
		return LetterC
	default:
		return LetterD
	}
}

// FinalLetter aggregates the three period letters into the final letter.
func FinalLetter(l1, l2, l3 string) string {
	letters := []string{l1, l2, l3}
	for _, l := range letters {
		if _, ok := letterRank[l]; !ok {
			return ""
		}
	}
	if l1 == l2 && l2 == l3 {
		return l1
	}

	sorted := append([]string(nil), letters...)
	sort.Strings(sorted)
	if strings.Join(sorted, "") == "BBD" {
		return LetterC
	}

	counts := make(map[string]int, 3)
	for _, l := range letters {
		counts[l]++
	}
	for _, l := range []string{LetterA, LetterB, LetterC, LetterD} {
		if counts[l] == 2 {
			return l
		}
	}

	// all distinct: the middle one by rank
	ranks := []int{letterRank[l1], letterRank[l2], letterRank[l3]}
	sort.Ints(ranks)
	return []string{LetterA, LetterB, LetterC, LetterD}[ranks[1]]
}

var appreciativeNames = map[string]struct{}{
	"orientacion y convivencia":                           {},
	"participacion en grupos de recreacion":               {},
	"orientacion":                                         {},
	"convivencia y participacion en grupos de recreacion": {},
}

// IsAppreciativeName reports whether a subject name is one of the subjects
// graded with letters. It ignores case, accents and repeated spaces.
func IsAppreciativeName(name string) bool {
	_, ok := appreciativeNames[normalizeName(name)]
	return ok
}

func normalizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}
