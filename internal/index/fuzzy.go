package index

import "github.com/hbollon/go-edlib"

// edlibSimilarity wraps go-edlib's Jaro-Winkler similarity (0..1,
// higher is more similar), the same algorithm and library the
// teacher's internal/semantic/fuzzy_matcher.go uses for fuzzy
// identifier matching, applied here to rank completion candidates.
func edlibSimilarity(a, b string) (float64, error) {
	if a == b {
		return 1.0, nil
	}
	if a == "" || b == "" {
		return 0.0, nil
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0, err
	}
	return float64(score), nil
}
