package scoring

// DefaultThreshold is the minimum similarity for a fill-in-the-blank answer to count.
const DefaultThreshold = 85

// Similarity returns the Indel similarity of a and b on a 0-100 scale:
// 100 * (1 - indel/(len(a)+len(b))), where indel counts insertions and
// deletions only. Two empty strings are identical.
func Similarity(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 100
	}
	// indel = total - 2*lcs, so the ratio reduces to 2*lcs/total.
	return 200 * float64(lcsLength(ar, br)) / float64(total)
}

// Ratio is the similarity of the normalized forms of a and b.
func Ratio(a, b string) float64 {
	return Similarity(Normalize(a), Normalize(b))
}

// IsFuzzyCorrect reports whether userAnswer is close enough to correctAnswer.
func IsFuzzyCorrect(userAnswer, correctAnswer string, threshold float64) bool {
	return Ratio(userAnswer, correctAnswer) >= threshold
}

// lcsLength is the length of the longest common subsequence, single-row DP.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) > len(a) {
		a, b = b, a
	}
	row := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		diag := 0
		for j := 1; j <= len(b); j++ {
			up := row[j]
			switch {
			case a[i-1] == b[j-1]:
				row[j] = diag + 1
			case row[j-1] > row[j]:
				row[j] = row[j-1]
			}
			diag = up
		}
	}
	return row[len(b)]
}
