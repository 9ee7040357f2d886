package finder

import "fmt"

// Status line texts.
const (
	StatusEnterText = "Enter search text"
	StatusNoMatches = "No matches found"
)

// matchStatus returns "Match i of n" for the 0-indexed position i.
func matchStatus(i, n int) string {
	if n == 0 {
		return StatusNoMatches
	}
	if i < 0 {
		return fmt.Sprintf("%d matches", n)
	}
	return fmt.Sprintf("Match %d of %d", i+1, n)
}

func replacedStatus(n int) string {
	return fmt.Sprintf("Replaced %d occurrence(s)", n)
}
