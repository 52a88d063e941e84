package tables

import (
	"strconv"
	"strings"
)

// Placeholder is used for missing or blank column labels.
const Placeholder = "Unnamed"

// NormalizeHeaders makes a header row non-empty and unique. Blank labels become
// "Unnamed"; repeated labels get a numeric suffix ("A", "A_1", "A_2").
func NormalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	counts := make(map[string]int, len(headers))
	used := make(map[string]bool, len(headers))

	for i, h := range headers {
		label := strings.TrimSpace(h)
		if label == "" {
			label = Placeholder
		} else {
			label = h
		}

		n, seen := counts[label]
		if !seen {
			counts[label] = 0
			if !used[label] {
				out[i] = label
				used[label] = true
				continue
			}
		}

		// suffix until the name is free; a literal "A_1" earlier in the row wins
		var name string
		for {
			n++
			name = label + "_" + strconv.Itoa(n)
			if !used[name] {
				break
			}
		}
		counts[label] = n
		out[i] = name
		used[name] = true
	}
	return out
}
