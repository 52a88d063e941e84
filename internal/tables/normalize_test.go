package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHeaders(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"duplicates", []string{"A", "A", "A"}, []string{"A", "A_1", "A_2"}},
		{"blank and missing", []string{"", "  ", "X"}, []string{"Unnamed", "Unnamed_1", "X"}},
		{"already unique", []string{"Roll", "Name", "Score"}, []string{"Roll", "Name", "Score"}},
		{"suffix collision", []string{"A", "A_1", "A"}, []string{"A", "A_1", "A_2"}},
		{"literal after generated", []string{"A", "A", "A_1"}, []string{"A", "A_1", "A_1_1"}},
		{"interleaved", []string{"B", "A", "B", "A"}, []string{"B", "A", "B_1", "A_1"}},
		{"empty", []string{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHeaders(tt.in))
		})
	}
}

func TestNormalizeHeadersUniqueAndLengthPreserving(t *testing.T) {
	inputs := [][]string{
		{"", "", "", ""},
		{"x", "x_1", "x", "x_1", "x"},
		{"Unnamed", "", "Unnamed_1", ""},
		{"a", "b", "a", "", "b", " "},
	}
	for _, in := range inputs {
		out := NormalizeHeaders(in)
		assert.Len(t, out, len(in))

		seen := make(map[string]bool)
		for _, h := range out {
			assert.NotEmpty(t, h)
			assert.False(t, seen[h], "duplicate label %q in %v", h, out)
			seen[h] = true
		}

		// normalizing a normalized row changes nothing
		assert.Equal(t, out, NormalizeHeaders(out))
	}
}
