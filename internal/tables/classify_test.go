package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPage(t *testing.T) {
	raw := []RawTable{
		{{"Roll", "Name", "Score"}, {"101", "Alice", "90"}, {"102", "Bob", "85"}},
		{{"only a header"}},
		{},
		{{"Name", "Name"}, {"x", "y"}},
	}

	res := ClassifyPage(3, raw, true)
	assert.Equal(t, TextTables, res.Kind)
	assert.False(t, res.NeedsOCR())
	require.Len(t, res.Tables, 2)

	first := res.Tables[0]
	assert.Equal(t, []string{"Roll", "Name", "Score"}, first.Header)
	assert.Equal(t, [][]string{{"101", "Alice", "90"}, {"102", "Bob", "85"}}, first.Rows)
	assert.Equal(t, 3, first.Page)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, SourceText, first.Source)

	second := res.Tables[1]
	assert.Equal(t, []string{"Name", "Name_1"}, second.Header)
	assert.Equal(t, 1, second.Index)
}

func TestClassifyPageNoTables(t *testing.T) {
	res := ClassifyPage(0, []RawTable{{{"header only"}}}, true)
	assert.Equal(t, NoTables, res.Kind)
	assert.True(t, res.NeedsOCR())
	assert.True(t, res.HasText)
	assert.Empty(t, res.Tables)

	res = ClassifyPage(1, nil, false)
	assert.Equal(t, NoTables, res.Kind)
	assert.False(t, res.HasText)
}

func TestClassifyPageWidensHeader(t *testing.T) {
	raw := []RawTable{{{"A", "B"}, {"1", "2", "3"}, {"4"}}}

	res := ClassifyPage(0, raw, true)
	require.Len(t, res.Tables, 1)
	assert.Equal(t, []string{"A", "B", "Unnamed"}, res.Tables[0].Header)
	assert.Equal(t, [][]string{{"1", "2", "3"}, {"4"}}, res.Tables[0].Rows)
}

func TestNotAttemptedNeedsOCR(t *testing.T) {
	assert.True(t, PageResult{Kind: NotAttempted}.NeedsOCR())
}
