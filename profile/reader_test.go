package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheetSourceNext(t *testing.T) {
	src := &sheetSource{rows: [][]string{
		{"file", "enum"},
		{"", "", "activity", "4"},
	}}

	row, ok := src.Next()
	require.True(t, ok)
	assert.Equal(t, []string{"file", "enum"}, []string(row))

	row, ok = src.Next()
	require.True(t, ok)
	assert.Equal(t, []string{"", "", "activity", "4"}, []string(row))

	_, ok = src.Next()
	assert.False(t, ok)
}
