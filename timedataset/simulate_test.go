package timedataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDraws(t *testing.T) {
	d1 := GenerateDraws(3, 5, 100, 0.5, 0.1, 7)
	d2 := GenerateDraws(3, 5, 100, 0.5, 0.1, 7)
	require.Len(t, d1, 3)
	require.Len(t, d1[0], 5)
	assert.Equal(t, d1, d2, "same seed is deterministic")
}
