package qrpixel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmapHasAtLeastOneDarkModule(t *testing.T) {
	bitmap, err := Bitmap("space:SimpleRocket:d_1")
	require.NoError(t, err)
	require.NotEmpty(t, bitmap)

	found := false
	for _, row := range bitmap {
		for _, dark := range row {
			if dark {
				found = true
			}
		}
	}
	assert.True(t, found)
}

func TestBitmapIsSquare(t *testing.T) {
	bitmap, err := Bitmap("foo:bar")
	require.NoError(t, err)
	for _, row := range bitmap {
		assert.Len(t, row, len(bitmap))
	}
}

func TestPathDataProducesMoveCommandsWithinBounds(t *testing.T) {
	d, err := PathData("foo:bar", 10, 20, 100, 100)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d, "M"))
	assert.Contains(t, d, "h")
	assert.Contains(t, d, "v")
}

func TestPathDataEmptyPayloadStillValid(t *testing.T) {
	d, err := PathData("a:b", 0, 0, 10, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, d)
}

func TestPathDataDeterministic(t *testing.T) {
	a, err := PathData("space:SimpleRocket:d_1", 5, 5, 50, 50)
	require.NoError(t, err)
	b, err := PathData("space:SimpleRocket:d_1", 5, 5, 50, 50)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
