package svgtree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100">
  <g inkscape:groupmode="layer" inkscape:label="" id="base">
    <rect x="0" y="0" width="10" height="10" qr-pixel="space"/>
  </g>
  <g inkscape:groupmode="layer" inkscape:label="Detailed" id="detailed">
    <circle cx="5" cy="5" r="1"/>
  </g>
</svg>`

func parseSample(t *testing.T) *Node {
	t.Helper()
	root, err := Parse(strings.NewReader(sampleSVG))
	require.NoError(t, err)
	require.NotNil(t, root)
	return root
}

func TestParseBuildsTreeWithChildren(t *testing.T) {
	root := parseSample(t)
	assert.Equal(t, "svg", root.XMLName.Local)
	assert.Len(t, root.Children, 2)
}

func TestGetAndSet(t *testing.T) {
	root := parseSample(t)
	w, ok := root.Get("width")
	require.True(t, ok)
	assert.Equal(t, "100", w)

	root.Set("width", "200")
	w, ok = root.Get("width")
	require.True(t, ok)
	assert.Equal(t, "200", w)

	root.Set("new-attr", "value")
	v, ok := root.Get("new-attr")
	require.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestWalkVisitsEveryNode(t *testing.T) {
	root := parseSample(t)
	count := 0
	root.Walk(func(*Node) { count++ })
	// svg + 2 groups + rect + circle
	assert.Equal(t, 5, count)
}

func TestCloneIsDeepAndIndependent(t *testing.T) {
	root := parseSample(t)
	clone := root.Clone()
	clone.Set("width", "999")

	w, _ := root.Get("width")
	cw, _ := clone.Get("width")
	assert.Equal(t, "100", w)
	assert.Equal(t, "999", cw)

	clone.Children[0].Children[0].Set("x", "42")
	ox, _ := root.Children[0].Children[0].Get("x")
	assert.Equal(t, "0", ox)
}

func TestSerializeRoundTripsAttributes(t *testing.T) {
	root := parseSample(t)
	out, err := root.SerializeToString()
	require.NoError(t, err)
	assert.Contains(t, out, `width="100"`)
	assert.Contains(t, out, "qr-pixel")
}
