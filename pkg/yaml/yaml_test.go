package yaml

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPatch(t *testing.T) {
	b := []byte(`# prefix`)

	b, err := Patch(b, "resolution", "HD720", "zed")
	require.Nil(t, err)

	require.Equal(t, `# prefix
zed:
  resolution: HD720
`, string(b))

	b, err = Patch(b, "controls", map[string]int{"brightness": 4, "gamma": 5}, "zed")
	require.Nil(t, err)

	require.Equal(t, `# prefix
zed:
  resolution: HD720
  controls:
    brightness: 4
    gamma: 5
`, string(b))

	b, err = Patch(b, "resolution", "VGA", "zed")
	require.Nil(t, err)

	require.Equal(t, `# prefix
zed:
  resolution: VGA
  controls:
    brightness: 4
    gamma: 5
`, string(b))

	b, err = Patch(b, "controls", map[string]int{"brightness": 8}, "zed")
	require.Nil(t, err)

	require.Equal(t, `# prefix
zed:
  resolution: VGA
  controls:
    brightness: 8
`, string(b))

	b, err = Patch(b, "controls", nil, "zed")
	require.Nil(t, err)

	require.Equal(t, `# prefix
zed:
  resolution: VGA
`, string(b))
}

func TestPatchNested(t *testing.T) {
	b := []byte(`zed:
  resolution: HD720
  controls:
    brightness: 4
api:
  listen: ":1984"
`)

	b, err := Patch(b, "led", false, "zed")
	require.Nil(t, err)

	b, err = Patch(b, "contrast", 6, "zed", "controls")
	require.Nil(t, err)

	require.Equal(t, `zed:
  resolution: HD720
  controls:
    brightness: 4
    contrast: 6
  led: false
api:
  listen: ":1984"
`, string(b))

	// value with the same text as a key is not a key
	b, err = Patch([]byte("zed:\n  name: led\n"), "led", true, "zed")
	require.Nil(t, err)
	require.Equal(t, "zed:\n  name: led\n  led: true\n", string(b))

	// missing mappings are created, nothing to remove is not an error
	b, err = Patch(b, "x", 1, "mdns", "service")
	require.Nil(t, err)
	require.Equal(t, "zed:\n  name: led\n  led: true\nmdns:\n  service:\n    x: 1\n", string(b))

	b2, err := Patch(b, "y", nil, "api")
	require.Nil(t, err)
	require.Equal(t, b, b2)

	_, err = Patch([]byte("- a\n- b\n"), "x", 1)
	require.ErrorIs(t, err, ErrNotMapping)
}
