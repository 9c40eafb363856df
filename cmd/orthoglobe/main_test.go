package main

import (
	"bytes"
	"image/png"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func landFile(t *testing.T) string {
	t.Helper()
	fc := geojson.NewFeatureCollection()
	fc.AddFeature(geojson.NewFeature(geojson.NewPolygonGeometry([][][]float64{
		{{20, 20}, {50, 20}, {50, 45}, {20, 45}, {20, 20}},
	})))
	data, err := fc.MarshalJSON()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "land.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "orthoglobe dev"), out)
}

// syriaArgs centers Syria on a 400x300 surface over a single square of land.
func syriaArgs(t *testing.T) []string {
	t.Helper()
	land := landFile(t)
	return []string{
		"--width", "400", "--height", "300", "--scale", "120",
		"--translate-x", "200", "--translate-y", "150",
		"--lambda", "-38.9968", "--phi", "-34.8021",
		"--land-coarse", land, "--land-fine", land,
		"--log-level", "error",
	}
}

func TestHitAndRender(t *testing.T) {
	common := syriaArgs(t)

	out, err := execute(t, append([]string{"hit", "200", "150"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "Syria\n", out)

	out, err = execute(t, append([]string{"hit", "2", "2"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "none\n", out)

	png := filepath.Join(t.TempDir(), "globe.png")
	_, err = execute(t, append([]string{"render", "-o", png, "--script", "hover 200,150"}, common...)...)
	require.NoError(t, err)
	info, err := os.Stat(png)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestHitRejectsBadCoordinates(t *testing.T) {
	_, err := execute(t, "hit", "x", "1")
	assert.Error(t, err)
}

func TestRunHeadlessFailsWhenMetricsAddrBusy(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	t.Cleanup(func() { _ = rootCmd.PersistentFlags().Set("metrics-addr", "") })

	args := []string{"run", "--headless", "--hz", "1000", "--ticks", "500",
		"--metrics-addr", ln.Addr().String()}
	_, err = execute(t, append(args, syriaArgs(t)...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics server")
}

func TestRunHeadlessAppliesScriptedDrag(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "run.png")
	t.Cleanup(func() {
		_ = runCmd.Flags().Set("snapshot", "")
		_ = runCmd.Flags().Set("script", "")
	})

	args := []string{"run", "--headless", "--hz", "1000", "--ticks", "5",
		"--script", "start 200,150; move 230,150; end", "--snapshot", snap}
	_, err := execute(t, append(args, syriaArgs(t)...)...)
	require.NoError(t, err)

	f, err := os.Open(snap)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	// Syria follows the pointer off the center.
	r, g, b, _ := img.At(200, 150).RGBA()
	assert.NotEqual(t, []uint32{255, 0, 0}, []uint32{r >> 8, g >> 8, b >> 8})
}
