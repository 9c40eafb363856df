package geography

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orthoglobe/projection"
	"orthoglobe/raster"
)

const squareTopology = `{
  "type": "Topology",
  "transform": {"scale": [1, 1], "translate": [0, 0]},
  "objects": {
    "land": {"type": "GeometryCollection", "geometries": [
      {"type": "Polygon", "arcs": [[0, 1]]},
      {"type": "MultiPolygon", "arcs": [[[-2, -1]]]}
    ]}
  },
  "arcs": [
    [[0, 0], [10, 0], [0, 10]],
    [[10, 10], [-10, 0], [0, -10]]
  ]
}`

func TestDefaultRegistry(t *testing.T) {
	r, err := NewRegistry(DefaultMarkers())
	require.NoError(t, err)
	assert.Equal(t, 10, r.Len())

	m, ok := r.ByColor(raster.MustParseColor("red"))
	require.True(t, ok)
	assert.Equal(t, "Syria", m.Name)

	m, ok = r.ByName("Congo")
	require.True(t, ok)
	assert.Equal(t, raster.MustParseColor("magenta"), m.Color)

	_, ok = r.ByColor(raster.RGBA(0xFF, 0, 0, 0x80))
	assert.False(t, ok, "translucent pixels never match")
	_, ok = r.ByColor(raster.RGB(0x39, 0x87, 0xC9))
	assert.False(t, ok)

	ms := r.Markers()
	ms[0].Name = "changed"
	assert.Equal(t, "Syria", r.At(0).Name)
}

func TestRegistryRejectsDuplicateColors(t *testing.T) {
	_, err := NewRegistry([]Marker{
		{Name: "a", Color: raster.RGB(1, 2, 3)},
		{Name: "b", Color: raster.RGB(1, 2, 3)},
	})
	assert.ErrorIs(t, err, ErrDuplicateColor)
}

func TestRegistryRejectsReservedColors(t *testing.T) {
	ocean := raster.MustParseColor("#3987c9")
	_, err := NewRegistry([]Marker{{Name: "sea", Color: ocean}}, ocean)
	assert.ErrorIs(t, err, ErrReservedColor)

	_, err = NewRegistry(DefaultMarkers(), ocean, raster.RGB(0, 0, 0))
	assert.NoError(t, err)
}

func TestRegistryValidatesMarkers(t *testing.T) {
	cases := map[string]Marker{
		"empty name":  {Color: raster.RGB(1, 1, 1)},
		"longitude":   {Name: "x", Coord: projection.LonLat{Lon: 181}, Color: raster.RGB(1, 1, 1)},
		"latitude":    {Name: "x", Coord: projection.LonLat{Lat: -91}, Color: raster.RGB(1, 1, 1)},
		"translucent": {Name: "x", Color: raster.RGBA(1, 1, 1, 10)},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewRegistry([]Marker{m})
			assert.ErrorIs(t, err, ErrInvalidMarker)
		})
	}
}

func TestParseRegistryYAML(t *testing.T) {
	data := []byte(`
markers:
  - {name: Syria, lon: 38.9968, lat: 34.8021, color: red}
  - name: Lagoon
    lon: -10
    lat: 5
    color: "#123456"
`)
	r, err := ParseRegistry(data)
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())
	assert.Equal(t, projection.LonLat{Lon: -10, Lat: 5}, r.At(1).Coord)
	assert.Equal(t, raster.RGB(0x12, 0x34, 0x56), r.At(1).Color)

	_, err = ParseRegistry([]byte("markers:\n  - {name: x, color: notacolor}\n"))
	assert.ErrorIs(t, err, raster.ErrBadColor)

	path := filepath.Join(t.TempDir(), "markers.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	r, err = LoadRegistryFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Syria", r.At(0).Name)
}

func TestDecodeTopologyStitchesArcs(t *testing.T) {
	fc, err := DecodeCollection([]byte(squareTopology), "")
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	poly := fc.Features[0].Geometry
	require.True(t, poly.IsPolygon())
	assert.Equal(t, [][]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}, poly.Polygon[0])

	multi := fc.Features[1].Geometry
	require.True(t, multi.IsMultiPolygon())
	assert.Equal(t, [][]float64{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}, multi.MultiPolygon[0][0])
}

func TestDecodeTopologyDequantizes(t *testing.T) {
	doc := `{"type":"Topology","transform":{"scale":[0.5,2],"translate":[-5,1]},
	"objects":{"coast":{"type":"LineString","arcs":[0]}},
	"arcs":[[[2,3],[2,-1]]]}`
	topo, err := DecodeTopology([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"coast"}, topo.ObjectNames())

	fc, err := topo.Feature("coast")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{-4, 7}, {-3, 5}}, fc.Features[0].Geometry.LineString)

	_, err = topo.Feature("land")
	assert.ErrorIs(t, err, ErrUnknownObject)
}

func TestDecodeTopologyErrors(t *testing.T) {
	_, err := DecodeTopology([]byte(`{"type":"FeatureCollection"}`))
	assert.ErrorIs(t, err, ErrNotTopology)

	_, err = DecodeCollection([]byte(`{"type":"Topology","objects":{"land":{"type":"Polygon","arcs":[[3]]}},"arcs":[]}`), "land")
	assert.ErrorIs(t, err, ErrBadArcIndex)

	_, err = DecodeCollection([]byte(`{}`), "")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestDecodeCollectionAcceptsGeoJSON(t *testing.T) {
	fc, err := DecodeCollection([]byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`), "")
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	fc, err = DecodeCollection([]byte(`{"type":"FeatureCollection","features":[]}`), "")
	require.NoError(t, err)
	assert.Empty(t, fc.Features)
}

func TestLandFromCollection(t *testing.T) {
	fc, err := DecodeCollection([]byte(squareTopology), "land")
	require.NoError(t, err)
	fc.AddFeature(geojson.NewFeature(geojson.NewPointGeometry([]float64{1, 2})))
	fc.AddFeature(geojson.NewFeature(geojson.NewCollectionGeometry(
		geojson.NewPolygonGeometry([][][]float64{{{20, 20}, {30, 20}, {30, 30}, {20, 20}}}),
	)))

	land := LandFromCollection(Fine, fc)
	assert.Equal(t, Fine, land.Detail)
	require.Len(t, land.Polygons, 3)
	assert.Equal(t, projection.LonLat{Lon: 10, Lat: 0}, land.Polygons[0][0][1])
	assert.Equal(t, 14, land.Points())

	empty := LandFromCollection(Coarse, nil)
	assert.Empty(t, empty.Polygons)
}

func TestTopoSourceReadsFilesAndHTTP(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "land-110m.json")
	require.NoError(t, os.WriteFile(path, []byte(squareTopology), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/land-50m.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(squareTopology))
	}))
	defer srv.Close()

	src := TopoSource{Coarse: "file://" + path, Fine: srv.URL + "/land-50m.json"}
	set, err := LoadLand(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, set.Coarse.Polygons, 2)
	assert.Len(t, set.Fine.Polygons, 2)
	assert.Same(t, set.Coarse, set.For(Coarse))
	assert.Same(t, set.Fine, set.For(Fine))

	src.Fine = srv.URL + "/missing.json"
	_, err = LoadLand(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoadFailure)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, Fine, le.Detail)
}

func TestLoadLandFailsWhenEitherResolutionFails(t *testing.T) {
	fc, err := DecodeCollection([]byte(squareTopology), "")
	require.NoError(t, err)

	_, err = LoadLand(context.Background(), StaticSource{Fine: fc})
	assert.ErrorIs(t, err, ErrLoadFailure)
	assert.ErrorIs(t, err, ErrNoLocation)

	_, err = LoadLand(context.Background(), TopoSource{Coarse: "/nonexistent/coarse.json", Fine: "/nonexistent/fine.json"})
	assert.ErrorIs(t, err, ErrLoadFailure)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type countingSource struct {
	calls   atomic.Int32
	release chan struct{}
	fail    bool
}

func (s *countingSource) Load(ctx context.Context, d Detail) (*geojson.FeatureCollection, error) {
	s.calls.Add(1)
	<-s.release
	if s.fail {
		return nil, errors.New("boom")
	}
	return geojson.NewFeatureCollection(), nil
}

func TestCacheSharesConcurrentLoads(t *testing.T) {
	src := &countingSource{release: make(chan struct{})}
	c := NewCache(src)

	var wg sync.WaitGroup
	results := make([]*geojson.FeatureCollection, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fc, err := c.Load(context.Background(), Fine)
			assert.NoError(t, err)
			results[i] = fc
		}(i)
	}
	// Let the callers pile up on the in-flight call before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	for _, fc := range results {
		assert.Same(t, results[0], fc)
	}
	assert.LessOrEqual(t, src.calls.Load(), int32(8))

	before := src.calls.Load()
	fc, err := c.Load(context.Background(), Fine)
	require.NoError(t, err)
	assert.Same(t, results[0], fc)
	assert.Equal(t, before, src.calls.Load(), "cached result reused")
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	src := &countingSource{release: make(chan struct{}), fail: true}
	close(src.release)
	c := NewCache(src)

	_, err := c.Load(context.Background(), Coarse)
	require.Error(t, err)
	_, err = c.Load(context.Background(), Coarse)
	require.Error(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCacheHonoursCallerCancellation(t *testing.T) {
	src := &countingSource{release: make(chan struct{})}
	defer close(src.release)
	c := NewCache(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Load(ctx, Fine)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetailString(t *testing.T) {
	assert.Equal(t, "coarse", Coarse.String())
	assert.Equal(t, "fine", Fine.String())
	assert.Equal(t, "detail(7)", Detail(7).String())
}
