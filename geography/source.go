package geography

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	geojson "github.com/paulmach/go.geojson"
	"golang.org/x/sync/singleflight"
)

// maxDocumentSize bounds a fetched geography document.
const maxDocumentSize = 64 << 20

var ErrNoLocation = errors.New("no location configured")

// Source produces the landmass feature collection for a resolution.
type Source interface {
	Load(ctx context.Context, d Detail) (*geojson.FeatureCollection, error)
}

// Fetcher retrieves a raw document from a location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// HTTPFetcher fetches http and https URLs.
type HTTPFetcher struct {
	Client *http.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
}

// FileFetcher reads local files. A file:// prefix is accepted.
type FileFetcher struct{}

func (FileFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(strings.TrimPrefix(path, "file://"))
}

// SchemeFetcher dispatches on the location's scheme.
type SchemeFetcher struct {
	HTTP HTTPFetcher
	File FileFetcher
}

func (f SchemeFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return f.HTTP.Fetch(ctx, location)
	}
	return f.File.Fetch(ctx, location)
}

// TopoSource loads TopoJSON or GeoJSON documents, one location per resolution.
type TopoSource struct {
	Coarse string
	Fine   string
	// Object names the topology object to convert. Empty means "land".
	Object  string
	Fetcher Fetcher
}

func (s TopoSource) Load(ctx context.Context, d Detail) (*geojson.FeatureCollection, error) {
	loc := s.Fine
	if d == Coarse {
		loc = s.Coarse
	}
	if loc == "" {
		return nil, fmt.Errorf("%s: %w", d, ErrNoLocation)
	}
	fetcher := s.Fetcher
	if fetcher == nil {
		fetcher = SchemeFetcher{}
	}
	data, err := fetcher.Fetch(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", loc, err)
	}
	fc, err := DecodeCollection(data, s.Object)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", loc, err)
	}
	return fc, nil
}

// StaticSource serves collections already in memory.
type StaticSource map[Detail]*geojson.FeatureCollection

func (s StaticSource) Load(ctx context.Context, d Detail) (*geojson.FeatureCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fc, ok := s[d]
	if !ok {
		return nil, fmt.Errorf("%s: %w", d, ErrNoLocation)
	}
	return fc, nil
}

// Cache memoizes successful loads of an underlying source. Concurrent loads of the
// same resolution share one call; failures are not cached.
type Cache struct {
	src   Source
	group singleflight.Group

	mu   sync.Mutex
	done map[Detail]*geojson.FeatureCollection
}

func NewCache(src Source) *Cache {
	return &Cache{src: src, done: make(map[Detail]*geojson.FeatureCollection)}
}

func (c *Cache) Load(ctx context.Context, d Detail) (*geojson.FeatureCollection, error) {
	c.mu.Lock()
	fc, ok := c.done[d]
	c.mu.Unlock()
	if ok {
		return fc, nil
	}

	ch := c.group.DoChan(d.String(), func() (interface{}, error) {
		// Detached from the first caller so a cancelled caller does not fail
		// the others sharing this call.
		fc, err := c.src.Load(context.WithoutCancel(ctx), d)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.done[d] = fc
		c.mu.Unlock()
		return fc, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*geojson.FeatureCollection), nil
	}
}
