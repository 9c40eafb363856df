package geography

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrLoadFailure matches every error returned by LoadLand.
var ErrLoadFailure = errors.New("geography load failed")

// LoadError reports which resolution failed to load.
type LoadError struct {
	Detail Detail
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s land: %v", e.Detail, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoadFailure }

// LoadLand loads both resolutions concurrently. Either failing fails the whole
// load and cancels the other.
func LoadLand(ctx context.Context, src Source) (LandSet, error) {
	g, ctx := errgroup.WithContext(ctx)
	var set LandSet
	for _, d := range []Detail{Coarse, Fine} {
		d := d
		g.Go(func() error {
			fc, err := src.Load(ctx, d)
			if err != nil {
				return &LoadError{Detail: d, Err: err}
			}
			land := LandFromCollection(d, fc)
			if d == Coarse {
				set.Coarse = land
			} else {
				set.Fine = land
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return LandSet{}, err
	}
	return set, nil
}
