//go:build !cgo

package hal

import "errors"

type WindowConfig struct {
	HostConfig
	Title string
	Zoom  float64
}

func RunWindow(_ WindowConfig, _ func(h HAL) func() error) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")
}
