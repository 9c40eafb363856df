//go:build cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"

	"orthoglobe/internal/buildinfo"
)

// WindowConfig sizes the desktop window.
type WindowConfig struct {
	HostConfig
	Title string
	// Zoom scales the window relative to the framebuffer.
	Zoom float64
}

// RunWindow starts a desktop window that displays the framebuffer and forwards
// mouse and touch input. It blocks until the window closes or step fails.
func RunWindow(cfg WindowConfig, newApp func(HAL) func() error) error {
	h := newHost(cfg.HostConfig)
	step := newApp(h)

	title := cfg.Title
	if title == "" {
		title = "orthoglobe"
	}
	zoom := cfg.Zoom
	if zoom <= 0 {
		zoom = 1
	}

	g := &hostGame{h: h, step: step, poller: &pointerPoller{p: h.ptr}}
	ebiten.SetWindowTitle(title + " (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(int(float64(h.fb.width)*zoom), int(float64(h.fb.height)*zoom))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	h.logger.WriteLineString("window open")
	err := ebiten.RunGame(g)
	h.logger.WriteLineString("window closed")
	return err
}

type hostGame struct {
	h       *hostHAL
	poller  *pointerPoller
	fbImg   *ebiten.Image
	scratch []byte
	shown   int
	step    func() error
}

func (g *hostGame) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.poller.poll(g.h.fb.width, g.h.fb.height)
	if g.step != nil {
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	if g.fbImg == nil {
		g.scratch = make([]byte, len(fb.buf))
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
		g.shown = -1
	}
	// Upload only when a new frame was presented.
	if n := fb.presents(); n != g.shown {
		fb.snapshot(g.scratch)
		g.fbImg.WritePixels(g.scratch)
		g.shown = n
	}
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.width, g.h.fb.height
}
