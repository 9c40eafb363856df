package hal

import "go.uber.org/zap"

// HostConfig sizes the host framebuffer and names the logger HAL lines go to.
type HostConfig struct {
	Width  int
	Height int
	Logger *zap.Logger
}

type hostHAL struct {
	logger *zapLogger
	fb     *hostFramebuffer
	ptr    *hostPointer
}

// New returns a host HAL implementation with a framebuffer of the configured
// size. Its pointer only delivers events fed by a window or a script.
func New(cfg HostConfig) HAL {
	return newHost(cfg)
}

func newHost(cfg HostConfig) *hostHAL {
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return &hostHAL{
		logger: &zapLogger{l: l.Named("hal")},
		fb:     newHostFramebuffer(cfg.Width, cfg.Height),
		ptr:    newHostPointer(),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Input() Input     { return hostInput{ptr: h.ptr} }

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostInput struct {
	ptr *hostPointer
}

func (in hostInput) Pointer() Pointer { return in.ptr }

// zapLogger writes each line as one info entry.
type zapLogger struct {
	l *zap.Logger
}

func (z *zapLogger) WriteLineString(s string) { z.l.Info(s) }
func (z *zapLogger) WriteLineBytes(b []byte)  { z.l.Info(string(b)) }
