package hal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"

	"orthoglobe/drag"
)

// Script is a sequence of pointer inputs, one per headless tick. A nil entry
// is a tick with no input.
type Script []*PointerEvent

// ParseScript reads a pointer script. Steps are separated by newlines or
// semicolons; each step is a verb followed by zero or more "x,y" points:
//
//	start 400,300
//	move 420,300
//	move 300,300 500,300
//	end
//	hover 520,600
//	wait
//
// Blank steps and lines starting with '#' are skipped.
func ParseScript(src string) (Script, error) {
	var out Script
	steps := strings.FieldsFunc(src, func(r rune) bool { return r == '\n' || r == ';' })
	for n, step := range steps {
		fields := strings.Fields(step)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		pts, err := parsePoints(fields[1:])
		if err != nil {
			return nil, fmt.Errorf("script step %d %q: %w", n+1, strings.TrimSpace(step), err)
		}
		verb := strings.ToLower(fields[0])
		switch verb {
		case "wait":
			out = append(out, nil)
			continue
		case "hover":
			if len(pts) != 1 {
				return nil, fmt.Errorf("script step %d: hover takes one point", n+1)
			}
			out = append(out, &PointerEvent{Hover: true, At: pts[0]})
			continue
		}

		phase, ok := scriptPhases[verb]
		if !ok {
			return nil, fmt.Errorf("script step %d: unknown verb %q", n+1, fields[0])
		}
		if (phase == drag.Start || phase == drag.Move) && len(pts) == 0 {
			return nil, fmt.Errorf("script step %d: %s needs at least one point", n+1, verb)
		}
		ev := gesture(phase, pts)
		out = append(out, &ev)
	}
	return out, nil
}

var scriptPhases = map[string]drag.Phase{
	"start":  drag.Start,
	"move":   drag.Move,
	"end":    drag.End,
	"cancel": drag.Cancel,
}

func parsePoints(fields []string) ([]r2.Point, error) {
	var pts []r2.Point
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return nil, fmt.Errorf("point %q is not x,y", f)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", f, err)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", f, err)
		}
		pts = append(pts, r2.Point{X: x, Y: y})
	}
	return pts, nil
}
