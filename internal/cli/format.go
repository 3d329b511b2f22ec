package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"kaizen/internal/infrastructure/errors"
	"kaizen/internal/quit"
	"kaizen/internal/stats"
	"kaizen/internal/types"
)

type palette struct {
	title *color.Color
	label *color.Color
	good  *color.Color
	warn  *color.Color
	bad   *color.Color
	muted *color.Color
}

// newPalette creates per-invocation colors. Disabling them here leaves
// the color package globals untouched.
func newPalette(disabled bool) palette {
	p := palette{
		title: color.New(color.FgCyan, color.Bold),
		label: color.New(color.FgYellow),
		good:  color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		bad:   color.New(color.FgRed),
		muted: color.New(color.FgHiBlack),
	}
	if disabled {
		for _, c := range []*color.Color{p.title, p.label, p.good, p.warn, p.bad, p.muted} {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) grade(g stats.Grade) string {
	switch g {
	case stats.GradeA, stats.GradeB:
		return p.good.Sprint(string(g))
	case stats.GradeC:
		return p.warn.Sprint(string(g))
	default:
		return p.bad.Sprint(string(g))
	}
}

func (p palette) status(s stats.Status) string {
	if s == stats.StatusOnTrack {
		return p.good.Sprint("on track")
	}
	return p.bad.Sprint("off track")
}

func (p palette) cell(c quit.Cell) string {
	if c == quit.CellRelapse {
		return p.bad.Sprint("■")
	}
	return p.good.Sprint("■")
}

// progressBar renders fraction (0..1) as a fixed-width bar
func progressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * float64(width))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// resolveHabit finds a habit by exact id, unique id prefix or
// case-insensitive name
func resolveHabit(habits []types.Habit, ref string) (types.Habit, error) {
	ref = strings.TrimSpace(ref)
	for _, h := range habits {
		if h.ID == ref {
			return h, nil
		}
	}

	var matches []types.Habit
	for _, h := range habits {
		if strings.HasPrefix(h.ID, ref) || strings.EqualFold(h.Name, ref) {
			matches = append(matches, h)
		}
	}

	switch len(matches) {
	case 0:
		return types.Habit{}, errors.HandleNotFound("resolve", "habit", ref)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, h := range matches {
			names[i] = fmt.Sprintf("%s (%s)", h.Name, shortID(h.ID))
		}
		return types.Habit{}, errors.HandleValidationError("resolve", "habit",
			fmt.Errorf("%q matches %d habits: %s", ref, len(matches), strings.Join(names, ", ")))
	}
}
