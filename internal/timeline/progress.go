package timeline

import (
	"math"
	"time"

	"github.com/devadigapratham/printeta/internal/printstate"
)

const (
	// MaxProgress caps events that do not end the timeline.
	MaxProgress = 90
	// MinInterval is the minimum spacing between neighbouring interior events.
	MinInterval = 4
)

// point is an event reduced to what progress assignment needs.
type point struct {
	typ printstate.State
	at  time.Time
}

func (p point) interior() bool {
	return p.typ != printstate.Queued && !p.typ.Ending()
}

// assignProgress maps each point, in order, onto 0..100 relative to the
// span between queuedAt and end.
//
// Completed and Canceled sit at 100. Queued keeps its raw position. Interior
// events are capped at MaxProgress and kept at least MinInterval after the
// previous event; when that pushes one past MaxProgress the tight run of
// interior events before it moves back one interval and it takes MaxProgress.
// A non-positive span puts every non-ending event at 0.
func assignProgress(points []point, queuedAt, end time.Time) []int {
	out := make([]int, 0, len(points))
	span := end.Sub(queuedAt)
	if span <= 0 {
		for _, p := range points {
			if p.typ.Ending() {
				out = append(out, 100)
			} else {
				out = append(out, 0)
			}
		}
		return out
	}

	previous := 0
	for i, p := range points {
		raw := rawProgress(p.at, queuedAt, span)
		var progress int
		switch {
		case p.typ.Ending():
			progress = 100
		case p.typ == printstate.Queued:
			progress = max(raw, previous)
		default:
			progress = max(raw, previous+MinInterval)
			if progress > MaxProgress {
				out = compact(out, points[:i], progress)
				progress = MaxProgress
			}
		}
		out = append(out, progress)
		previous = progress
	}
	return out
}

// compact returns a copy of assigned where every interior event that lines
// up with target, directly or through a chain of MinInterval steps, moves
// back by MinInterval. A moved event never drops below the one before it.
func compact(assigned []int, points []point, target int) []int {
	n := len(assigned)
	next := make([]int, n, n+1)
	copy(next, assigned)
	for k := n - 1; k >= 0; k-- {
		if !points[k].interior() {
			continue
		}
		if assigned[k]+MinInterval*(n-k) == target || assigned[k] == target {
			next[k] = assigned[k] - MinInterval
		}
	}
	for k := 1; k < n; k++ {
		if next[k] < next[k-1] {
			next[k] = next[k-1]
		}
	}
	return next
}

// rawProgress is the rounded percentage of span elapsed at t, clamped to
// 0..MaxProgress.
func rawProgress(t, queuedAt time.Time, span time.Duration) int {
	ratio := float64(t.Sub(queuedAt)) / float64(span) * 100
	ratio = math.Max(0, math.Min(ratio, MaxProgress))
	return int(math.Round(ratio))
}
