package timeline

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/devadigapratham/printeta/internal/printstate"
)

var t0 = time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC)

// at builds a point the given number of minutes after t0.
func at(typ printstate.State, minutes float64) point {
	return point{typ: typ, at: t0.Add(time.Duration(minutes * float64(time.Minute)))}
}

// TestAssignProgressSpacesCloseEvents pushes neighbours MinInterval apart.
func TestAssignProgressSpacesCloseEvents(t *testing.T) {
	points := []point{
		at(printstate.Queued, 0),
		at(printstate.Printing, 0.5),
		at(printstate.Failed, 1),
		at(printstate.Printing, 50),
		at(printstate.Completed, 100),
	}
	got := assignProgress(points, t0, t0.Add(100*time.Minute))
	want := []int{0, 4, 8, 50, 100}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("progress = %v, want %v", got, want)
	}
}

// TestAssignProgressReachingMaxDoesNotCompact pins the > MaxProgress trigger.
func TestAssignProgressReachingMaxDoesNotCompact(t *testing.T) {
	points := []point{
		at(printstate.Queued, 0),
		at(printstate.Printing, 86),
		at(printstate.Failed, 87),
	}
	got := assignProgress(points, t0, t0.Add(100*time.Minute))
	want := []int{0, 86, 90}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("progress = %v, want %v", got, want)
	}
}

// TestAssignProgressCompactsChain moves the tight run back one interval.
func TestAssignProgressCompactsChain(t *testing.T) {
	points := []point{
		at(printstate.Queued, 0),
		at(printstate.Printing, 86),
		at(printstate.Failed, 87),
		at(printstate.Printing, 88),
		at(printstate.Completed, 100),
	}
	got := assignProgress(points, t0, t0.Add(100*time.Minute))
	want := []int{0, 82, 86, 90, 100}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("progress = %v, want %v", got, want)
	}
}

// TestAssignProgressCompactionSkipsDistantEvents leaves non-colliding events alone.
func TestAssignProgressCompactionSkipsDistantEvents(t *testing.T) {
	points := []point{
		at(printstate.Queued, 0),
		at(printstate.Printing, 50),
		at(printstate.Failed, 89),
		at(printstate.Printing, 89.5),
	}
	got := assignProgress(points, t0, t0.Add(100*time.Minute))
	want := []int{0, 50, 85, 90}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("progress = %v, want %v", got, want)
	}
}

// TestAssignProgressRepeatedCompactionStaysOrdered checks a second squeeze.
func TestAssignProgressRepeatedCompactionStaysOrdered(t *testing.T) {
	points := []point{
		at(printstate.Queued, 0),
		at(printstate.Printing, 50),
		at(printstate.Failed, 89),
		at(printstate.Printing, 89.5),
		at(printstate.Failed, 89.6),
		at(printstate.Printing, 89.7),
	}
	got := assignProgress(points, t0, t0.Add(100*time.Minute))
	assertNonDecreasing(t, got)
	if got[len(got)-1] != MaxProgress {
		t.Fatalf("last interior = %d, want %d", got[len(got)-1], MaxProgress)
	}
}

// TestAssignProgressZeroSpan falls back to zero for non-ending events.
func TestAssignProgressZeroSpan(t *testing.T) {
	points := []point{
		at(printstate.Queued, 0),
		at(printstate.Printing, 0),
		at(printstate.Canceled, 0),
	}
	got := assignProgress(points, t0, t0)
	want := []int{0, 0, 100}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("progress = %v, want %v", got, want)
	}
}

// TestAssignProgressRandomInputsNonDecreasing checks ordering over many inputs.
func TestAssignProgressRandomInputsNonDecreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	types := []printstate.State{printstate.Printing, printstate.Failed}

	for run := 0; run < 500; run++ {
		span := 10 + rng.Float64()*200
		points := []point{at(printstate.Queued, 0)}
		cursor := 0.0
		n := 1 + rng.Intn(12)
		for i := 0; i < n; i++ {
			cursor += rng.Float64() * (span - cursor) * 0.5
			points = append(points, at(types[i%2], cursor))
		}
		points = append(points, at(printstate.Completed, span))

		end := t0.Add(time.Duration(span * float64(time.Minute)))
		got := assignProgress(points, t0, end)
		assertNonDecreasing(t, got)
		if got[len(got)-1] != 100 {
			t.Fatalf("run %d: completion = %d, want 100", run, got[len(got)-1])
		}
		for i, p := range points {
			if p.interior() && got[i] > MaxProgress {
				t.Fatalf("run %d: interior progress %d above max in %v", run, got[i], got)
			}
		}
	}
}

func assertNonDecreasing(t *testing.T, progress []int) {
	t.Helper()
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Fatalf("progress decreases at %d: %v", i, progress)
		}
	}
}
