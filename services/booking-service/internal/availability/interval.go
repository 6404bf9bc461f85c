package availability

import (
	"sort"
	"time"
)

// Interval is half-open: [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps is false for intervals that merely touch.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

func (i Interval) Contains(o Interval) bool {
	return !o.Start.Before(i.Start) && !o.End.After(i.End)
}

func (i Interval) Equal(o Interval) bool {
	return i.Start.Equal(o.Start) && i.End.Equal(o.End)
}

func overlapsAny(tile Interval, busy []Interval) bool {
	for _, b := range busy {
		if tile.Overlaps(b) {
			return true
		}
	}
	return false
}

type boundary struct {
	at      time.Time
	open    int
	blocked int
}

// Coverage returns the maximal ranges covered by at least one open interval and
// no blocked interval, ordered by start.
func Coverage(open, blocked []Interval) []Interval {
	edges := make([]boundary, 0, 2*(len(open)+len(blocked)))
	for _, o := range open {
		if o.Valid() {
			edges = append(edges, boundary{at: o.Start, open: 1}, boundary{at: o.End, open: -1})
		}
	}
	for _, b := range blocked {
		if b.Valid() {
			edges = append(edges, boundary{at: b.Start, blocked: 1}, boundary{at: b.End, blocked: -1})
		}
	}
	sort.Slice(edges, func(a, b int) bool { return edges[a].at.Before(edges[b].at) })

	var (
		out                 []Interval
		openDepth, blkDepth int
		start               time.Time
		covered             bool
	)
	for i := 0; i < len(edges); {
		at := edges[i].at
		for ; i < len(edges) && edges[i].at.Equal(at); i++ {
			openDepth += edges[i].open
			blkDepth += edges[i].blocked
		}
		now := openDepth > 0 && blkDepth == 0
		switch {
		case now && !covered:
			start = at
		case !now && covered:
			out = append(out, Interval{Start: start, End: at})
		}
		covered = now
	}
	return out
}
