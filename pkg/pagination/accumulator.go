package pagination

import "github.com/Sternrassler/artsel/pkg/artwork"

// accumulator tracks how many ids a bulk run still needs. It is a value:
// take never mutates the receiver.
type accumulator struct {
	remaining int
	taken     int
}

func newAccumulator(n int) accumulator {
	return accumulator{remaining: n}
}

// take returns the ids to commit from records, in server order, and the
// accumulator after committing them.
func (a accumulator) take(records []artwork.Artwork) ([]artwork.ID, accumulator) {
	n := min(a.remaining, len(records))
	if n <= 0 {
		return nil, a
	}
	ids := artwork.IDsOf(records[:n])
	return ids, accumulator{remaining: a.remaining - n, taken: a.taken + n}
}

func (a accumulator) done() bool {
	return a.remaining <= 0
}
