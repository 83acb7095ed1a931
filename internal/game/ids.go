package game

import "fmt"

// idSource hands out stable entity ids, one monotonic counter per kind. It
// is owned by a single Game instance, so concurrent games (and tests) never
// contaminate each other's id spaces.
type idSource struct {
	counters map[string]uint64
}

func newIDSource() *idSource {
	return &idSource{counters: make(map[string]uint64)}
}

// Next returns the next id for the given kind, e.g. "seeker@3". Ids are
// stable for the lifetime of a game; goals keep theirs across respawns.
func (s *idSource) Next(kind string) string {
	s.counters[kind]++
	return fmt.Sprintf("%s@%d", kind, s.counters[kind])
}
