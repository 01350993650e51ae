package prosumer

import (
	"hash/fnv"
	"math/rand/v2"
)

var commonStartHours = []int{7, 8, 9, 17, 18, 19}
var commonDurations = []int{6, 7, 8}

// Session is the daily charging window of a station. A session may wrap
// past midnight.
type Session struct {
	StartHour     int
	DurationHours int
}

// Active reports whether hour falls inside the session.
func (s Session) Active(hour int) bool {
	if s.DurationHours <= 0 {
		return false
	}
	if s.DurationHours >= 24 {
		return true
	}
	return ((hour-s.StartHour)%24+24)%24 < s.DurationHours
}

// EndHour returns the first hour after the session.
func (s Session) EndHour() int { return (s.StartHour + s.DurationHours) % 24 }

// RandomSession draws a session favouring commuter hours: the start hour is
// one of the common hours with probability 0.7 and the duration is 6 to 8
// hours with probability 0.8.
func RandomSession(r *rand.Rand) Session {
	var s Session
	if r.Float64() < 0.7 {
		s.StartHour = commonStartHours[r.IntN(len(commonStartHours))]
	} else {
		s.StartHour = r.IntN(24)
	}
	if r.Float64() < 0.8 {
		s.DurationHours = commonDurations[r.IntN(len(commonDurations))]
	} else {
		s.DurationHours = 1 + r.IntN(23)
	}
	return s
}

// NewRand returns a generator seeded from the run seed and an address, so
// every station draws independently and reproducibly.
func NewRand(seed int64, address string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(address))
	return rand.New(rand.NewPCG(uint64(seed), h.Sum64()))
}
