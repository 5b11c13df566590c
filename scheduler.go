package simlidar

// intervalEpsilonFrac is the fraction of the interval used as a margin below
// the nominal threshold, so accumulated floating-point rounding error cannot
// cause systematic interval-skipping.
const intervalEpsilonFrac = 1e-6

// captureScheduler decides, once per host simulation tick, whether a capture
// is due. It is a fixed-interval accumulator decoupled from the host's own
// tick rate: the host calls advance with its frame delta and the scheduler
// fires whenever a full interval has elapsed.
type captureScheduler struct {
	// intervalSec is zero when the configured rate is zero, which disables
	// automatic capture entirely.
	intervalSec float64
	accumSec    float64
}

func newCaptureScheduler(rateHz float64) *captureScheduler {
	s := &captureScheduler{}
	if rateHz > 0 {
		s.intervalSec = 1 / rateHz
	}
	return s
}

// advance adds the elapsed tick time and reports whether a capture is due. It
// fires at most once per call regardless of how far the accumulator has
// drifted: on firing, one interval is consumed and any backlog beyond a full
// interval is dropped rather than burst into multiple captures.
func (s *captureScheduler) advance(deltaSec float64) bool {
	if s.intervalSec == 0 {
		return false
	}
	s.accumSec += deltaSec
	if s.accumSec < s.intervalSec-s.intervalSec*intervalEpsilonFrac {
		return false
	}
	s.accumSec -= s.intervalSec
	if s.accumSec >= s.intervalSec {
		s.accumSec = 0
	}
	return true
}
