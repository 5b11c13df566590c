package raycast

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/rdk/logging"
	goutils "go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"github.com/robosim-modules/sim-lidar/capture"
	"github.com/robosim-modules/sim-lidar/lidarmodel"
)

var (
	// ErrInvalidRayLayout is returned by NewSession when the configured beam
	// layout cannot be used to construct a tracing session.
	ErrInvalidRayLayout = errors.New("invalid ray layout")
	// ErrDoubleDispatch is returned when a second dispatch is issued before
	// the previous one was synchronized. This is a usage error in the caller,
	// not a recoverable runtime condition.
	ErrDoubleDispatch = errors.New("dispatch issued before previous dispatch was synchronized")
	// ErrNoPendingDispatch is returned when synchronize is called with no
	// dispatch outstanding.
	ErrNoPendingDispatch = errors.New("synchronize called with no pending dispatch")
	// ErrSessionClosed is returned when dispatching against a closed session.
	ErrSessionClosed = errors.New("session is closed")
)

type traceResponse struct {
	hits []capture.Hit
	err  error
}

type traceWork struct {
	req          TraceRequest
	responseChan chan traceResponse
}

// Session owns the lifetime of one configured tracing context. It is bound 1:1
// to the configuration it was constructed with: a configuration change must
// discard the session and construct a new one, never patch it in place. The
// only supported in-place mutation is the noise parameter update.
//
// A single worker goroutine hands workloads to the engine so that dispatch
// returns immediately and synchronize establishes the happens-before between
// the engine's writes and the caller's buffer reads.
type Session struct {
	engine   Engine
	rays     []lidarmodel.RayPose
	ringIDs  []uint16
	noise    lidarmodel.NoiseParams
	capacity int
	logger   logging.Logger

	requestChan chan traceWork
	// pending holds the response channel of the most recent dispatch until the
	// next synchronize call. At most one dispatch may be outstanding; this is
	// enforced by protocol, not by locking.
	pending chan traceResponse

	cancelFunc func()
	closed     bool

	activeBackgroundWorkers sync.WaitGroup
}

// NewSession validates the configuration's beam layout and constructs a fresh
// tracing session for it. On failure no session is returned; the caller must
// already have cleared any previously held session so a failure leaves no
// dangling reference to a stale, differently-configured one.
func NewSession(engine Engine, cfg lidarmodel.Configuration, logger logging.Logger) (*Session, error) {
	if engine == nil {
		return nil, errors.New("no ray-casting engine provided")
	}
	if err := cfg.Validate(); err != nil {
		return nil, multierr.Combine(ErrInvalidRayLayout, err)
	}

	// Snapshot the layout so later mutation of the caller's configuration
	// cannot desynchronize the session from its output sizing.
	snapshot := cfg.Clone()

	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	s := &Session{
		engine:      engine,
		rays:        snapshot.Rays,
		ringIDs:     snapshot.RingIDs,
		noise:       snapshot.Noise,
		capacity:    snapshot.Capacity(),
		logger:      logger,
		requestChan: make(chan traceWork, 1),
		cancelFunc:  cancelFunc,
	}

	s.activeBackgroundWorkers.Add(1)
	goutils.ManagedGo(func() {
		for {
			select {
			case <-cancelCtx.Done():
				return
			case work := <-s.requestChan:
				hits, err := s.engine.Trace(cancelCtx, work.req)
				work.responseChan <- traceResponse{hits: hits, err: err}
			}
		}
	}, s.activeBackgroundWorkers.Done)

	return s, nil
}

// Capacity returns the maximum number of hits one capture of this session can
// produce. It counts returns, not beams, so a multi-return configuration sizes
// its output buffers larger than its ray count.
func (s *Session) Capacity() int {
	return s.capacity
}

// SetNoise updates the noise parameters used by subsequent dispatches without
// reconstructing the session. Passing lidarmodel.ZeroNoise disables noise.
func (s *Session) SetNoise(params lidarmodel.NoiseParams) {
	s.noise = params
}

// Dispatch enqueues one tracing workload with the engine and returns without
// waiting for it. At most one dispatch may be outstanding per session: a
// second dispatch before SynchronizeAndDownload returns ErrDoubleDispatch.
func (s *Session) Dispatch(native, publish *mat.Dense, maxRangeMeters float64) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.pending != nil {
		return ErrDoubleDispatch
	}

	work := traceWork{
		req: TraceRequest{
			Rays:           s.rays,
			RingIDs:        s.ringIDs,
			Noise:          s.noise,
			MaxRangeMeters: maxRangeMeters,
			Native:         native,
			Publish:        publish,
		},
		responseChan: make(chan traceResponse, 1),
	}
	s.requestChan <- work
	s.pending = work.responseChan
	return nil
}

// SynchronizeAndDownload blocks until the previously dispatched workload has
// completed, then writes its results into the caller-owned buffers and returns
// the hit count. Downloads are all-or-nothing relative to a dispatch: on error
// the buffers keep the previous capture's contents. No internal timeout is
// applied; the engine owns its own failure policy.
func (s *Session) SynchronizeAndDownload(ctx context.Context, out *capture.Buffers) (int, error) {
	if s.pending == nil {
		return 0, ErrNoPendingDispatch
	}
	pending := s.pending
	s.pending = nil

	if out.Capacity() != s.Capacity() {
		return 0, errors.Wrapf(capture.ErrBufferSizeMismatch,
			"buffers sized for %d points, session produces up to %d", out.Capacity(), s.Capacity())
	}

	select {
	case resp := <-pending:
		if resp.err != nil {
			return 0, errors.Wrap(resp.err, "ray-casting engine failed")
		}
		return out.Store(resp.hits)
	case <-ctx.Done():
		return 0, multierr.Combine(errors.New("interrupted waiting for ray-casting engine"), ctx.Err())
	}
}

// Close discards the session wholesale. A pending dispatch is abandoned; no
// synchronize may be issued afterwards.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.pending = nil
	s.cancelFunc()
	s.activeBackgroundWorkers.Wait()
}
