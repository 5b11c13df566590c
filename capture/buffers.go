// Package capture holds the reusable output buffers of a lidar capture and the
// wire-ready point record encodings written into them.
package capture

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrBufferSizeMismatch is returned when a download is attempted against
// buffers that are not sized to the active configuration's capacity.
var ErrBufferSizeMismatch = errors.New("output buffers not sized to the active configuration")

// Hit is a single lidar return produced by the ray-casting engine.
type Hit struct {
	// Native is the hit point in the host's native world frame.
	Native r3.Vector
	// Publish is the hit point in the publishing frame.
	Publish r3.Vector

	Distance   float64
	AzimuthDeg float64
	Intensity  float64
	Ring       uint16
}

// OutputData is the record produced by one capture. It is owned by the capture
// orchestrator and reused across captures: only indices [0, HitCount) of Hits
// and the corresponding byte prefixes of the encoded buffers are meaningful;
// anything beyond is leftover from a previous capture and must not be read.
type OutputData struct {
	HitCount int
	// Hits holds hit points in the host's native frame, len == capacity.
	Hits []r3.Vector
	// ROSPCL24 and ROSPCL48 hold the compact and extended point record
	// encodings in the publishing frame, 24 and 48 bytes per record.
	ROSPCL24 []byte
	ROSPCL48 []byte
}

// Buffers is a pre-sized set of output buffers for one configuration epoch.
// A capacity change requires a brand-new set via NewBuffers; buffers are never
// resized in place.
type Buffers struct {
	capacity int
	data     OutputData
}

// NewBuffers allocates fresh buffers for the given point capacity.
func NewBuffers(capacity int) *Buffers {
	return &Buffers{
		capacity: capacity,
		data: OutputData{
			Hits:     make([]r3.Vector, capacity),
			ROSPCL24: make([]byte, RecordSizePCL24*capacity),
			ROSPCL48: make([]byte, RecordSizePCL48*capacity),
		},
	}
}

// Capacity returns the point capacity the buffers were allocated for.
func (b *Buffers) Capacity() int {
	return b.capacity
}

// Data returns the underlying output record. The pointer stays valid across
// captures; its contents change in place on every Store.
func (b *Buffers) Data() *OutputData {
	return &b.data
}

// Store writes the given hits into the [0, len(hits)) prefix of all three
// buffers and records the hit count. The tail beyond the prefix is left
// untouched. Hits exceeding capacity are rejected before any write, so a
// failed store never leaves a partially updated record.
func (b *Buffers) Store(hits []Hit) (int, error) {
	if len(hits) > b.capacity {
		return 0, errors.Wrapf(ErrBufferSizeMismatch,
			"%d hits exceed buffer capacity %d", len(hits), b.capacity)
	}
	for i, hit := range hits {
		b.data.Hits[i] = hit.Native
		encodePCL24(b.data.ROSPCL24[i*RecordSizePCL24:], hit)
		encodePCL48(b.data.ROSPCL48[i*RecordSizePCL48:], hit)
	}
	b.data.HitCount = len(hits)
	return len(hits), nil
}

// TrimmedPoints copies out the valid [0, HitCount) prefix of the point buffer,
// for consumers that must not see stale trailing entries. Calling it twice
// without an intervening capture yields the same points.
func (b *Buffers) TrimmedPoints() []r3.Vector {
	out := make([]r3.Vector, b.data.HitCount)
	copy(out, b.data.Hits[:b.data.HitCount])
	return out
}
