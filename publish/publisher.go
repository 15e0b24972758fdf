package publish

import (
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Frame is a copy of the latest published frame.  The caller owns Mat and
// must Close it
type Frame struct {
	Mat gocv.Mat
	// Seq increases by one for every published frame, readers compare it to
	// detect a frame they have already seen
	Seq uint64
	// At is when the frame was published
	At time.Time
}

// JPEGFrame is the latest published frame encoded as JPEG
type JPEGFrame struct {
	Data []byte
	Seq  uint64
	At   time.Time
}

// Publisher holds the latest annotated frame and the aggregate counts, each
// behind its own lock.  No operation holds both locks.
//
// The frame slot is not cleared on read, repeated reads return the same frame
// until a new one is published.
type Publisher struct {
	frameMu sync.Mutex
	frame   gocv.Mat
	hasData bool
	seq     uint64
	at      time.Time

	countsMu sync.Mutex
	counts   map[string]int
}

// NewPublisher returns an empty publisher
func NewPublisher() *Publisher {
	return &Publisher{
		frame:  gocv.NewMat(),
		counts: make(map[string]int),
	}
}

// Close releases the held frame
func (p *Publisher) Close() error {
	p.frameMu.Lock()
	defer p.frameMu.Unlock()

	p.hasData = false
	return p.frame.Close()
}

// PublishFrame replaces the held frame with a copy of img
func (p *Publisher) PublishFrame(img gocv.Mat) {

	// copy outside of the lock so readers only wait for the swap
	clone := img.Clone()

	p.frameMu.Lock()
	old := p.frame
	p.frame = clone
	p.hasData = true
	p.seq++
	p.at = time.Now()
	p.frameMu.Unlock()

	old.Close()
}

// ClearFrame empties the frame slot
func (p *Publisher) ClearFrame() {

	p.frameMu.Lock()
	old := p.frame
	p.frame = gocv.NewMat()
	p.hasData = false
	p.frameMu.Unlock()

	old.Close()
}

// ReadFrame returns a copy of the held frame, or false if no frame has been
// published
func (p *Publisher) ReadFrame() (Frame, bool) {
	p.frameMu.Lock()
	defer p.frameMu.Unlock()

	if !p.hasData {
		return Frame{}, false
	}

	return Frame{
		Mat: p.frame.Clone(),
		Seq: p.seq,
		At:  p.at,
	}, true
}

// Seq returns the sequence number of the held frame
func (p *Publisher) Seq() uint64 {
	p.frameMu.Lock()
	defer p.frameMu.Unlock()

	return p.seq
}

// ReadFrameJPEG returns the held frame JPEG encoded, or false if no frame has
// been published
func (p *Publisher) ReadFrameJPEG() (JPEGFrame, bool, error) {

	frame, ok := p.ReadFrame()

	if !ok {
		return JPEGFrame{}, false, nil
	}

	defer frame.Mat.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame.Mat)

	if err != nil {
		return JPEGFrame{}, false, fmt.Errorf("error encoding frame: %w", err)
	}

	defer buf.Close()

	// copy out of the native buffer before it is released
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	return JPEGFrame{
		Data: data,
		Seq:  frame.Seq,
		At:   frame.At,
	}, true, nil
}

// Increment adds one to the count of label
func (p *Publisher) Increment(label string) {
	p.countsMu.Lock()
	defer p.countsMu.Unlock()

	p.counts[label]++
}

// ReadCounts returns a snapshot of the counts that later increments do not
// change
func (p *Publisher) ReadCounts() map[string]int {
	p.countsMu.Lock()
	defer p.countsMu.Unlock()

	snapshot := make(map[string]int, len(p.counts))

	for k, v := range p.counts {
		snapshot[k] = v
	}

	return snapshot
}

// ResetCounts discards all counts and seeds each of labels with zero so
// readers see every boundary before its first crossing
func (p *Publisher) ResetCounts(labels ...string) {
	p.countsMu.Lock()
	defer p.countsMu.Unlock()

	p.counts = make(map[string]int, len(labels))

	for _, l := range labels {
		p.counts[l] = 0
	}
}
