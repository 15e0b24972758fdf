// Package pipeline runs the detect, track, count and publish loop on a single
// background worker.
package pipeline

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/swdee/go-crosscount/counter"
	"github.com/swdee/go-crosscount/detect"
	"github.com/swdee/go-crosscount/preprocess"
	"github.com/swdee/go-crosscount/publish"
	"github.com/swdee/go-crosscount/render"
	"github.com/swdee/go-crosscount/source"
	"github.com/swdee/go-crosscount/tracker"
	"gocv.io/x/gocv"
)

// State of the pipeline worker
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// SourceOpener opens the frame source named by path
type SourceOpener func(path string) (source.Source, error)

// OpenCapture is the SourceOpener for video files and cameras
func OpenCapture(path string) (source.Source, error) {
	return source.Open(path)
}

// Journal records the crossings of a run
type Journal interface {
	BeginRun(source string) (string, error)
	RecordCrossing(runID string, c counter.Crossing) error
	EndRun(runID string) error
}

// Notifier is told of every crossing
type Notifier interface {
	Notify(runID string, c counter.Crossing)
}

// Stats describes the current or last run
type Stats struct {
	State  string `json:"state"`
	Source string `json:"source"`
	RunID  string `json:"runID"`
	// Frames is the number of frames processed in the run
	Frames int64 `json:"frames"`
	// LastIteration is the processing time of the last frame, excluding the
	// pacing sleep
	LastIteration time.Duration `json:"lastIteration"`
	StartedAt     time.Time     `json:"startedAt"`
}

// Pipeline owns the worker lifecycle.  Start and Stop may be called from any
// goroutine, the tracker and counter are only used by the worker
type Pipeline struct {
	log       logs.Log
	params    Params
	open      SourceOpener
	detector  detect.Detector
	publisher *publish.Publisher
	journal   Journal
	notifier  Notifier

	// lifecycle serialises Start and Stop
	lifecycle sync.Mutex
	stop      atomic.Bool
	running   atomic.Bool
	done      chan struct{}

	// owned by the worker while running
	tracker *tracker.CentroidTracker
	counter *counter.Counter
	trail   *tracker.Trail
	filter  *filter
	scaler  *preprocess.FrameScaler
	font    render.Font
	style   render.TrailStyle

	statsMu sync.Mutex
	stats   Stats
}

// New returns an idle pipeline.  Counts are sent to publisher
func New(log logs.Log, params Params, open SourceOpener, detector detect.Detector,
	publisher *publish.Publisher) *Pipeline {

	p := &Pipeline{
		log:       log,
		params:    params,
		open:      open,
		detector:  detector,
		publisher: publisher,
		tracker: tracker.NewCentroidTracker(tracker.CentroidParams{
			MaxDistance: params.MaxDistance,
		}),
		counter: counter.NewCounter(params.Boundaries, publisher),
		trail:   tracker.NewTrail(params.TrailLength),
		filter:  newFilter(params),
		scaler:  preprocess.NewFrameScaler(params.ProcessWidth, params.ProcessHeight),
		font:    render.DefaultFont(),
		style:   render.DefaultTrailStyle(),
	}

	publisher.ResetCounts(params.checkpointLabels()...)

	return p
}

// SetJournal records crossings of every following run to j
func (p *Pipeline) SetJournal(j Journal) {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.journal = j
}

// SetNotifier sends crossings of every following run to n
func (p *Pipeline) SetNotifier(n Notifier) {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.notifier = n
}

// Publisher returns the publisher frames and counts are sent to
func (p *Pipeline) Publisher() *publish.Publisher {
	return p.publisher
}

// Running reports if the worker is running
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// State returns the lifecycle state
func (p *Pipeline) State() State {
	if p.running.Load() {
		return Running
	}
	return Idle
}

// Stats returns the statistics of the current or last run
func (p *Pipeline) Stats() Stats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	s := p.stats
	s.State = p.State().String()

	return s
}

// Start opens the source at path and starts the worker with fresh tracking
// state and zeroed counts.  It does nothing if the pipeline is already
// running.  If the source cannot be opened the failure is logged, returned
// and the pipeline stays idle
func (p *Pipeline) Start(path string) error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if p.running.Load() {
		return nil
	}

	src, err := p.open(path)

	if err != nil {
		p.log.Errorf("Failed to open source %v: %v", path, err)
		return err
	}

	// fresh state per run
	p.tracker.Reset()
	p.counter.Reset()
	p.trail.Reset()
	p.publisher.ResetCounts(p.params.checkpointLabels()...)
	p.publisher.ClearFrame()

	if r, ok := p.detector.(interface{ Rewind() }); ok {
		r.Rewind()
	}

	runID := ""

	if p.journal != nil {
		if runID, err = p.journal.BeginRun(path); err != nil {
			p.log.Warnf("Failed to begin journal run: %v", err)
			runID = ""
		}
	}

	p.statsMu.Lock()
	p.stats = Stats{
		Source:    path,
		RunID:     runID,
		StartedAt: time.Now(),
	}
	p.statsMu.Unlock()

	p.stop.Store(false)
	p.done = make(chan struct{})
	p.running.Store(true)

	p.log.Infof("Started processing %v", path)

	go p.worker(src, runID, p.journal, p.notifier, p.done)

	return nil
}

// Stop signals the worker and waits for it to finish its current iteration
// and release the source.  It does nothing if the pipeline is idle
func (p *Pipeline) Stop() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if !p.running.Load() {
		return
	}

	p.stop.Store(true)
	<-p.done
}

func (p *Pipeline) worker(src source.Source, runID string, journal Journal,
	notifier Notifier, done chan struct{}) {

	frame := gocv.NewMat()
	work := gocv.NewMat()

	defer func() {
		frame.Close()
		work.Close()

		if err := src.Close(); err != nil {
			p.log.Warnf("Failed to close source: %v", err)
		}

		if journal != nil && runID != "" {
			if err := journal.EndRun(runID); err != nil {
				p.log.Warnf("Failed to end journal run: %v", err)
			}
		}

		p.running.Store(false)
		close(done)
	}()

	for {
		if p.stop.Load() {
			p.log.Infof("Processing stopped")
			return
		}

		start := time.Now()

		if !src.Read(&frame) {
			p.log.Infof("End of stream, processing finished")
			return
		}

		p.scaler.Scale(frame, &work)
		p.process(&work, start, runID, journal, notifier)

		elapsed := time.Since(start)

		p.statsMu.Lock()
		p.stats.Frames++
		p.stats.LastIteration = elapsed
		p.statsMu.Unlock()

		// pace to the target interval, overruns continue at once
		if wait := p.params.Interval - elapsed; wait > 0 {
			time.Sleep(wait)
		}
	}
}

// process runs one frame through detection, tracking, counting and
// rendering then publishes it
func (p *Pipeline) process(img *gocv.Mat, at time.Time, runID string,
	journal Journal, notifier Notifier) {

	dets, err := p.detector.Detect(*img)

	if err != nil {
		p.log.Warnf("Detection failed: %v", err)
		dets = nil
	}

	objs := p.filter.apply(dets)
	tracked := p.tracker.Update(objs)

	for _, t := range tracked {
		p.trail.Add(t.ID, t.Centroid)
	}

	p.trail.Prune(p.tracker.Active())

	crossings := p.counter.Observe(tracked, p.filter.className, at)

	for _, c := range crossings {
		p.log.Infof("%v %v crossed %v", c.Class, c.ID, c.Boundary)

		if journal != nil && runID != "" {
			if err := journal.RecordCrossing(runID, c); err != nil {
				p.log.Warnf("Failed to record crossing: %v", err)
			}
		}

		if notifier != nil {
			notifier.Notify(runID, c)
		}
	}

	render.Boundaries(img, p.params.Boundaries, p.font, 1)
	render.Trail(img, tracked, p.trail, p.style)
	render.TrackerBoxes(img, tracked, p.filter.className, p.font, 2)
	render.CountsPanel(img, p.publisher.ReadCounts(), p.font)

	p.publisher.PublishFrame(*img)
}
