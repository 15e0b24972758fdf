// Package server exposes the pipeline over HTTP: lifecycle control, counts,
// the latest frame, an MJPEG stream and a websocket of live counts.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/www"
	"github.com/gorilla/websocket"
	"github.com/hybridgroup/mjpeg"
	"github.com/julienschmidt/httprouter"
	"github.com/swdee/go-crosscount/journal"
	"github.com/swdee/go-crosscount/pipeline"
	"github.com/swdee/go-crosscount/publish"
)

// Controller is the pipeline lifecycle
type Controller interface {
	Start(path string) error
	Stop()
	Running() bool
	Stats() pipeline.Stats
}

// Frames is the shared state readers poll
type Frames interface {
	ReadFrameJPEG() (publish.JPEGFrame, bool, error)
	Seq() uint64
	ReadCounts() map[string]int
}

// RunStore serves run reports
type RunStore interface {
	Runs() ([]journal.Run, error)
	Summary(runID string) (map[string]int, error)
	Breakdown(runID string) (journal.Breakdown, error)
}

// Server is the HTTP API
type Server struct {
	log            logs.Log
	ctl            Controller
	frames         Frames
	runs           RunStore
	stream         *mjpeg.Stream
	streamInterval time.Duration
	wsUpgrader     websocket.Upgrader
	router         *httprouter.Router

	httpMu     sync.Mutex
	httpServer *http.Server

	shutdown  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New returns a server.  runs may be nil when no journal is kept
func New(log logs.Log, ctl Controller, frames Frames, runs RunStore,
	streamInterval time.Duration) *Server {

	s := &Server{
		log:            log,
		ctl:            ctl,
		frames:         frames,
		runs:           runs,
		stream:         mjpeg.NewStream(),
		streamInterval: streamInterval,
		router:         httprouter.New(),
		shutdown:       make(chan struct{}),
	}

	s.setupHttpRoutes()

	s.wg.Add(1)
	go s.streamPoller()

	return s
}

func (s *Server) setupHttpRoutes() {

	handle := func(method, route string, handler httprouter.Handle) {
		www.Handle(s.log, s.router, method, route, handler)
	}

	handle("GET", "/api/status", s.httpStatus)
	handle("GET", "/api/counts", s.httpCounts)
	handle("GET", "/api/frame.jpg", s.httpFrame)
	handle("GET", "/api/ws/counts", s.httpCountsWebSocket)
	handle("POST", "/api/start", s.httpStart)
	handle("POST", "/api/stop", s.httpStop)
	handle("GET", "/api/runs", s.httpRuns)
	handle("GET", "/api/runs/:id/summary", s.httpRunSummary)

	// the mjpeg stream writes until the client disconnects, so it is served
	// without the panic wrapper
	s.router.Handler("GET", "/api/stream", s.stream)
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until Close is called
func (s *Server) ListenAndServe(addr string) error {

	ln, err := net.Listen("tcp", addr)

	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler: s.router,
	}

	s.httpMu.Lock()
	select {
	case <-s.shutdown:
		s.httpMu.Unlock()
		ln.Close()
		return nil
	default:
	}
	s.httpServer = srv
	s.httpMu.Unlock()

	s.log.Infof("Listening on %v", ln.Addr())

	err = srv.Serve(ln)

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// Close stops the stream poller, websocket writers and the listener
func (s *Server) Close() error {

	var err error

	s.closeOnce.Do(func() {
		s.httpMu.Lock()
		close(s.shutdown)
		srv := s.httpServer
		s.httpMu.Unlock()

		if srv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			// open mjpeg streams never go idle
			if err = srv.Shutdown(ctx); errors.Is(err, context.DeadlineExceeded) {
				err = srv.Close()
			}
		}

		s.wg.Wait()
	})

	return err
}

// streamPoller pushes every new frame to the MJPEG stream
func (s *Server) streamPoller() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	lastSeq := uint64(0)

	for {
		select {
		case <-s.shutdown:
			return

		case <-ticker.C:
			if s.frames.Seq() == lastSeq {
				continue
			}

			frame, ok, err := s.frames.ReadFrameJPEG()

			if err != nil {
				s.log.Warnf("Failed to encode stream frame: %v", err)
				continue
			}

			if !ok {
				continue
			}

			lastSeq = frame.Seq
			s.stream.UpdateJPEG(frame.Data)
		}
	}
}
