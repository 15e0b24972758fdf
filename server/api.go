package server

import (
	"bytes"
	"image"
	"image/jpeg"
	"maps"
	"net/http"
	"time"

	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
	"github.com/swdee/go-crosscount/journal"
	"golang.org/x/image/draw"
)

type statusResponse struct {
	Running         bool   `json:"running"`
	State           string `json:"state"`
	Source          string `json:"source"`
	RunID           string `json:"runID"`
	Frames          int64  `json:"frames"`
	LastIterationMs int64  `json:"lastIterationMs"`
}

func (s *Server) httpStatus(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	stats := s.ctl.Stats()

	www.CacheNever(w)
	www.SendJSON(w, &statusResponse{
		Running:         s.ctl.Running(),
		State:           stats.State,
		Source:          stats.Source,
		RunID:           stats.RunID,
		Frames:          stats.Frames,
		LastIterationMs: stats.LastIteration.Milliseconds(),
	})
}

func (s *Server) httpCounts(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.CacheNever(w)
	www.SendJSON(w, s.frames.ReadCounts())
}

// httpFrame returns the latest annotated frame as a JPEG, optionally
// downscaled to ?width=
func (s *Server) httpFrame(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	frame, ok, err := s.frames.ReadFrameJPEG()
	www.Check(err)

	www.CacheNever(w)

	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	data := frame.Data

	if width := www.QueryInt(r, "width"); width > 0 {
		data, err = downscaleJPEG(data, width)
		www.Check(err)
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}

// downscaleJPEG scales the image to width keeping its aspect ratio.  Images
// already narrower are returned as is
func downscaleJPEG(data []byte, width int) ([]byte, error) {

	src, err := jpeg.Decode(bytes.NewReader(data))

	if err != nil {
		return nil, err
	}

	b := src.Bounds()

	if width >= b.Dx() {
		return data, nil
	}

	height := max(1, b.Dy()*width/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer

	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

type startRequest struct {
	Source string `json:"source"`
}

func (s *Server) httpStart(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	req := startRequest{}
	www.ReadJSON(w, r, &req, 64*1024)

	if req.Source == "" {
		www.PanicBadRequestf("source is required")
	}

	if err := s.ctl.Start(req.Source); err != nil {
		www.PanicBadRequestf("Failed to start: %v", err)
	}

	www.SendOK(w)
}

func (s *Server) httpStop(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.ctl.Stop()
	www.SendOK(w)
}

func (s *Server) httpRuns(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	if s.runs == nil {
		www.PanicBadRequestf("journal is not enabled")
	}

	runs, err := s.runs.Runs()
	www.Check(err)

	www.SendJSON(w, runs)
}

type runSummaryResponse struct {
	RunID string `json:"runID"`
	// Counts is the number of crossings per boundary
	Counts map[string]int `json:"counts"`
	// Breakdown splits Counts by class and direction
	Breakdown journal.Breakdown `json:"breakdown"`
}

func (s *Server) httpRunSummary(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	if s.runs == nil {
		www.PanicBadRequestf("journal is not enabled")
	}

	runID := params.ByName("id")

	counts, err := s.runs.Summary(runID)

	if err != nil {
		www.PanicBadRequestf("%v", err)
	}

	breakdown, err := s.runs.Breakdown(runID)
	www.Check(err)

	www.SendJSON(w, &runSummaryResponse{
		RunID:     runID,
		Counts:    counts,
		Breakdown: breakdown,
	})
}

// httpCountsWebSocket sends the counts on connect and then whenever they
// change
func (s *Server) httpCountsWebSocket(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	c, err := s.wsUpgrader.Upgrade(w, r, nil)

	if err != nil {
		s.log.Errorf("Counts websocket upgrade failed: %v", err)
		return
	}

	defer c.Close()

	// reader notices the client going away
	closed := make(chan struct{})

	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	var last map[string]int

	for {
		if counts := s.frames.ReadCounts(); last == nil || !maps.Equal(counts, last) {
			if err := c.WriteJSON(counts); err != nil {
				return
			}
			last = counts
		}

		select {
		case <-s.shutdown:
			return
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}
