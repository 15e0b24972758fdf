package detect

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/swdee/go-crosscount"
	"github.com/swdee/go-crosscount/postprocess"
	"gocv.io/x/gocv"
)

// remoteResult is a detection as returned by a remote detector server
type remoteResult struct {
	// Label is the class name, used when Class is absent
	Label string `json:"label"`
	Class *int   `json:"class"`
	// Confidence is the detection score
	Confidence float32 `json:"confidence"`
	// Box is x1, y1, x2, y2 in frame pixels
	Box []float32 `json:"box"`
}

// Remote sends each frame as a JPEG over a websocket to a detector server and
// waits for its JSON array of detections.  The connection is made on first
// use and after any failure
type Remote struct {
	url     string
	labels  crosscount.Labels
	conn    *websocket.Conn
	timeout time.Duration
	idGen   *postprocess.IDGenerator
}

// NewRemote returns a detector for the websocket URL, eg. ws://host:8000/ws
func NewRemote(url string, labels crosscount.Labels) *Remote {
	return &Remote{
		url:     url,
		labels:  labels,
		timeout: 5 * time.Second,
		idGen:   postprocess.NewIDGenerator(),
	}
}

// Detect sends the frame and returns the server's detections
func (r *Remote) Detect(img gocv.Mat) ([]postprocess.DetectResult, error) {

	if r.conn == nil {

		conn, _, err := websocket.DefaultDialer.Dial(r.url, nil)

		if err != nil {
			return nil, fmt.Errorf("error connecting to detector %s: %w", r.url, err)
		}

		r.conn = conn
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)

	if err != nil {
		return nil, fmt.Errorf("error encoding frame: %w", err)
	}

	defer buf.Close()

	r.conn.SetWriteDeadline(time.Now().Add(r.timeout))

	if err := r.conn.WriteMessage(websocket.BinaryMessage, buf.GetBytes()); err != nil {
		r.reset()
		return nil, fmt.Errorf("error sending frame: %w", err)
	}

	r.conn.SetReadDeadline(time.Now().Add(r.timeout))
	_, message, err := r.conn.ReadMessage()

	if err != nil {
		r.reset()
		return nil, fmt.Errorf("error reading detections: %w", err)
	}

	var results []remoteResult

	if err := json.Unmarshal(message, &results); err != nil {
		return nil, fmt.Errorf("error decoding detections: %w", err)
	}

	dets := make([]postprocess.DetectResult, 0, len(results))

	for _, res := range results {

		if len(res.Box) != 4 {
			continue
		}

		class := -1

		if res.Class != nil {
			class = *res.Class
		} else {
			class = r.labels.Index(res.Label)
		}

		dets = append(dets, postprocess.DetectResult{
			Class: class,
			Box: postprocess.BoxRect{
				Left:   int(res.Box[0]),
				Top:    int(res.Box[1]),
				Right:  int(res.Box[2]),
				Bottom: int(res.Box[3]),
			},
			Probability: res.Confidence,
			ID:          r.idGen.GetNext(),
		})
	}

	return dets, nil
}

func (r *Remote) reset() {
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
}

// Close the connection to the server
func (r *Remote) Close() error {

	if r.conn == nil {
		return nil
	}

	r.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	err := r.conn.Close()
	r.conn = nil

	return err
}
