package detect

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/swdee/go-crosscount"
	"github.com/swdee/go-crosscount/postprocess"
	"github.com/tidwall/gjson"
	"gocv.io/x/gocv"
)

// Replay returns detections recorded in a JSON lines file, one line per
// frame.  A line is either an array of detections or an object with a
// "detections" array.  Each detection has a "box" given as [x1, y1, x2, y2]
// or as {left, top, right, bottom}, a "class" index or a "label" name, and a
// "confidence" or "probability" score.  Frames past the end of the file have
// no detections
type Replay struct {
	frames [][]postprocess.DetectResult
	pos    int
}

// NewReplay loads a recording
func NewReplay(path string, labels crosscount.Labels) (*Replay, error) {

	f, err := os.Open(path)

	if err != nil {
		return nil, fmt.Errorf("error opening replay file: %w", err)
	}

	defer f.Close()

	r := &Replay{}
	idGen := postprocess.NewIDGenerator()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())

		// a blank line is a frame without detections
		if len(line) == 0 {
			r.frames = append(r.frames, nil)
			continue
		}

		if !gjson.ValidBytes(line) {
			return nil, fmt.Errorf("replay line %d is not valid JSON", lineNo)
		}

		r.frames = append(r.frames, parseFrame(gjson.ParseBytes(line), labels, idGen))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading replay file: %w", err)
	}

	return r, nil
}

func parseFrame(res gjson.Result, labels crosscount.Labels,
	idGen *postprocess.IDGenerator) []postprocess.DetectResult {

	items := res

	if !res.IsArray() {
		items = res.Get("detections")
	}

	dets := make([]postprocess.DetectResult, 0)

	items.ForEach(func(_, item gjson.Result) bool {

		var box postprocess.BoxRect
		b := item.Get("box")

		if b.IsArray() {
			v := b.Array()

			if len(v) != 4 {
				return true
			}

			box = postprocess.BoxRect{
				Left:   int(v[0].Float()),
				Top:    int(v[1].Float()),
				Right:  int(v[2].Float()),
				Bottom: int(v[3].Float()),
			}
		} else if b.IsObject() {
			box = postprocess.BoxRect{
				Left:   int(b.Get("left").Float()),
				Top:    int(b.Get("top").Float()),
				Right:  int(b.Get("right").Float()),
				Bottom: int(b.Get("bottom").Float()),
			}
		} else {
			return true
		}

		class := -1

		if c := item.Get("class"); c.Exists() {
			class = int(c.Int())
		} else if l := item.Get("label"); l.Exists() {
			class = labels.Index(l.String())
		}

		score := item.Get("confidence")

		if !score.Exists() {
			score = item.Get("probability")
		}

		dets = append(dets, postprocess.DetectResult{
			Class:       class,
			Box:         box,
			Probability: float32(score.Float()),
			ID:          idGen.GetNext(),
		})

		return true
	})

	return dets
}

// Detect returns the next recorded frame's detections.  The image is not
// used
func (r *Replay) Detect(_ gocv.Mat) ([]postprocess.DetectResult, error) {

	if r.pos >= len(r.frames) {
		return nil, nil
	}

	dets := r.frames[r.pos]
	r.pos++

	return dets, nil
}

// Frames returns the number of recorded frames
func (r *Replay) Frames() int {
	return len(r.frames)
}

// Rewind starts the replay from the first frame again
func (r *Replay) Rewind() {
	r.pos = 0
}

// Close is a no-op
func (r *Replay) Close() error {
	return nil
}
