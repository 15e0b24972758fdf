package pipeline

import (
	"github.com/swdee/go-crosscount"
	"github.com/swdee/go-crosscount/postprocess"
	"github.com/swdee/go-crosscount/tracker"
)

// filter turns detections into tracker objects, dropping those with an
// unknown class or a class outside of the allow list and shrinking the boxes
type filter struct {
	labels crosscount.Labels
	// allow is nil when every label is allowed
	allow  map[int]bool
	shrink float64
}

func newFilter(p Params) *filter {

	f := &filter{
		labels: p.Labels,
		shrink: p.ShrinkFraction,
	}

	if len(p.AllowLabels) > 0 {
		f.allow = make(map[int]bool, len(p.AllowLabels))

		for _, name := range p.AllowLabels {
			if idx := p.Labels.Index(name); idx >= 0 {
				f.allow[idx] = true
			}
		}
	}

	return f
}

func (f *filter) apply(dets []postprocess.DetectResult) []tracker.Object {

	objs := make([]tracker.Object, 0, len(dets))

	for _, obj := range tracker.DetectionsToObjects(dets) {

		// malformed class index, silently excluded
		if _, ok := f.labels.Name(obj.Label); !ok {
			continue
		}

		if f.allow != nil && !f.allow[obj.Label] {
			continue
		}

		obj.Rect = obj.Rect.Shrink(f.shrink)
		objs = append(objs, obj)
	}

	return objs
}

// className resolves a class index for display
func (f *filter) className(idx int) string {

	if name, ok := f.labels.Name(idx); ok {
		return name
	}

	return "?"
}
