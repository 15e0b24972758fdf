package preprocess

import (
	"image"

	"gocv.io/x/gocv"
)

// FrameScaler normalises every frame read from a source to a fixed
// processing resolution so that boundary coordinates in the configuration
// refer to the same pixel grid regardless of the capture size
type FrameScaler struct {
	width  int
	height int
}

// NewFrameScaler returns a scaler for the given processing size.  A zero
// width or height disables scaling
func NewFrameScaler(width, height int) *FrameScaler {
	return &FrameScaler{width: width, height: height}
}

// Enabled reports if frames will be resized
func (f *FrameScaler) Enabled() bool {
	return f.width > 0 && f.height > 0
}

// Scale resizes src into dst.  When scaling is disabled or the frame is
// already the processing size, src is copied as is
func (f *FrameScaler) Scale(src gocv.Mat, dst *gocv.Mat) {

	if !f.Enabled() || (src.Cols() == f.width && src.Rows() == f.height) {
		src.CopyTo(dst)
		return
	}

	gocv.Resize(src, dst, image.Pt(f.width, f.height), 0, 0, gocv.InterpolationArea)
}
