package detect

import (
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/go-crosscount/postprocess"
	"github.com/swdee/go-crosscount/preprocess"
	"gocv.io/x/gocv"
)

// letterboxColor is the padding color YOLO models are trained with
var letterboxColor = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// ONNX runs a YOLOv8 ONNX model through the OpenCV DNN module
type ONNX struct {
	net       gocv.Net
	yolo      *postprocess.YOLOv8
	inputSize int
	// resizer is created for the first frame and rebuilt if the frame size
	// changes
	resizer   *preprocess.Resizer
	letterbox gocv.Mat
}

// NewONNX loads the model file.  inputSize is the square input dimension the
// model was exported with
func NewONNX(model string, inputSize int, params postprocess.YOLOv8Params) (*ONNX, error) {

	net := gocv.ReadNetFromONNX(model)

	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("error reading ONNX model %s", model)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &ONNX{
		net:       net,
		yolo:      postprocess.NewYOLOv8(params),
		inputSize: inputSize,
		letterbox: gocv.NewMat(),
	}, nil
}

// Detect runs inference on the frame
func (o *ONNX) Detect(img gocv.Mat) ([]postprocess.DetectResult, error) {

	if img.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	if o.resizer == nil || !o.resizer.Matches(img.Cols(), img.Rows()) {
		if o.resizer != nil {
			o.resizer.Close()
		}
		o.resizer = preprocess.NewResizer(img.Cols(), img.Rows(),
			o.inputSize, o.inputSize)
	}

	o.resizer.LetterBoxResize(img, &o.letterbox, letterboxColor)

	// frames are BGR, the model expects RGB scaled to 0..1
	blob := gocv.BlobFromImage(o.letterbox, 1.0/255.0,
		image.Pt(o.inputSize, o.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	o.net.SetInput(blob, "")
	output := o.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("error reading model output: %w", err)
	}

	return o.yolo.DetectObjects(data, o.resizer), nil
}

// Close releases the network
func (o *ONNX) Close() error {

	if o.resizer != nil {
		o.resizer.Close()
	}

	o.letterbox.Close()

	return o.net.Close()
}
