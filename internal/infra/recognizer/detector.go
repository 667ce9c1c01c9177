// Package recognizer is the server side of the object recognition protocol.
package recognizer

import (
	"context"
	"errors"
)

// Detector returns the class name of every object found in a JPEG image.
type Detector interface {
	Detect(ctx context.Context, jpeg []byte) ([]string, error)
	Close() error
}

var ErrDetectorUnavailable = errors.New("object detector unavailable")

// UnavailableDetector fails every request, which the server reports as
// "cannot search".
type UnavailableDetector struct {
	Reason error
}

func (d UnavailableDetector) Detect(_ context.Context, _ []byte) ([]string, error) {
	if d.Reason != nil {
		return nil, errors.Join(ErrDetectorUnavailable, d.Reason)
	}
	return nil, ErrDetectorUnavailable
}

func (d UnavailableDetector) Close() error { return nil }

// YOLOConfig holds YOLO detector configuration
type YOLOConfig struct {
	ModelPath        string
	ConfidenceThresh float32
	NMSThresh        float32
	InputWidth       int
	InputHeight      int
}

// DefaultYOLOConfig returns defaults for YOLOv8n
func DefaultYOLOConfig() YOLOConfig {
	return YOLOConfig{
		ModelPath:        "models/yolov8n.onnx",
		ConfidenceThresh: 0.5,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// COCOClasses contains the 80 COCO class names
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}
