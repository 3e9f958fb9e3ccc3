package detection

import "errors"

var (
	// ErrModelNotFound is returned when the ONNX model file does not exist.
	ErrModelNotFound = errors.New("detection: model file not found")

	// ErrModelLoad is returned when OpenCV cannot load the model.
	ErrModelLoad = errors.New("detection: failed to load model")

	// ErrEmptyFrame is returned for frames that decode to an empty image.
	ErrEmptyFrame = errors.New("detection: empty frame")
)
