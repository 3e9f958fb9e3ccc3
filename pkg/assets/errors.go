package assets

import "errors"

var (
	// ErrFolderNotFound is returned when the images folder does not exist.
	ErrFolderNotFound = errors.New("assets: images folder not found")

	// ErrUnsupported is returned for files that are not PNG, GIF or JPEG.
	ErrUnsupported = errors.New("assets: unsupported image format")
)

// LoadError describes a single file that could not be decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return "assets: load " + e.Path + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
