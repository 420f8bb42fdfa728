package repository

import "errors"

var (
	// ErrNoImages indicates that the inputs matched no image files
	ErrNoImages = errors.New("no images found")

	// ErrEmptyInput indicates an empty path or URL
	ErrEmptyInput = errors.New("empty input")
)
