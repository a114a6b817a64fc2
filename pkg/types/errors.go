package types

import "errors"

var (
	// ErrInvalidArgument is returned for malformed sample sizes, sizes that do
	// not fit the image, non-positive sample counts and unreadable images.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientSamples is returned when every candidate position was
	// examined without placing the requested number of non-overlapping samples.
	ErrInsufficientSamples = errors.New("unable to find enough non-overlapping samples")
)
