package allocator

import "errors"

var (
	// ErrInvalidRange is returned when a requested date range ends before it starts
	ErrInvalidRange = errors.New("invalid date range")

	// ErrInvalidGrid is returned for grids with unordered, duplicate or missing dates or ragged rows
	ErrInvalidGrid = errors.New("invalid roster grid")

	// ErrInvalidInput is returned when the reference data breaks a structural invariant
	ErrInvalidInput = errors.New("invalid reference data")
)
