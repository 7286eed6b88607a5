package mltree

import "errors"

// Errors returned by tree structure operations.
var (
	ErrNilNode      = errors.New("mltree: nil node")
	ErrPathNotFound = errors.New("mltree: path does not resolve to a node")
	ErrBadPath      = errors.New("mltree: malformed path")
	ErrBadNode      = errors.New("mltree: malformed node")
	ErrBadHistogram = errors.New("mltree: malformed histogram")
)
