package core

import "errors"

// Whole-batch errors. ImportBatch returns one of these (wrapped) when the
// file cannot be processed at all; row problems never surface here.
var (
	ErrInvalidEncoding       = errors.New("invalid file encoding")
	ErrEmptySpreadsheet      = errors.New("empty spreadsheet")
	ErrUnreadableSpreadsheet = errors.New("unreadable spreadsheet")
	ErrUnsupportedFormat     = errors.New("unsupported file format")
	ErrLookupUnavailable     = errors.New("tenant lookups unavailable")
	ErrFileTooLarge          = errors.New("file too large")
	ErrInvalidRequest        = errors.New("invalid import request")
	ErrNoFile                = errors.New("no file provided")
	ErrUnauthenticated       = errors.New("unauthenticated")
)
