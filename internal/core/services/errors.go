package services

import "errors"

// Frame errors
var (
	ErrFrameNotJSON = errors.New("frame: not a JSON object")
)

// Stream errors
var (
	ErrSourceUnavailable = errors.New("stream: source unavailable")
	ErrSupervisorRunning = errors.New("stream: supervisor already running")
)

// Board errors
var (
	ErrTaskNotFound = errors.New("board: task not found")
)
