package pipeline

import "errors"

// failure classes of a run; returned errors wrap one of these and the cause
var (
	ErrUsage   = errors.New("usage error")
	ErrEngine  = errors.New("transcription failed")
	ErrConvert = errors.New("script conversion failed")
	ErrIO      = errors.New("output failed")
)
