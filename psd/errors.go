package psd

import "errors"

var (
	// ErrInvalidInput reports an empty or malformed waveform segment.
	ErrInvalidInput = errors.New("psd: invalid input")

	// ErrInvalidConfig reports a configuration value rejected at
	// construction, or an instrument type the pipeline cannot interpret.
	ErrInvalidConfig = errors.New("psd: invalid config")
)
