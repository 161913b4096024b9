package platform

import "errors"

var (
	ErrUnknownClass    = errors.New("unknown hardware class")
	ErrUnknownFeature  = errors.New("unknown feature")
	ErrFeatureDisabled = errors.New("feature not available on this machine")
	ErrReadOnly        = errors.New("feature is read only on this machine")
	ErrNotDetected     = errors.New("machine model not detected")
)
