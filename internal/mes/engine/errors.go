package engine

import "errors"

var (
	ErrNotFound           = errors.New("inspection item not found")
	ErrInvalidSampleIndex = errors.New("sample index out of range")
	ErrPhotoNotRequired   = errors.New("photo not required for this item")
	ErrKindMismatch       = errors.New("operation not allowed for item kind")
	ErrInvalidResult      = errors.New("result must be OK or NG")
	ErrInvalidDefectCount = errors.New("defect count must be at least 1")
	ErrInvalidMeasurement = errors.New("measured value is not a number")
	ErrResultDerived      = errors.New("result is derived from measured values")
	ErrNoPendingSelection = errors.New("no defect selection open for this item")
	ErrInvalidDetail      = errors.New("invalid inspection detail")
)
