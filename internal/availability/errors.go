package availability

import "errors"

var (
	ErrInvalidInterval = errors.New("invalid interval: start must be before end")
)
