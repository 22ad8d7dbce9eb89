package outbox

import "errors"

var (
	ErrInvalidOperation = errors.New("invalid outbox operation")
	ErrMissingRowID     = errors.New("operation requires data.id")
)
