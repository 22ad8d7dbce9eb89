package sync

import "errors"

var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrUnknownTable    = errors.New("unknown table")
	ErrRowNotFound     = errors.New("row not found")
	ErrRowExists       = errors.New("row already exists")
	ErrAlreadyApplied  = errors.New("operation already applied")
	ErrInvalidData     = errors.New("invalid row data")
)

// permanent ошибки, которые не исчезнут при повторной отправке
func permanent(err error) bool {
	return errors.Is(err, ErrRowNotFound) ||
		errors.Is(err, ErrRowExists) ||
		errors.Is(err, ErrUnknownTable) ||
		errors.Is(err, ErrInvalidData)
}
