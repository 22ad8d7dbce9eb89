package outbox

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("known_table", func(fl validator.FieldLevel) bool {
			return IsKnownTable(fl.Field().String())
		})
	})
	return validate
}

// ValidateRequest проверяет запрос на постановку в очередь
func ValidateRequest(req EnqueueRequest) error {
	if err := instance().Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	if needsRowID(req.Operation) {
		op := Operation{Data: req.Data}
		if _, ok := op.RowID(); !ok {
			return fmt.Errorf("%w: %s", ErrMissingRowID, req.Operation)
		}
	}
	return nil
}

// ValidateOperation проверяет операцию, пришедшую из очереди клиента
func ValidateOperation(op Operation) error {
	if op.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidOperation)
	}
	return ValidateRequest(EnqueueRequest{
		Table:     op.Table,
		Operation: op.Operation,
		Data:      op.Data,
	})
}

func needsRowID(kind Kind) bool {
	return kind == KindUpdate || kind == KindUpsert || kind == KindDelete
}
