package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidHistory  = errors.New("conversation history is invalid")
	ErrUnknownItem     = errors.New("item is not in the catalog")
	ErrStage           = errors.New("stage failed")
)
