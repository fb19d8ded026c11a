package service

import (
	"errors"
	"fmt"

	"github.com/hrms-go/backend/internal/service/statemachine"
)

var (
	ErrTemplateNotFound      = errors.New("template not found")
	ErrInstanceNotFound      = errors.New("contract instance not found")
	ErrOnboardingDocNotFound = errors.New("onboarding document not found")
	ErrEmployeeNotFound      = errors.New("employee not found")
	ErrInvalidState          = errors.New("invalid state")
	ErrValidation            = errors.New("validation error")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// invalidStateError 同时保留 ErrInvalidState 与状态机错误，便于 errors.Is / errors.As
func invalidStateError(err *statemachine.InvalidTransitionError) error {
	return fmt.Errorf("%w: %w", ErrInvalidState, err)
}
