package errors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Domain errors
var (
	ErrValidation           = errors.New("validation failed")
	ErrInvalidPlan          = errors.New("invalid financing terms")
	ErrDuplicateInstallment = errors.New("installment slot already occupied")
	ErrAlreadyProcessed     = errors.New("payment is no longer pending")
	ErrSaleNotFound         = errors.New("sale not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrSaleAlreadyExists    = errors.New("sale already exists")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeInvalidPlan          = "INVALID_PLAN"
	ErrCodeDuplicateInstallment = "DUPLICATE_INSTALLMENT"
	ErrCodeAlreadyProcessed     = "ALREADY_PROCESSED"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeSaleAlreadyExists    = "SALE_ALREADY_EXISTS"
	ErrCodeDatabaseError        = "DATABASE_ERROR"
	ErrCodeCacheError           = "CACHE_ERROR"
)

// Wrap common errors with business context
func WrapValidation(message string) *BusinessError {
	return NewBusinessError(ErrCodeValidation, message, ErrValidation)
}

func WrapInvalidPlan(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPlan,
		fmt.Sprintf("Cannot generate installment plan: %s", reason),
		ErrInvalidPlan,
	)
}

func WrapDuplicateInstallment(saleID string, installment int) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicateInstallment,
		fmt.Sprintf("Installment %d of sale %s already has an active payment", installment, saleID),
		ErrDuplicateInstallment,
	)
}

func WrapAlreadyProcessed(paymentID uuid.UUID, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeAlreadyProcessed,
		fmt.Sprintf("Payment %s is already %s", paymentID, status),
		ErrAlreadyProcessed,
	)
}

func WrapSaleNotFound(saleID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("Sale with ID %s not found", saleID),
		ErrSaleNotFound,
	)
}

func WrapPaymentNotFound(paymentID uuid.UUID) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("Payment with ID %s not found", paymentID),
		ErrPaymentNotFound,
	)
}

func WrapSaleAlreadyExists(saleID string) *BusinessError {
	return NewBusinessError(
		ErrCodeSaleAlreadyExists,
		fmt.Sprintf("Sale with ID %s already exists", saleID),
		ErrSaleAlreadyExists,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
