package repository

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned by count-reporting mutations when no document
// matched. Point reads return (nil, nil) instead and let the service
// decide what absence means.
var ErrNotFound = errors.New("document not found")

// Mongo reports failed $jsonSchema/collection validation as a write error
// with this code.
const codeDocumentValidationFailure = 121

// DuplicateKeyError signals a unique-index violation (client email/cpf,
// product name).
type DuplicateKeyError struct {
	Detail string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key: %s", e.Detail)
}

// ValidationError signals that the store rejected the document shape.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document validation failed: %s", e.Detail)
}

// OperationError wraps every other store-level failure (connectivity,
// command errors). Nothing below this package leaks driver error types.
type OperationError struct {
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("store operation failed: %v", e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// wrapError retags a driver error into the closed taxonomy above.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return &DuplicateKeyError{Detail: writeErrorDetail(err)}
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, w := range we.WriteErrors {
			if w.Code == codeDocumentValidationFailure {
				return &ValidationError{Detail: w.Message}
			}
		}
	}
	var wce mongo.WriteConcernError
	if errors.As(err, &wce) {
		return &OperationError{Err: err}
	}
	return &OperationError{Err: err}
}

func writeErrorDetail(err error) string {
	var we mongo.WriteException
	if errors.As(err, &we) {
		msgs := make([]string, 0, len(we.WriteErrors))
		for _, w := range we.WriteErrors {
			msgs = append(msgs, w.Message)
		}
		return strings.Join(msgs, "; ")
	}
	return err.Error()
}
