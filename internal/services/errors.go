package services

import "fmt"

// NotFoundError signals an absent entity; the HTTP layer maps it to 404.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s not found with id %s", e.Entity, e.ID)
}

// ConflictError signals a uniqueness violation on a specific field.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// BadReferenceError signals a request body referencing an entity
// that does not exist.
type BadReferenceError struct {
	Entity string
	ID     string
}

func (e *BadReferenceError) Error() string {
	return fmt.Sprintf("referenced %s not found with id %s", e.Entity, e.ID)
}

// ValidationError signals malformed or out-of-range request data.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
