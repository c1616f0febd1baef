package library

import "fmt"

// Kind names one of the four stored entity kinds. It appears in typed errors
// so callers can tell which collection a failure refers to.
type Kind string

const (
	KindCategory Kind = "category"
	KindUser     Kind = "user"
	KindBook     Kind = "book"
	KindLoan     Kind = "loan"
)

// ValidationError reports a malformed field value before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UniquenessError reports a duplicate value for a field that must be unique,
// such as a category name or a user's national id.
type UniquenessError struct {
	Kind  Kind
	Field string
	Value string
}

func (e *UniquenessError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Kind, e.Field, e.Value)
}

// DanglingReferenceError reports a reference to an id that does not exist.
type DanglingReferenceError struct {
	Kind Kind
	ID   int64
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("referenced %s %d does not exist", e.Kind, e.ID)
}

// DependencyError reports a delete blocked by records still referencing the
// target: books for a category, active loans for a user or book.
type DependencyError struct {
	Kind      Kind
	ID        int64
	Dependent Kind
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("cannot delete %s %d: %s records still reference it", e.Kind, e.ID, e.Dependent)
}

// BookUnavailableError reports a loan attempt on a book that is already lent out.
type BookUnavailableError struct {
	BookID int64
}

func (e *BookUnavailableError) Error() string {
	return fmt.Sprintf("book %d is not available", e.BookID)
}

// AlreadyReturnedError reports a second return of the same loan.
type AlreadyReturnedError struct {
	LoanID int64
}

func (e *AlreadyReturnedError) Error() string {
	return fmt.Sprintf("loan %d is already returned", e.LoanID)
}

// NotFoundError reports an operation targeting a nonexistent id.
type NotFoundError struct {
	Kind Kind
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}
