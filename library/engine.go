package library

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// emailPattern accepts the usual local@domain.tld shape.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// loanDateLayout is the only accepted loan date format.
const loanDateLayout = "2006-01-02"

// Engine composes the store, the integrity guard, and the loan lifecycle into
// the atomic operations callers are allowed to use. Either an operation
// succeeds with every invariant holding, or it fails and nothing changed.
//
// Mutations take the write lock, reads the read lock: one mutation completes
// fully before the next begins, and readers never observe a half-applied
// multi-record operation.
type Engine struct {
	mu        sync.RWMutex
	db        *Database
	guard     Guard
	lifecycle *Lifecycle
}

// NewEngine opens (or creates) the SQLite database at dbPath.
func NewEngine(dbPath string) (*Engine, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	return &Engine{db: db, lifecycle: &Lifecycle{db: db}}, nil
}

// Close closes the underlying database.
func (e *Engine) Close() error { return e.db.Close() }

// ------------------ Categories ------------------

func (e *Engine) CreateCategory(name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.guard.CheckUnique(e.db.db, KindCategory, "name", name, 0); err != nil {
		return nil, err
	}
	id, err := e.db.AddCategory(name)
	if err != nil {
		return nil, err
	}
	return e.db.GetCategory(id)
}

func (e *Engine) UpdateCategory(id int64, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.guard.CheckUnique(e.db.db, KindCategory, "name", name, id); err != nil {
		return nil, err
	}
	if err := e.db.UpdateCategory(id, name); err != nil {
		return nil, err
	}
	return e.db.GetCategory(id)
}

// DeleteCategory removes a category no book references any more.
func (e *Engine) DeleteCategory(id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.guard.CheckNoDependents(tx, KindCategory, id); err != nil {
		return err
	}
	if err := e.db.deleteCategoryTx(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (e *Engine) GetCategory(id int64) (*Category, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.db.GetCategory(id)
}

func (e *Engine) ListCategories(order OrderBy) ([]*Category, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.db.GetAllCategories(order)
}

// ------------------ Users ------------------

func validateUser(u *User) error {
	if strings.TrimSpace(u.FirstName) == "" {
		return &ValidationError{Field: "first_name", Reason: "must not be empty"}
	}
	if strings.TrimSpace(u.LastName) == "" {
		return &ValidationError{Field: "last_name", Reason: "must not be empty"}
	}
	if strings.TrimSpace(u.NationalID) == "" {
		return &ValidationError{Field: "national_id", Reason: "must not be empty"}
	}
	if !emailPattern.MatchString(u.Email) {
		return &ValidationError{Field: "email", Reason: "must look like local@domain.tld"}
	}
	return nil
}

func (e *Engine) CreateUser(u *User) (*User, error) {
	if err := validateUser(u); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.guard.CheckUnique(e.db.db, KindUser, "national_id", u.NationalID, 0); err != nil {
		return nil, err
	}
	id, err := e.db.AddUser(u)
	if err != nil {
		return nil, err
	}
	return e.db.GetUser(id)
}

func (e *Engine) UpdateUser(id int64, u *User) (*User, error) {
	if err := validateUser(u); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.guard.CheckUnique(e.db.db, KindUser, "national_id", u.NationalID, id); err != nil {
		return nil, err
	}
	if err := e.db.UpdateUser(id, u); err != nil {
		return nil, err
	}
	return e.db.GetUser(id)
}

// DeleteUser removes a user with no active loans. Returned loans referencing
// the user do not block deletion.
func (e *Engine) DeleteUser(id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.guard.CheckNoDependents(tx, KindUser, id); err != nil {
		return err
	}
	// Only returned loans can reference the user now; drop that history so
	// the foreign keys release the row.
	if err := e.db.deleteReturnedLoansByUserTx(tx, id); err != nil {
		return err
	}
	if err := e.db.deleteUserTx(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (e *Engine) GetUser(id int64) (*User, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.db.GetUser(id)
}

func (e *Engine) ListUsers(order OrderBy) ([]*User, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.db.GetAllUsers(order)
}

// SetUserPassword hashes and stores a new password for the user.
func (e *Engine) SetUserPassword(id int64, password string) error {
	if password == "" {
		return &ValidationError{Field: "password", Reason: "must not be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return e.db.UpdateUserPassword(id, string(hash))
}

// AuthenticateUser verifies the user's password. A user who never set a
// password cannot authenticate.
func (e *Engine) AuthenticateUser(id int64, password string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	u, err := e.db.GetUser(id)
	if err != nil {
		return err
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("user %d has no password set", id)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return fmt.Errorf("invalid password for user %d", id)
	}
	return nil
}

// ------------------ Books ------------------

func validateBook(b *Book) error {
	if strings.TrimSpace(b.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(b.Author) == "" {
		return &ValidationError{Field: "author", Reason: "must not be empty"}
	}
	if b.Year < 1 || b.Year > 10000 {
		return &ValidationError{Field: "year", Reason: "must be between 1 and 10000"}
	}
	return nil
}

// CreateBook stores a new book. The Available field of the payload is
// ignored: new books are always available.
func (e *Engine) CreateBook(b *Book) (*Book, error) {
	if err := validateBook(b); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if b.CategoryID != 0 {
		if err := e.guard.CheckReferenceExists(e.db.db, KindCategory, b.CategoryID); err != nil {
			return nil, err
		}
	}
	id, err := e.db.AddBook(b)
	if err != nil {
		return nil, err
	}
	return e.db.GetBook(id)
}

// UpdateBook rewrites the book's descriptive fields. Availability is ignored
// in the payload; only loan operations change it.
func (e *Engine) UpdateBook(id int64, b *Book) (*Book, error) {
	if err := validateBook(b); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if b.CategoryID != 0 {
		if err := e.guard.CheckReferenceExists(e.db.db, KindCategory, b.CategoryID); err != nil {
			return nil, err
		}
	}
	if err := e.db.UpdateBook(id, b); err != nil {
		return nil, err
	}
	return e.db.GetBook(id)
}

// DeleteBook removes a book with no active loan. Returned loans referencing
// the book do not block deletion.
func (e *Engine) DeleteBook(id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.guard.CheckNoDependents(tx, KindBook, id); err != nil {
		return err
	}
	// Only returned loans can reference the book now; drop that history so
	// the foreign keys release the row.
	if err := e.db.deleteReturnedLoansByBookTx(tx, id); err != nil {
		return err
	}
	if err := e.db.deleteBookTx(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (e *Engine) GetBook(id int64) (*Book, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.db.GetBook(id)
}

func (e *Engine) ListBooks(order OrderBy) ([]*BookDetail, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.db.GetAllBooks(order)
}

func (e *Engine) ListAvailableBooks() ([]*Book, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.db.GetAvailableBooks()
}

// ------------------ Loans ------------------

// CreateLoan lends a book to a user on the given date (YYYY-MM-DD). The book
// must be available; creating the loan makes it unavailable.
func (e *Engine) CreateLoan(bookID, userID int64, date string) (*Loan, error) {
	if _, err := time.Parse(loanDateLayout, date); err != nil {
		return nil, &ValidationError{Field: "loan_date", Reason: "must be a valid YYYY-MM-DD date"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id, err := e.lifecycle.CreateLoan(bookID, userID, date)
	if err != nil {
		return nil, err
	}
	return e.db.GetLoan(id)
}

// ReturnLoan marks the loan returned and makes the book available again.
func (e *Engine) ReturnLoan(loanID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lifecycle.ReturnLoan(loanID)
}

// DeleteLoan removes a loan record. Deleting an active loan implicitly
// releases the book first; no trace of the forced release is kept.
func (e *Engine) DeleteLoan(loanID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	loan, err := getLoan(tx, loanID)
	if err != nil {
		return err
	}
	if !loan.Returned {
		if err := e.lifecycle.forceRelease(tx, loan); err != nil {
			return err
		}
	}
	if err := e.db.deleteLoanTx(tx, loanID); err != nil {
		return err
	}
	return tx.Commit()
}

func (e *Engine) GetLoan(id int64) (*Loan, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.db.GetLoan(id)
}

func (e *Engine) ListLoans(order OrderBy) ([]*LoanDetail, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.db.GetAllLoans(order)
}
