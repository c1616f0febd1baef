package library

// Category groups books. A book may reference at most one category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User is a registered borrower identified by a unique national id.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	NationalID   string `json:"national_id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Don't serialize password hash
}

// DisplayName formats the user the way loan listings show them.
func (u *User) DisplayName() string {
	return u.LastName + ", " + u.FirstName
}

// Book is a catalog record. CategoryID is 0 when the book has no category.
// Available is owned by the loan lifecycle and never set through a plain update.
type Book struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Year       int    `json:"year"`
	CategoryID int64  `json:"category_id"`
	Available  bool   `json:"available"`
	ImageURL   string `json:"image_url"`
}

// Loan records a book lent to a user. Returned is owned by the loan lifecycle.
type Loan struct {
	ID       int64  `json:"id"`
	BookID   int64  `json:"book_id"`
	UserID   int64  `json:"user_id"`
	LoanDate string `json:"loan_date"` // YYYY-MM-DD
	Returned bool   `json:"returned"`
}

// BookDetail is a Book joined with its category name for listings.
// The join is a read-only projection, never persisted.
type BookDetail struct {
	Book
	CategoryName string `json:"category_name"`
}

// LoanDetail is a Loan joined with book and user display fields for listings.
type LoanDetail struct {
	Loan
	BookTitle  string `json:"book_title"`
	BookAuthor string `json:"book_author"`
	UserName   string `json:"user_name"`
}
