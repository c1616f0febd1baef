package library

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	eng, err := NewEngine(filepath.Join(dir, "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return eng
}

// checkAvailabilityInvariant verifies that a book is available exactly when no
// active loan references it.
func checkAvailabilityInvariant(t *testing.T, eng *Engine) {
	t.Helper()
	books, err := eng.ListBooks(OrderBooksByID)
	require.NoError(t, err)
	loans, err := eng.ListLoans(OrderLoansByID)
	require.NoError(t, err)

	active := make(map[int64]bool)
	for _, l := range loans {
		if !l.Returned {
			require.False(t, active[l.BookID], "book %d has two active loans", l.BookID)
			active[l.BookID] = true
		}
	}
	for _, b := range books {
		assert.Equal(t, !active[b.ID], b.Available, "book %d availability out of sync", b.ID)
	}
}

func TestCreateCategoryDuplicate(t *testing.T) {
	eng := newEngine(t)

	_, err := eng.CreateCategory("Fiction")
	require.NoError(t, err)

	_, err = eng.CreateCategory("Fiction")
	var dup *UniquenessError
	require.ErrorAs(t, err, &dup)

	// Case-sensitive uniqueness: a different casing is a different name.
	_, err = eng.CreateCategory("fiction")
	require.NoError(t, err)
}

func TestUpdateCategoryExcludesSelf(t *testing.T) {
	eng := newEngine(t)

	fiction, err := eng.CreateCategory("Fiction")
	require.NoError(t, err)
	_, err = eng.CreateCategory("History")
	require.NoError(t, err)

	// Renaming to its own name is fine; to a taken name is not.
	_, err = eng.UpdateCategory(fiction.ID, "Fiction")
	require.NoError(t, err)
	_, err = eng.UpdateCategory(fiction.ID, "History")
	var dup *UniquenessError
	require.ErrorAs(t, err, &dup)
}

func TestDeleteCategoryWithBooks(t *testing.T) {
	eng := newEngine(t)

	cat, err := eng.CreateCategory("Essays")
	require.NoError(t, err)
	book, err := eng.CreateBook(&Book{Title: "Montaigne", Author: "Michel de Montaigne", Year: 1580, CategoryID: cat.ID})
	require.NoError(t, err)

	err = eng.DeleteCategory(cat.ID)
	var dep *DependencyError
	require.ErrorAs(t, err, &dep)
	assert.Equal(t, KindCategory, dep.Kind)

	require.NoError(t, eng.DeleteBook(book.ID))
	require.NoError(t, eng.DeleteCategory(cat.ID))
}

func TestUserValidation(t *testing.T) {
	eng := newEngine(t)

	tests := []struct {
		name  string
		user  User
		field string
	}{
		{"empty first name", User{LastName: "L", NationalID: "1", Email: "a@b.cc"}, "first_name"},
		{"empty last name", User{FirstName: "F", NationalID: "1", Email: "a@b.cc"}, "last_name"},
		{"empty national id", User{FirstName: "F", LastName: "L", Email: "a@b.cc"}, "national_id"},
		{"email without at", User{FirstName: "F", LastName: "L", NationalID: "1", Email: "nope"}, "email"},
		{"email without tld", User{FirstName: "F", LastName: "L", NationalID: "1", Email: "a@b"}, "email"},
		{"email short tld", User{FirstName: "F", LastName: "L", NationalID: "1", Email: "a@b.c"}, "email"},
		{"email with spaces", User{FirstName: "F", LastName: "L", NationalID: "1", Email: "a b@c.dd"}, "email"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := tc.user
			_, err := eng.CreateUser(&u)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	_, err := eng.CreateUser(&User{FirstName: "F", LastName: "L", NationalID: "1", Email: "user.name+tag@sub.example.com"})
	require.NoError(t, err)
}

func TestUserNationalIDUnique(t *testing.T) {
	eng := newEngine(t)

	first, err := eng.CreateUser(&User{FirstName: "Ada", LastName: "Lovelace", NationalID: "111", Email: "ada@example.com"})
	require.NoError(t, err)
	_, err = eng.CreateUser(&User{FirstName: "Alan", LastName: "Turing", NationalID: "111", Email: "alan@example.com"})
	var dup *UniquenessError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "national_id", dup.Field)

	// Updating a user keeps their own national id valid.
	first.Email = "ada@newhost.org"
	updated, err := eng.UpdateUser(first.ID, first)
	require.NoError(t, err)
	assert.Equal(t, "ada@newhost.org", updated.Email)
}

func TestDeleteUserWithActiveLoan(t *testing.T) {
	eng := newEngine(t)

	user, err := eng.CreateUser(&User{FirstName: "Ada", LastName: "Lovelace", NationalID: "111", Email: "ada@example.com"})
	require.NoError(t, err)
	book, err := eng.CreateBook(&Book{Title: "Dune", Author: "Frank Herbert", Year: 1965})
	require.NoError(t, err)

	loan, err := eng.CreateLoan(book.ID, user.ID, "2024-01-01")
	require.NoError(t, err)

	err = eng.DeleteUser(user.ID)
	var dep *DependencyError
	require.ErrorAs(t, err, &dep)

	require.NoError(t, eng.ReturnLoan(loan.ID))
	require.NoError(t, eng.DeleteUser(user.ID))
}

func TestDeleteUserAfterReturnedLoan(t *testing.T) {
	eng := newEngine(t)

	user, err := eng.CreateUser(&User{FirstName: "Ada", LastName: "Lovelace", NationalID: "111", Email: "ada@example.com"})
	require.NoError(t, err)
	book, err := eng.CreateBook(&Book{Title: "Dune", Author: "Frank Herbert", Year: 1965})
	require.NoError(t, err)

	loan, err := eng.CreateLoan(book.ID, user.ID, "2024-01-01")
	require.NoError(t, err)
	require.NoError(t, eng.ReturnLoan(loan.ID))

	// A returned loan must not block the user's deletion.
	require.NoError(t, eng.DeleteUser(user.ID))

	var nf *NotFoundError
	_, err = eng.GetUser(user.ID)
	require.ErrorAs(t, err, &nf)

	// The user's loan history went with them; the book is untouched.
	_, err = eng.GetLoan(loan.ID)
	require.ErrorAs(t, err, &nf)
	book, err = eng.GetBook(book.ID)
	require.NoError(t, err)
	assert.True(t, book.Available)
	checkAvailabilityInvariant(t, eng)
}

func TestDeleteBookAfterReturnedLoan(t *testing.T) {
	eng := newEngine(t)

	user, err := eng.CreateUser(&User{FirstName: "Ada", LastName: "Lovelace", NationalID: "111", Email: "ada@example.com"})
	require.NoError(t, err)
	book, err := eng.CreateBook(&Book{Title: "Dune", Author: "Frank Herbert", Year: 1965})
	require.NoError(t, err)

	loan, err := eng.CreateLoan(book.ID, user.ID, "2024-01-01")
	require.NoError(t, err)
	require.NoError(t, eng.ReturnLoan(loan.ID))

	// A returned loan must not block the book's deletion either.
	require.NoError(t, eng.DeleteBook(book.ID))

	var nf *NotFoundError
	_, err = eng.GetBook(book.ID)
	require.ErrorAs(t, err, &nf)
	_, err = eng.GetLoan(loan.ID)
	require.ErrorAs(t, err, &nf)

	// The user survives with no loans left.
	_, err = eng.GetUser(user.ID)
	require.NoError(t, err)
	loans, err := eng.ListLoans("")
	require.NoError(t, err)
	assert.Empty(t, loans)
}

func TestBookValidation(t *testing.T) {
	eng := newEngine(t)

	var verr *ValidationError
	_, err := eng.CreateBook(&Book{Author: "A", Year: 2000})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	_, err = eng.CreateBook(&Book{Title: "T", Author: "A", Year: 0})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "year", verr.Field)

	_, err = eng.CreateBook(&Book{Title: "T", Author: "A", Year: 10001})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "year", verr.Field)

	_, err = eng.CreateBook(&Book{Title: "T", Author: "A", Year: 1})
	require.NoError(t, err)
	_, err = eng.CreateBook(&Book{Title: "T2", Author: "A", Year: 10000})
	require.NoError(t, err)
}

func TestBookCategoryMustExist(t *testing.T) {
	eng := newEngine(t)

	var dangling *DanglingReferenceError
	_, err := eng.CreateBook(&Book{Title: "T", Author: "A", Year: 2000, CategoryID: 77})
	require.ErrorAs(t, err, &dangling)
	assert.Equal(t, KindCategory, dangling.Kind)

	// No category at all is fine.
	book, err := eng.CreateBook(&Book{Title: "T", Author: "A", Year: 2000})
	require.NoError(t, err)
	assert.Zero(t, book.CategoryID)
}

func TestAvailabilityIsEngineManaged(t *testing.T) {
	eng := newEngine(t)

	// Available=false in the payload is ignored on create.
	book, err := eng.CreateBook(&Book{Title: "T", Author: "A", Year: 2000, Available: false})
	require.NoError(t, err)
	assert.True(t, book.Available)

	user, err := eng.CreateUser(&User{FirstName: "F", LastName: "L", NationalID: "1", Email: "f@l.cc"})
	require.NoError(t, err)
	_, err = eng.CreateLoan(book.ID, user.ID, "2024-01-01")
	require.NoError(t, err)

	// Available=true in an update payload must not free a loaned book.
	book.Available = true
	book.Title = "T, revised"
	updated, err := eng.UpdateBook(book.ID, book)
	require.NoError(t, err)
	assert.Equal(t, "T, revised", updated.Title)
	assert.False(t, updated.Available)

	checkAvailabilityInvariant(t, eng)
}

func TestLoanDateValidation(t *testing.T) {
	eng := newEngine(t)

	book, err := eng.CreateBook(&Book{Title: "T", Author: "A", Year: 2000})
	require.NoError(t, err)
	user, err := eng.CreateUser(&User{FirstName: "F", LastName: "L", NationalID: "1", Email: "f@l.cc"})
	require.NoError(t, err)

	var verr *ValidationError
	for _, bad := range []string{"", "01-01-2024", "2024/01/01", "2024-13-01", "yesterday"} {
		_, err = eng.CreateLoan(book.ID, user.ID, bad)
		require.ErrorAs(t, err, &verr, "date %q should be rejected", bad)
		assert.Equal(t, "loan_date", verr.Field)
	}

	// A rejected date lends nothing.
	fresh, err := eng.GetBook(book.ID)
	require.NoError(t, err)
	assert.True(t, fresh.Available)
}

func TestFullLoanScenario(t *testing.T) {
	eng := newEngine(t)

	book, err := eng.CreateBook(&Book{Title: "X", Author: "Y", Year: 2020})
	require.NoError(t, err)
	assert.True(t, book.Available)

	user, err := eng.CreateUser(&User{FirstName: "F", LastName: "L", NationalID: "42", Email: "f@l.cc"})
	require.NoError(t, err)

	loan, err := eng.CreateLoan(book.ID, user.ID, "2024-01-01")
	require.NoError(t, err)

	book, err = eng.GetBook(book.ID)
	require.NoError(t, err)
	assert.False(t, book.Available)
	checkAvailabilityInvariant(t, eng)

	// A second loan for the still-loaned book fails.
	_, err = eng.CreateLoan(book.ID, user.ID, "2024-01-02")
	var unavailable *BookUnavailableError
	require.ErrorAs(t, err, &unavailable)

	require.NoError(t, eng.ReturnLoan(loan.ID))

	loan, err = eng.GetLoan(loan.ID)
	require.NoError(t, err)
	assert.True(t, loan.Returned)

	book, err = eng.GetBook(book.ID)
	require.NoError(t, err)
	assert.True(t, book.Available)
	checkAvailabilityInvariant(t, eng)
}

func TestDeleteActiveLoanReleasesBook(t *testing.T) {
	eng := newEngine(t)

	book, err := eng.CreateBook(&Book{Title: "T", Author: "A", Year: 2000})
	require.NoError(t, err)
	user, err := eng.CreateUser(&User{FirstName: "F", LastName: "L", NationalID: "1", Email: "f@l.cc"})
	require.NoError(t, err)

	loan, err := eng.CreateLoan(book.ID, user.ID, "2024-01-01")
	require.NoError(t, err)

	// Deleting the active loan is an implicit return.
	require.NoError(t, eng.DeleteLoan(loan.ID))

	book, err = eng.GetBook(book.ID)
	require.NoError(t, err)
	assert.True(t, book.Available)

	var nf *NotFoundError
	_, err = eng.GetLoan(loan.ID)
	require.ErrorAs(t, err, &nf)
	checkAvailabilityInvariant(t, eng)
}

func TestDeleteReturnedLoanLeavesBookAlone(t *testing.T) {
	eng := newEngine(t)

	book, err := eng.CreateBook(&Book{Title: "T", Author: "A", Year: 2000})
	require.NoError(t, err)
	user, err := eng.CreateUser(&User{FirstName: "F", LastName: "L", NationalID: "1", Email: "f@l.cc"})
	require.NoError(t, err)

	first, err := eng.CreateLoan(book.ID, user.ID, "2024-01-01")
	require.NoError(t, err)
	require.NoError(t, eng.ReturnLoan(first.ID))

	// The book is out again on a second loan.
	_, err = eng.CreateLoan(book.ID, user.ID, "2024-02-01")
	require.NoError(t, err)

	// Deleting the old returned loan must not free the book.
	require.NoError(t, eng.DeleteLoan(first.ID))

	book, err = eng.GetBook(book.ID)
	require.NoError(t, err)
	assert.False(t, book.Available)
	checkAvailabilityInvariant(t, eng)
}

func TestListLoansJoined(t *testing.T) {
	eng := newEngine(t)

	book, err := eng.CreateBook(&Book{Title: "Dune", Author: "Frank Herbert", Year: 1965})
	require.NoError(t, err)
	other, err := eng.CreateBook(&Book{Title: "Emma", Author: "Jane Austen", Year: 1815})
	require.NoError(t, err)
	user, err := eng.CreateUser(&User{FirstName: "Paul", LastName: "Atreides", NationalID: "10191", Email: "paul@example.com"})
	require.NoError(t, err)

	older, err := eng.CreateLoan(book.ID, user.ID, "2024-01-01")
	require.NoError(t, err)
	newer, err := eng.CreateLoan(other.ID, user.ID, "2024-03-01")
	require.NoError(t, err)

	loans, err := eng.ListLoans("")
	require.NoError(t, err)
	require.Len(t, loans, 2)

	// Most recent first.
	assert.Equal(t, newer.ID, loans[0].ID)
	assert.Equal(t, older.ID, loans[1].ID)
	assert.Equal(t, "Dune", loans[1].BookTitle)
	assert.Equal(t, "Frank Herbert", loans[1].BookAuthor)
	assert.Equal(t, "Atreides, Paul", loans[1].UserName)
}

func TestListAvailableBooks(t *testing.T) {
	eng := newEngine(t)

	zebra, err := eng.CreateBook(&Book{Title: "Zebra", Author: "A", Year: 2000})
	require.NoError(t, err)
	_, err = eng.CreateBook(&Book{Title: "Aardvark", Author: "B", Year: 2001})
	require.NoError(t, err)
	user, err := eng.CreateUser(&User{FirstName: "F", LastName: "L", NationalID: "1", Email: "f@l.cc"})
	require.NoError(t, err)

	_, err = eng.CreateLoan(zebra.ID, user.ID, "2024-01-01")
	require.NoError(t, err)

	avail, err := eng.ListAvailableBooks()
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, "Aardvark", avail[0].Title)
}

func TestPasswordAuth(t *testing.T) {
	eng := newEngine(t)

	user, err := eng.CreateUser(&User{FirstName: "F", LastName: "L", NationalID: "1", Email: "f@l.cc"})
	require.NoError(t, err)

	// No password set yet: authentication is impossible.
	require.Error(t, eng.AuthenticateUser(user.ID, "anything"))

	require.NoError(t, eng.SetUserPassword(user.ID, "s3cret"))
	require.NoError(t, eng.AuthenticateUser(user.ID, "s3cret"))
	require.Error(t, eng.AuthenticateUser(user.ID, "wrong"))

	// The hash never leaves through listings.
	users, err := eng.ListUsers("")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].PasswordHash)
}

func TestCreateUserRoundTrip(t *testing.T) {
	eng := newEngine(t)

	in := &User{FirstName: "Ada", LastName: "Lovelace", NationalID: "11222333", Email: "ada@example.com"}
	created, err := eng.CreateUser(in)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := eng.GetUser(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, in.FirstName, got.FirstName)
	assert.Equal(t, in.LastName, got.LastName)
	assert.Equal(t, in.NationalID, got.NationalID)
	assert.Equal(t, in.Email, got.Email)
}
