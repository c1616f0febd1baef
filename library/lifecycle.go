package library

import "database/sql"

// Lifecycle owns the Book.Available / Loan.Returned state machine. A book
// moves between Available and Loaned; a loan moves from Active to Returned
// exactly once. No other component flips availability.
type Lifecycle struct {
	db    *Database
	guard Guard
}

// CreateLoan lends the book to the user on the given date (YYYY-MM-DD, already
// validated by the caller). The loan insert and the availability flip commit
// in one transaction.
func (lc *Lifecycle) CreateLoan(bookID, userID int64, date string) (int64, error) {
	tx, err := lc.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := lc.guard.CheckReferenceExists(tx, KindBook, bookID); err != nil {
		return 0, err
	}
	if err := lc.guard.CheckReferenceExists(tx, KindUser, userID); err != nil {
		return 0, err
	}

	var avail bool
	if err := tx.QueryRow(`SELECT available FROM books WHERE id=?`, bookID).Scan(&avail); err != nil {
		return 0, err
	}
	if !avail {
		return 0, &BookUnavailableError{BookID: bookID}
	}

	res, err := tx.Exec(`INSERT INTO loans(book_id,user_id,loan_date,returned) VALUES(?,?,?,0)`, bookID, userID, date)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(`UPDATE books SET available=0 WHERE id=?`, bookID); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// ReturnLoan marks the loan returned and restores the book's availability
// atomically. A loan can only be returned once.
func (lc *Lifecycle) ReturnLoan(loanID int64) error {
	tx, err := lc.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	loan, err := getLoan(tx, loanID)
	if err != nil {
		return err
	}
	if loan.Returned {
		return &AlreadyReturnedError{LoanID: loanID}
	}

	if _, err := tx.Exec(`UPDATE loans SET returned=1 WHERE id=?`, loanID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE books SET available=1 WHERE id=?`, loan.BookID); err != nil {
		return err
	}
	return tx.Commit()
}

// forceRelease restores the availability of the book held by an active loan
// without marking the loan returned. Invoked only while deleting an active
// loan, inside the deletion's transaction; the loan row is about to go away.
func (lc *Lifecycle) forceRelease(tx *sql.Tx, loan *Loan) error {
	_, err := tx.Exec(`UPDATE books SET available=1 WHERE id=?`, loan.BookID)
	return err
}
