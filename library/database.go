package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// querier is the read surface shared by *sql.DB and *sql.Tx, so integrity
// checks can run inside the transaction that commits the mutation they guard.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

// execer is the write surface shared by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Database provides high-level helpers around a SQLite connection. It owns
// primary-key generation and raw persistence for the four record kinds.
type Database struct {
	db *sql.DB

	addCategoryStmt *sql.Stmt
	addUserStmt     *sql.Stmt
	addBookStmt     *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	for _, stmt := range []*sql.Stmt{d.addCategoryStmt, d.addUserStmt, d.addBookStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return d.db.Close()
}

// Begin starts a transaction. Multi-record operations compose their guard
// checks and writes inside one transaction so they commit all-or-nothing.
func (d *Database) Begin() (*sql.Tx, error) {
	return d.db.Begin()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS categories (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL UNIQUE
        );`,
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            national_id TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL,
            password_hash TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            year INTEGER NOT NULL,
            category_id INTEGER REFERENCES categories(id),
            available BOOLEAN NOT NULL DEFAULT 1,
            image_url TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS loans (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_id INTEGER NOT NULL REFERENCES books(id),
            user_id INTEGER NOT NULL REFERENCES users(id),
            loan_date TEXT NOT NULL,
            returned BOOLEAN NOT NULL DEFAULT 0
        );`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.addCategoryStmt, err = d.db.Prepare(`INSERT INTO categories(name) VALUES(?)`); err != nil {
		return err
	}
	if d.addUserStmt, err = d.db.Prepare(`INSERT INTO users(first_name,last_name,national_id,email) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	if d.addBookStmt, err = d.db.Prepare(`INSERT INTO books(title,author,year,category_id,available,image_url) VALUES(?,?,?,?,1,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Ordering
// ---------------------------------------------------------------------------

// OrderBy selects the ordering of a list query. Each kind accepts its own
// keys; anything else is rejected rather than interpolated into SQL.
type OrderBy string

const (
	OrderCategoriesByName OrderBy = "name"
	OrderCategoriesByID   OrderBy = "id"

	OrderUsersByName OrderBy = "name"
	OrderUsersByID   OrderBy = "id"

	OrderBooksByTitle OrderBy = "title"
	OrderBooksByYear  OrderBy = "year"
	OrderBooksByID    OrderBy = "id"

	OrderLoansByDate OrderBy = "date"
	OrderLoansByID   OrderBy = "id"
)

func orderClause(allowed map[OrderBy]string, order OrderBy, def string) (string, error) {
	if order == "" {
		return def, nil
	}
	clause, ok := allowed[order]
	if !ok {
		return "", &ValidationError{Field: "order_by", Reason: fmt.Sprintf("unsupported order key %q", order)}
	}
	return clause, nil
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

// AddCategory inserts a category and returns its assigned id.
func (d *Database) AddCategory(name string) (int64, error) {
	res, err := d.addCategoryStmt.Exec(name)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, &UniquenessError{Kind: KindCategory, Field: "name", Value: name}
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (d *Database) UpdateCategory(id int64, name string) error {
	res, err := d.db.Exec(`UPDATE categories SET name=? WHERE id=?`, name, id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return &UniquenessError{Kind: KindCategory, Field: "name", Value: name}
		}
		return err
	}
	return requireAffected(res, KindCategory, id)
}

func (d *Database) deleteCategoryTx(ex execer, id int64) error {
	res, err := ex.Exec(`DELETE FROM categories WHERE id=?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, KindCategory, id)
}

func (d *Database) GetCategory(id int64) (*Category, error) {
	var c Category
	err := d.db.QueryRow(`SELECT id,name FROM categories WHERE id=?`, id).Scan(&c.ID, &c.Name)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: KindCategory, ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

var categoryOrders = map[OrderBy]string{
	OrderCategoriesByName: "name",
	OrderCategoriesByID:   "id",
}

func (d *Database) GetAllCategories(order OrderBy) ([]*Category, error) {
	clause, err := orderClause(categoryOrders, order, "name")
	if err != nil {
		return nil, err
	}
	rows, err := d.db.Query(`SELECT id,name FROM categories ORDER BY ` + clause)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// AddUser inserts a user and returns the assigned id.
func (d *Database) AddUser(u *User) (int64, error) {
	res, err := d.addUserStmt.Exec(u.FirstName, u.LastName, u.NationalID, u.Email)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, &UniquenessError{Kind: KindUser, Field: "national_id", Value: u.NationalID}
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (d *Database) UpdateUser(id int64, u *User) error {
	res, err := d.db.Exec(`UPDATE users SET first_name=?, last_name=?, national_id=?, email=? WHERE id=?`,
		u.FirstName, u.LastName, u.NationalID, u.Email, id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return &UniquenessError{Kind: KindUser, Field: "national_id", Value: u.NationalID}
		}
		return err
	}
	return requireAffected(res, KindUser, id)
}

// UpdateUserPassword stores a new password hash for the user.
func (d *Database) UpdateUserPassword(id int64, hash string) error {
	res, err := d.db.Exec(`UPDATE users SET password_hash=? WHERE id=?`, hash, id)
	if err != nil {
		return err
	}
	return requireAffected(res, KindUser, id)
}

func (d *Database) deleteUserTx(ex execer, id int64) error {
	res, err := ex.Exec(`DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, KindUser, id)
}

func (d *Database) GetUser(id int64) (*User, error) {
	var u User
	err := d.db.QueryRow(`SELECT id,first_name,last_name,national_id,email,password_hash FROM users WHERE id=?`, id).
		Scan(&u.ID, &u.FirstName, &u.LastName, &u.NationalID, &u.Email, &u.PasswordHash)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: KindUser, ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

var userOrders = map[OrderBy]string{
	OrderUsersByName: "last_name, first_name",
	OrderUsersByID:   "id",
}

func (d *Database) GetAllUsers(order OrderBy) ([]*User, error) {
	clause, err := orderClause(userOrders, order, "last_name, first_name")
	if err != nil {
		return nil, err
	}
	rows, err := d.db.Query(`SELECT id,first_name,last_name,national_id,email FROM users ORDER BY ` + clause)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.NationalID, &u.Email); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

// AddBook inserts a book and returns the assigned id. New books are always
// available; the caller's Available field is ignored.
func (d *Database) AddBook(b *Book) (int64, error) {
	res, err := d.addBookStmt.Exec(b.Title, b.Author, b.Year, nullableID(b.CategoryID), b.ImageURL)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateBook rewrites the book's descriptive fields. Availability is not
// touched here; only loan operations change it.
func (d *Database) UpdateBook(id int64, b *Book) error {
	res, err := d.db.Exec(`UPDATE books SET title=?, author=?, year=?, category_id=?, image_url=? WHERE id=?`,
		b.Title, b.Author, b.Year, nullableID(b.CategoryID), b.ImageURL, id)
	if err != nil {
		return err
	}
	return requireAffected(res, KindBook, id)
}

func (d *Database) deleteBookTx(ex execer, id int64) error {
	res, err := ex.Exec(`DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, KindBook, id)
}

func (d *Database) GetBook(id int64) (*Book, error) {
	return getBook(d.db, id)
}

func getBook(q querier, id int64) (*Book, error) {
	var b Book
	err := q.QueryRow(`SELECT id,title,author,year,COALESCE(category_id,0),available,image_url FROM books WHERE id=?`, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.Year, &b.CategoryID, &b.Available, &b.ImageURL)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: KindBook, ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

var bookOrders = map[OrderBy]string{
	OrderBooksByTitle: "b.title",
	OrderBooksByYear:  "b.year, b.title",
	OrderBooksByID:    "b.id",
}

// GetAllBooks returns books joined with their category name.
func (d *Database) GetAllBooks(order OrderBy) ([]*BookDetail, error) {
	clause, err := orderClause(bookOrders, order, "b.title")
	if err != nil {
		return nil, err
	}
	rows, err := d.db.Query(`
        SELECT b.id, b.title, b.author, b.year, COALESCE(b.category_id,0), b.available, b.image_url, COALESCE(c.name,'')
        FROM books b
        LEFT JOIN categories c ON c.id = b.category_id
        ORDER BY ` + clause)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*BookDetail
	for rows.Next() {
		var b BookDetail
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Year, &b.CategoryID, &b.Available, &b.ImageURL, &b.CategoryName); err != nil {
			return nil, err
		}
		books = append(books, &b)
	}
	return books, rows.Err()
}

// GetAvailableBooks returns books currently available for loan, title order.
func (d *Database) GetAvailableBooks() ([]*Book, error) {
	rows, err := d.db.Query(`SELECT id,title,author,year,COALESCE(category_id,0),available,image_url FROM books WHERE available=1 ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Year, &b.CategoryID, &b.Available, &b.ImageURL); err != nil {
			return nil, err
		}
		books = append(books, &b)
	}
	return books, rows.Err()
}

// ---------------------------------------------------------------------------
// Loans
// ---------------------------------------------------------------------------

func (d *Database) GetLoan(id int64) (*Loan, error) {
	return getLoan(d.db, id)
}

func getLoan(q querier, id int64) (*Loan, error) {
	var l Loan
	err := q.QueryRow(`SELECT id,book_id,user_id,loan_date,returned FROM loans WHERE id=?`, id).
		Scan(&l.ID, &l.BookID, &l.UserID, &l.LoanDate, &l.Returned)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: KindLoan, ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

var loanOrders = map[OrderBy]string{
	OrderLoansByDate: "l.loan_date DESC",
	OrderLoansByID:   "l.id",
}

// GetAllLoans returns loans joined with book and user display fields,
// most recent first by default.
func (d *Database) GetAllLoans(order OrderBy) ([]*LoanDetail, error) {
	clause, err := orderClause(loanOrders, order, "l.loan_date DESC")
	if err != nil {
		return nil, err
	}
	rows, err := d.db.Query(`
        SELECT l.id, l.book_id, l.user_id, l.loan_date, l.returned,
               b.title, b.author, u.last_name || ', ' || u.first_name
        FROM loans l
        JOIN books b ON b.id = l.book_id
        JOIN users u ON u.id = l.user_id
        ORDER BY ` + clause)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*LoanDetail
	for rows.Next() {
		var l LoanDetail
		if err := rows.Scan(&l.ID, &l.BookID, &l.UserID, &l.LoanDate, &l.Returned, &l.BookTitle, &l.BookAuthor, &l.UserName); err != nil {
			return nil, err
		}
		loans = append(loans, &l)
	}
	return loans, rows.Err()
}

// deleteReturnedLoansByUserTx removes the user's returned loan history so the
// user row can go; active loans are the caller's problem to check first.
func (d *Database) deleteReturnedLoansByUserTx(ex execer, userID int64) error {
	_, err := ex.Exec(`DELETE FROM loans WHERE user_id=? AND returned=1`, userID)
	return err
}

// deleteReturnedLoansByBookTx removes the book's returned loan history so the
// book row can go.
func (d *Database) deleteReturnedLoansByBookTx(ex execer, bookID int64) error {
	_, err := ex.Exec(`DELETE FROM loans WHERE book_id=? AND returned=1`, bookID)
	return err
}

func (d *Database) deleteLoanTx(ex execer, id int64) error {
	res, err := ex.Exec(`DELETE FROM loans WHERE id=?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, KindLoan, id)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// requireAffected turns a zero-row write into a NotFoundError.
func requireAffected(res sql.Result, kind Kind, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

// nullableID maps the zero id to NULL so optional references stay optional.
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
