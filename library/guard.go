package library

import "fmt"

// Guard validates uniqueness, reference validity, and dependent records before
// a mutation is committed. Every check is read-only; checks run against the
// querier of the transaction that will commit the guarded write, so the check
// and the write observe the same state.
type Guard struct{}

var uniqueColumns = map[Kind]map[string]string{
	KindCategory: {"name": "SELECT COUNT(*) FROM categories WHERE name=? AND id<>?"},
	KindUser:     {"national_id": "SELECT COUNT(*) FROM users WHERE national_id=? AND id<>?"},
}

// CheckUnique reports a UniquenessError when another record of the kind
// already holds value in the named field. excludeID skips the record being
// updated so a record never collides with itself.
func (g Guard) CheckUnique(q querier, kind Kind, field, value string, excludeID int64) error {
	query, ok := uniqueColumns[kind][field]
	if !ok {
		return fmt.Errorf("no uniqueness rule for %s.%s", kind, field)
	}
	var n int
	if err := q.QueryRow(query, value, excludeID).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return &UniquenessError{Kind: kind, Field: field, Value: value}
	}
	return nil
}

// Loans are never the target of a reference; they resolve by direct lookup.
var existsQueries = map[Kind]string{
	KindCategory: "SELECT EXISTS(SELECT 1 FROM categories WHERE id=?)",
	KindUser:     "SELECT EXISTS(SELECT 1 FROM users WHERE id=?)",
	KindBook:     "SELECT EXISTS(SELECT 1 FROM books WHERE id=?)",
}

// CheckReferenceExists reports a DanglingReferenceError when no record of the
// kind has the given id.
func (g Guard) CheckReferenceExists(q querier, kind Kind, id int64) error {
	query, ok := existsQueries[kind]
	if !ok {
		return fmt.Errorf("no existence rule for %s", kind)
	}
	var exists bool
	if err := q.QueryRow(query, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return &DanglingReferenceError{Kind: kind, ID: id}
	}
	return nil
}

// dependentRules fixes, per kind, what blocks a delete: a category is held by
// any book referencing it, a user or book by any loan not yet returned.
var dependentRules = map[Kind]struct {
	query     string
	dependent Kind
}{
	KindCategory: {"SELECT COUNT(*) FROM books WHERE category_id=?", KindBook},
	KindUser:     {"SELECT COUNT(*) FROM loans WHERE user_id=? AND returned=0", KindLoan},
	KindBook:     {"SELECT COUNT(*) FROM loans WHERE book_id=? AND returned=0", KindLoan},
}

// CheckNoDependents reports a DependencyError when records still reference the
// target, blocking its deletion.
func (g Guard) CheckNoDependents(q querier, kind Kind, id int64) error {
	rule, ok := dependentRules[kind]
	if !ok {
		return fmt.Errorf("no dependency rule for %s", kind)
	}
	var n int
	if err := q.QueryRow(rule.query, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return &DependencyError{Kind: kind, ID: id, Dependent: rule.dependent}
	}
	return nil
}
