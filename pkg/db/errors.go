package db

import "strings"

// IsUniqueViolation reports whether the provided error is a unique
// constraint violation. When constraintName is given, Postgres errors must
// name that constraint; SQLite reports the table.column instead of the
// index name, so any unique failure on that backend matches.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return true
	}
	if !strings.Contains(msg, "duplicate key value") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}
