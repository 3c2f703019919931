package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolationPostgres(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"}

	if !IsUniqueViolation(unique, "idx_users_email") {
		t.Fatal("expected match on named constraint")
	}
	if !IsUniqueViolation(fmt.Errorf("creating user: %w", unique), "idx_users_email") {
		t.Fatal("expected match through wrapped error")
	}
	if IsUniqueViolation(unique, "idx_invoices_reference_number") {
		t.Fatal("matched a different constraint")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503", ConstraintName: "idx_users_email"}, "idx_users_email") {
		t.Fatal("matched a non-unique SQLSTATE")
	}
	if !IsUniqueViolation(unique, "") {
		t.Fatal("expected empty constraint to match any unique violation")
	}
}

func TestIsUniqueViolationSqlite(t *testing.T) {
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: users.email"), "idx_users_email") {
		t.Fatal("expected match on colliding column")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: documents.linked_kind, documents.linked_id"), "idx_documents_linked") {
		t.Fatal("expected match on composite index columns")
	}
	// A primary key collision on the same table is a different constraint.
	if IsUniqueViolation(errors.New("UNIQUE constraint failed: users.id"), "idx_users_email") {
		t.Fatal("primary key collision matched the email index")
	}
	if IsUniqueViolation(errors.New("no such table: users"), "idx_users_email") {
		t.Fatal("matched an unrelated error")
	}
	if IsUniqueViolation(nil, "idx_users_email") {
		t.Fatal("matched nil")
	}
}
