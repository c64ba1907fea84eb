package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_reviews_user_product"}
	wrapped := fmt.Errorf("insert review: %w", pgErr)

	if !IsUniqueViolation(wrapped, "") {
		t.Fatal("expected unique violation")
	}
	if !IsUniqueViolation(wrapped, "idx_reviews_user_product") {
		t.Fatal("expected constraint match")
	}
	if IsUniqueViolation(wrapped, "idx_users_email_lower") {
		t.Fatal("did not expect other constraint to match")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: reviews.user_id, reviews.product_id"), "") {
		t.Fatal("expected sqlite message to match")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil is never a violation")
	}
}

func TestIsCheckAndForeignKeyViolation(t *testing.T) {
	if !IsCheckViolation(&pgconn.PgError{Code: "23514", ConstraintName: "products_stock_check"}, "products_stock_check") {
		t.Fatal("expected check violation")
	}
	if IsCheckViolation(&pgconn.PgError{Code: "23505"}, "") {
		t.Fatal("unique is not a check violation")
	}
	if !IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("expected fk violation")
	}
}
