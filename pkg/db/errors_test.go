package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	pgDuplicate := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	pgOther := &pgconn.PgError{Code: "23503", ConstraintName: "items_owner_fkey"}

	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"nil", nil, "users_email_key", false},
		{"pg duplicate, matching constraint", pgDuplicate, "users_email_key", true},
		{"pg duplicate, any constraint", pgDuplicate, "", true},
		{"pg duplicate, other constraint", pgDuplicate, "store_tags_pkey", false},
		{"pg foreign key violation", pgOther, "", false},
		{"wrapped pg duplicate", fmt.Errorf("creating user: %w", pgDuplicate), "users_email_key", true},
		{"lib-style message with constraint", errors.New(`duplicate key value violates unique constraint "users_email_key"`), "users_email_key", true},
		{"lib-style message, other constraint", errors.New(`duplicate key value violates unique constraint "store_tags_pkey"`), "users_email_key", false},
		{"sqlite duplicate", errors.New("UNIQUE constraint failed: users.email"), "users_email_key", true},
		{"sqlite duplicate, no constraint requested", errors.New("UNIQUE constraint failed: users.email"), "", true},
		{"unrelated error", errors.New("connection refused"), "users_email_key", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
				t.Fatalf("IsUniqueViolation(%v, %q) = %v, want %v", tc.err, tc.constraint, got, tc.want)
			}
		})
	}
}
