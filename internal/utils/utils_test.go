package utils

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsPGUniqueViolation(t *testing.T) {
	if !IsPGUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("23505 should be reported as a unique violation")
	}
	if IsPGUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation is not a unique violation")
	}
	if IsPGUniqueViolation(errors.New("plain error")) {
		t.Error("non-pg errors are not unique violations")
	}
	if IsPGUniqueViolation(nil) {
		t.Error("nil is not a unique violation")
	}
}

func TestFoldFullWidthASCII(t *testing.T) {
	cases := map[string]string{
		"ＩＤ":     "ID",
		"ｉｄ":     "id",
		"ID":     "ID",
		"タスク":    "タスク", // non-ASCII wide chars untouched
		"Ａ１！":    "A1!",
		"mix ＩD": "mix ID",
		"":       "",
	}
	for in, want := range cases {
		if got := FoldFullWidthASCII(in); got != want {
			t.Errorf("FoldFullWidthASCII(%q) = %q, want %q", in, got, want)
		}
	}
}
