package utils

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// IsPGUniqueViolation reports whether error is PostgreSQL unique constraint violation (code 23505).
func IsPGUniqueViolation(err error) bool {
	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		return pge.Code == "23505"
	}
	return false
}

// FoldFullWidthASCII maps full-width ASCII variants (Ｕ+FF01..Ｕ+FF5E) to
// their half-width forms, so "ＩＤ" compares equal to "ID".
func FoldFullWidthASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 0xFF01 && r <= 0xFF5E {
			r = r - 0xFF01 + '!'
		}
		b.WriteRune(r)
	}
	return b.String()
}
