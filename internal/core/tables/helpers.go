package tables

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/cadastre/internal/core"
)

// DefaultCurrency fills currency columns left blank or absent.
var DefaultCurrency = "XOF"

func currency(v core.Values, i int) pgtype.Text {
	t := v.TextOr(i, DefaultCurrency)
	t.String = strings.ToUpper(t.String)
	return t
}

// requireText skips the row when the text at i is blank.
func requireText(v core.Values, i int, column string) (pgtype.Text, error) {
	t := v.Text(i)
	if !t.Valid {
		return t, core.Skipf("missing %s", column)
	}
	return t, nil
}

// nonNegative nulls out negative measurements.
func nonNegative(f pgtype.Float8) pgtype.Float8 {
	if f.Valid && f.Float64 < 0 {
		return pgtype.Float8{Valid: false}
	}
	return f
}

func lower(t pgtype.Text) pgtype.Text {
	if t.Valid {
		t.String = strings.ToLower(t.String)
	}
	return t
}
