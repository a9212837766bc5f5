package utils

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// ToNullString converts an optional domain field to a pgtype.Text.
// A nil pointer is stored as NULL.
func ToNullString(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{
		String: *s,
		Valid:  true,
	}
}

// FromNullString converts a nullable column back to an optional domain field.
func FromNullString(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
