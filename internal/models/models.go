// Package models defines data structures used throughout the feedback board.
package models

import (
	"database/sql"
)

// Identity is the authenticated submitter, as handed over by the identity provider.
// A nil *Identity means an anonymous caller.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// LeaderboardEntry is one ranked contributor. Entries are recomputed per request.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	Name        string `json:"name"`
	MaskedEmail string `json:"email"`
	Count       int    `json:"count"`
}

// NullStringToPointer converts a nullable column into an optional string.
func NullStringToPointer(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

// PointerToNullString is the inverse of NullStringToPointer.
func PointerToNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
