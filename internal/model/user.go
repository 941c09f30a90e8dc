// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// WHY PasswordHash WITH json:"-"?
// The bcrypt hash must NEVER appear in an API response. The `json:"-"` tag
// tells encoding/json to skip the field entirely — even if a handler
// accidentally serializes a full User, the hash stays server-side.
//
// WHY Snippets []string AND NOT []Snippet?
// The user endpoints are read-only projections; embedding full snippet
// records would duplicate the snippet list endpoint. Exposing just the IDs
// of owned snippets keeps the payload small and lets clients follow up with
// GET /snippets/{id} when they care. The slice is populated by the
// repository on read, not stored as a column.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Snippets     []string  `json:"snippets"` // IDs of snippets owned by this user
	Created      time.Time `json:"created"`
}
