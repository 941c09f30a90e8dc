// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Snippet represents a stored code snippet plus its rendering metadata.
//
// The `json:"..."` tags tell Go's encoding/json package how to serialize/deserialize
// this struct to/from JSON. This is called a "struct tag" — metadata attached to fields.
//
// TWO FIELDS NEVER LEAVE THROUGH JSON:
//   - OwnerID is the internal foreign key. The API exposes the owner's
//     username instead (the Owner field below), which reads better in
//     responses and doesn't leak internal identifiers.
//   - Highlighted is the cached HTML rendering of Code. It is a complete
//     HTML document (potentially large) and has its own endpoint
//     (GET /snippets/{id}/highlight), so `json:"-"` keeps it out of the
//     CRUD responses entirely.
//
// Highlighted is DERIVED data: it is recomputed from Code, Language, Style,
// Linenos, and Title on every save. Clients can never write it directly, and
// it is never stale relative to a committed write — both halves of a save go
// into the database in a single statement.
type Snippet struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Code        string    `json:"code"`
	Linenos     bool      `json:"linenos"`
	Language    string    `json:"language"`
	Style       string    `json:"style"`
	OwnerID     string    `json:"-"`
	Owner       string    `json:"owner"` // owner's username, read-only
	Highlighted string    `json:"-"`
	Created     time.Time `json:"created"`
}

// Field defaults. A create request that omits language or style gets these
// values — both must exist in the highlight registry.
const (
	DefaultLanguage = "python"
	DefaultStyle    = "friendly"
)
