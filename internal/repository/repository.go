// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage implements them; tests substitute
// in-memory mocks. Programming against these interfaces (not *sqlite.DB)
// is what keeps the service layer storage-agnostic.
package repository

import (
	"context"

	"github.com/sakif/snippetbin/internal/model"
)

// ListOptions controls pagination of snippet listings.
// A Limit of 0 means "no limit" — the default listing returns every snippet
// in creation order.
type ListOptions struct {
	Limit  int
	Offset int
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id string) error
}

// UserRepository stores accounts. Create and GetByUsername exist for the
// register/login flow; the public user endpoints only ever read.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}
