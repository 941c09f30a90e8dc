// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// The service layer is where the snippet contract actually lives: field
// validation against the highlight registry, owner immutability, the
// access-control check before every mutation, and the recomputation of the
// cached HTML rendering on every save. Handlers only translate HTTP to and
// from these calls; repositories only move structs in and out of SQL.
//
// Everything the service depends on arrives through its constructor — the
// repository and renderer as interfaces, the policy as an interface — so
// tests swap in in-memory fakes with no database and no Chroma.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippetbin/internal/apperror"
	"github.com/sakif/snippetbin/internal/highlight"
	"github.com/sakif/snippetbin/internal/model"
	"github.com/sakif/snippetbin/internal/policy"
	"github.com/sakif/snippetbin/internal/repository"
)

// MaxTitleLength bounds the optional snippet title.
const MaxTitleLength = 100

// Renderer is the slice of the highlight package the service needs.
// Declared here (consumer side) so tests can substitute a fake that returns
// canned HTML instead of running Chroma.
type Renderer interface {
	Render(code, language, style, title string, lineNumbers bool) (string, error)
}

// SnippetService handles business logic for snippets.
type SnippetService struct {
	repo     repository.SnippetRepository
	renderer Renderer
	authz    policy.Authorizer
	logger   *slog.Logger
}

// NewSnippetService creates a SnippetService. The caller (server wiring)
// decides which repository, renderer, and policy implementations to use.
func NewSnippetService(
	repo repository.SnippetRepository,
	renderer Renderer,
	authz policy.Authorizer,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		repo:     repo,
		renderer: renderer,
		authz:    authz,
		logger:   logger,
	}
}

// CreateSnippetInput carries the client-supplied fields of a new snippet.
// Empty Language/Style mean "use the defaults" (python/friendly).
type CreateSnippetInput struct {
	Title    string
	Code     string
	Linenos  bool
	Language string
	Style    string
}

// UpdateSnippetInput carries a partial update. nil means "leave unchanged",
// which is how PATCH semantics reach the service; the PUT handler fills
// every field.
//
// Owner is only ever compared, never applied: the owner of a snippet is set
// at creation and immutable after. A payload naming a different owner is a
// validation error; naming the current owner (or omitting it) is accepted
// and ignored.
type UpdateSnippetInput struct {
	Title    *string
	Code     *string
	Linenos  *bool
	Language *string
	Style    *string
	Owner    *string
}

// Create validates, renders, and persists a new snippet owned by ownerID.
//
// ORDER OF OPERATIONS:
//  1. policy check (deny means nothing is ever persisted)
//  2. field validation against the highlight registry
//  3. highlight rendering (pure computation)
//  4. single INSERT carrying code and rendering together
//
// The rendering happens BEFORE the write on purpose: if Chroma fails, the
// create fails with no record left behind, and if the write succeeds the
// stored rendering matches the stored code by construction.
func (s *SnippetService) Create(ctx context.Context, ownerID string, in CreateSnippetInput) (*model.Snippet, error) {
	if err := s.authz.Authorize(ownerID, policy.OpCreate, nil); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	language := in.Language
	style := in.Style
	if language == "" {
		language = model.DefaultLanguage
	}
	if style == "" {
		style = model.DefaultStyle
	}

	if err := validateFields(title, in.Code, language, style); err != nil {
		return nil, err
	}

	highlighted, err := s.renderer.Render(in.Code, language, style, title, in.Linenos)
	if err != nil {
		return nil, renderError(err)
	}

	snippet := &model.Snippet{
		Title:       title,
		Code:        in.Code,
		Linenos:     in.Linenos,
		Language:    language,
		Style:       style,
		OwnerID:     ownerID,
		Highlighted: highlighted,
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("owner", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("owner", snippet.Owner),
		slog.String("language", snippet.Language),
	)

	return snippet, nil
}

// GetByID retrieves a snippet. Reads are public — no actor required.
func (s *SnippetService) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	return s.repo.GetByID(ctx, id)
}

// List retrieves snippets in creation order (oldest first). limit of 0
// returns everything; limit and offset exist for clients that want pages.
func (s *SnippetService) List(ctx context.Context, limit, offset int) ([]model.Snippet, error) {
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}

	snippets, err := s.repo.List(ctx, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}

	return snippets, nil
}

// Update applies a partial or full update to an existing snippet as actorID.
//
// "Fetch, authorize, merge, re-render, save":
//   - fetch first, so an unknown id is a 404 no matter who asks
//   - then the policy check, so a non-owner gets 403 with zero side effects
//   - merge the provided fields over the stored record and validate the
//     result, not the delta — a PATCH that only changes `style` still has
//     its language/style pair checked as a whole
//   - re-render the highlight from the MERGED fields and write it in the
//     same UPDATE as the fields themselves
func (s *SnippetService) Update(ctx context.Context, id, actorID string, in UpdateSnippetInput) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authz.Authorize(actorID, policy.OpMutate, snippet); err != nil {
		return nil, err
	}

	// Owner is immutable. Echoing the current owner back is harmless (PUT
	// clients resubmit what they fetched); anything else is rejected.
	if in.Owner != nil && *in.Owner != snippet.Owner {
		return nil, apperror.ValidationFailed("owner", "owner cannot be changed")
	}

	if in.Title != nil {
		snippet.Title = strings.TrimSpace(*in.Title)
	}
	if in.Code != nil {
		snippet.Code = *in.Code
	}
	if in.Linenos != nil {
		snippet.Linenos = *in.Linenos
	}
	if in.Language != nil {
		snippet.Language = *in.Language
	}
	if in.Style != nil {
		snippet.Style = *in.Style
	}

	if err := validateFields(snippet.Title, snippet.Code, snippet.Language, snippet.Style); err != nil {
		return nil, err
	}

	highlighted, err := s.renderer.Render(snippet.Code, snippet.Language, snippet.Style, snippet.Title, snippet.Linenos)
	if err != nil {
		return nil, renderError(err)
	}
	snippet.Highlighted = highlighted

	if err := s.repo.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated",
		slog.String("id", snippet.ID),
		slog.String("actor", actorID),
	)

	return snippet, nil
}

// Delete removes a snippet permanently, owner only. Same fetch-then-
// authorize ordering as Update: unknown id → 404, non-owner → 403.
func (s *SnippetService) Delete(ctx context.Context, id, actorID string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.authz.Authorize(actorID, policy.OpMutate, snippet); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted",
		slog.String("id", id),
		slog.String("actor", actorID),
	)
	return nil
}

// GetHighlighted returns the stored HTML rendering of a snippet.
//
// This NEVER re-renders: the value was computed at the last successful save
// and is consistent with the stored fields by the atomicity of that save.
// Serving the cached copy is the whole point of materializing it.
func (s *SnippetService) GetHighlighted(ctx context.Context, id string) (string, error) {
	snippet, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return snippet.Highlighted, nil
}

// validateFields checks the client-writable snippet fields. Language and
// style membership comes from the highlight registry — the accepted set is
// whatever the highlighting library registers, not a list maintained here.
func validateFields(title, code, language, style string) error {
	if len(title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if code == "" {
		return apperror.ValidationFailed("code", "code is required")
	}
	if !highlight.SupportedLanguage(language) {
		return apperror.ValidationFailed("language",
			fmt.Sprintf("%q is not a supported language", language))
	}
	if !highlight.SupportedStyle(style) {
		return apperror.ValidationFailed("style",
			fmt.Sprintf("%q is not a supported style", style))
	}
	return nil
}

// renderError maps renderer failures onto the error taxonomy. With
// validation upstream these should not fire, but the renderer checks its
// registries independently and we keep the mapping honest.
func renderError(err error) error {
	switch {
	case errors.Is(err, highlight.ErrUnsupportedLanguage):
		return apperror.ValidationFailed("language", err.Error())
	case errors.Is(err, highlight.ErrUnsupportedStyle):
		return apperror.ValidationFailed("style", err.Error())
	default:
		return fmt.Errorf("rendering highlight: %w", err)
	}
}
