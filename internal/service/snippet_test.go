package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sakif/snippetbin/internal/apperror"
	"github.com/sakif/snippetbin/internal/model"
	"github.com/sakif/snippetbin/internal/policy"
	"github.com/sakif/snippetbin/internal/repository"
)

// mockSnippetRepo is an in-memory repository.SnippetRepository. No database
// setup, tests run in microseconds, and simulating failures is trivial —
// the point of having the service depend on an interface.
//
// Owner resolution shortcut: the real repository fills Owner with the
// owning user's username; the mock uses the owner ID as the username so
// tests don't need a user table.
type mockSnippetRepo struct {
	snippets map[string]*model.Snippet
	nextID   int
	order    []string // insertion order, stands in for ORDER BY created_at
}

func newMockRepo() *mockSnippetRepo {
	return &mockSnippetRepo{snippets: make(map[string]*model.Snippet)}
}

func (m *mockSnippetRepo) Create(_ context.Context, snippet *model.Snippet) error {
	m.nextID++
	snippet.ID = fmt.Sprintf("mock-%d", m.nextID)
	snippet.Created = time.Now()
	snippet.Owner = snippet.OwnerID

	stored := *snippet
	m.snippets[snippet.ID] = &stored
	m.order = append(m.order, snippet.ID)
	return nil
}

func (m *mockSnippetRepo) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	snippet, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	result := *snippet
	return &result, nil
}

func (m *mockSnippetRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	result := make([]model.Snippet, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, *m.snippets[id])
	}
	if opts.Offset >= len(result) {
		return []model.Snippet{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *mockSnippetRepo) Update(_ context.Context, snippet *model.Snippet) error {
	if _, ok := m.snippets[snippet.ID]; !ok {
		return apperror.NotFound("snippet", snippet.ID)
	}
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(m.snippets, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// fakeRenderer produces a cheap, recognisable rendering and counts calls,
// so tests can assert both WHAT was rendered and WHEN rendering happened
// (on save, never on read).
type fakeRenderer struct {
	calls int
}

func (f *fakeRenderer) Render(code, language, style, title string, lineNumbers bool) (string, error) {
	f.calls++
	return fmt.Sprintf("<html>[%s|%s|%s|%s|%v]</html>", code, language, style, title, lineNumbers), nil
}

func newTestService(t *testing.T) (*SnippetService, *mockSnippetRepo, *fakeRenderer) {
	t.Helper()
	repo := newMockRepo()
	renderer := &fakeRenderer{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewSnippetService(repo, renderer, policy.NewOwnerOnly(), logger)
	return svc, repo, renderer
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// =========================================================================
// CREATE
// =========================================================================

func TestSnippetCreate_Success(t *testing.T) {
	svc, _, _ := newTestService(t)

	snippet, err := svc.Create(context.Background(), "alice", CreateSnippetInput{
		Title: "hello", Code: "print('hi')", Language: "python", Style: "friendly",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if snippet.ID == "" {
		t.Error("expected snippet to have an ID")
	}
	if snippet.Created.IsZero() {
		t.Error("expected snippet to have a creation time")
	}
	if snippet.OwnerID != "alice" {
		t.Errorf("OwnerID = %q, want %q", snippet.OwnerID, "alice")
	}
	if snippet.Highlighted == "" {
		t.Error("Create() did not compute the highlight")
	}
}

func TestSnippetCreate_AppliesDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)

	snippet, err := svc.Create(context.Background(), "alice", CreateSnippetInput{Code: "print(1)"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if snippet.Language != "python" {
		t.Errorf("Language = %q, want default %q", snippet.Language, "python")
	}
	if snippet.Style != "friendly" {
		t.Errorf("Style = %q, want default %q", snippet.Style, "friendly")
	}
	if snippet.Linenos {
		t.Error("Linenos should default to false")
	}
}

func TestSnippetCreate_AnonymousDenied(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.Create(context.Background(), "", CreateSnippetInput{Code: "print(1)"})
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	if len(repo.snippets) != 0 {
		t.Error("denied create must persist nothing")
	}
}

func TestSnippetCreate_Validation(t *testing.T) {
	svc, repo, _ := newTestService(t)

	longTitle := ""
	for i := 0; i < MaxTitleLength+1; i++ {
		longTitle += "a"
	}

	tests := []struct {
		name  string
		in    CreateSnippetInput
		field string
	}{
		{"empty code", CreateSnippetInput{Code: ""}, "code"},
		{"unknown language", CreateSnippetInput{Code: "x", Language: "klingon"}, "language"},
		{"unknown style", CreateSnippetInput{Code: "x", Style: "vantablack"}, "style"},
		{"overlong title", CreateSnippetInput{Code: "x", Title: longTitle}, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "alice", tt.in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.field)
			}
		})
	}

	if len(repo.snippets) != 0 {
		t.Error("rejected creates must persist nothing")
	}
}

func TestSnippetCreate_HighlightMatchesFields(t *testing.T) {
	svc, repo, _ := newTestService(t)

	snippet, err := svc.Create(context.Background(), "alice", CreateSnippetInput{
		Title: "t", Code: "print(1)", Linenos: true, Language: "python", Style: "friendly",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	want := "<html>[print(1)|python|friendly|t|true]</html>"
	if snippet.Highlighted != want {
		t.Errorf("Highlighted = %q, want %q", snippet.Highlighted, want)
	}
	if repo.snippets[snippet.ID].Highlighted != want {
		t.Error("persisted highlight differs from returned highlight")
	}
}

// =========================================================================
// UPDATE
// =========================================================================

func TestSnippetUpdate_PartialMerge(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, _ := svc.Create(context.Background(), "alice", CreateSnippetInput{
		Title: "keep me", Code: "old", Language: "python", Style: "friendly",
	})

	updated, err := svc.Update(context.Background(), created.ID, "alice", UpdateSnippetInput{
		Code: strPtr("new"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Code != "new" {
		t.Errorf("Code = %q, want %q", updated.Code, "new")
	}
	// Fields not in the patch survive.
	if updated.Title != "keep me" {
		t.Errorf("Title = %q, want %q", updated.Title, "keep me")
	}
	// The highlight reflects the MERGED state.
	want := "<html>[new|python|friendly|keep me|false]</html>"
	if updated.Highlighted != want {
		t.Errorf("Highlighted = %q, want %q", updated.Highlighted, want)
	}
}

func TestSnippetUpdate_Idempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, _ := svc.Create(context.Background(), "alice", CreateSnippetInput{Code: "x"})

	in := UpdateSnippetInput{Code: strPtr("y"), Linenos: boolPtr(true)}
	first, err := svc.Update(context.Background(), created.ID, "alice", in)
	if err != nil {
		t.Fatalf("first Update() error = %v", err)
	}
	second, err := svc.Update(context.Background(), created.ID, "alice", in)
	if err != nil {
		t.Fatalf("second Update() error = %v", err)
	}

	if *first != *second {
		t.Errorf("repeated update changed state:\n first: %+v\nsecond: %+v", first, second)
	}
}

func TestSnippetUpdate_WrongOwnerForbidden(t *testing.T) {
	svc, repo, _ := newTestService(t)
	created, _ := svc.Create(context.Background(), "alice", CreateSnippetInput{Code: "hers"})

	_, err := svc.Update(context.Background(), created.ID, "bob", UpdateSnippetInput{
		Code: strPtr("stolen"),
	})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
	if repo.snippets[created.ID].Code != "hers" {
		t.Error("denied update left side effects behind")
	}
}

func TestSnippetUpdate_AnonymousUnauthorized(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, _ := svc.Create(context.Background(), "alice", CreateSnippetInput{Code: "x"})

	_, err := svc.Update(context.Background(), created.ID, "", UpdateSnippetInput{Code: strPtr("y")})
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
}

func TestSnippetUpdate_OwnerChangeRejected(t *testing.T) {
	svc, repo, _ := newTestService(t)
	created, _ := svc.Create(context.Background(), "alice", CreateSnippetInput{Code: "x"})

	_, err := svc.Update(context.Background(), created.ID, "alice", UpdateSnippetInput{
		Owner: strPtr("bob"),
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if repo.snippets[created.ID].OwnerID != "alice" {
		t.Error("owner changed despite rejection")
	}
}

func TestSnippetUpdate_SameOwnerEchoAccepted(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, _ := svc.Create(context.Background(), "alice", CreateSnippetInput{Code: "x"})

	// PUT clients resubmit the representation they fetched, owner included.
	_, err := svc.Update(context.Background(), created.ID, "alice", UpdateSnippetInput{
		Code:  strPtr("y"),
		Owner: strPtr(created.Owner),
	})
	if err != nil {
		t.Fatalf("Update() echoing the current owner should succeed, got %v", err)
	}
}

func TestSnippetUpdate_InvalidEnumChangesNothing(t *testing.T) {
	svc, repo, _ := newTestService(t)
	created, _ := svc.Create(context.Background(), "alice", CreateSnippetInput{Code: "x"})

	_, err := svc.Update(context.Background(), created.ID, "alice", UpdateSnippetInput{
		Language: strPtr("klingon"),
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}

	stored := repo.snippets[created.ID]
	if stored.Language != "python" || stored.Highlighted != created.Highlighted {
		t.Error("rejected update must leave the record untouched")
	}
}

func TestSnippetUpdate_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), "nonexistent", "alice", UpdateSnippetInput{
		Code: strPtr("x"),
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE
// =========================================================================

func TestSnippetDelete_OwnerSucceeds(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, _ := svc.Create(context.Background(), "alice", CreateSnippetInput{Code: "x"})

	if err := svc.Delete(context.Background(), created.ID, "alice"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := svc.GetByID(context.Background(), created.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}
}

func TestSnippetDelete_WrongOwnerForbidden(t *testing.T) {
	svc, repo, _ := newTestService(t)
	created, _ := svc.Create(context.Background(), "alice", CreateSnippetInput{Code: "x"})

	err := svc.Delete(context.Background(), created.ID, "bob")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
	if _, ok := repo.snippets[created.ID]; !ok {
		t.Error("forbidden delete removed the snippet")
	}
}

func TestSnippetDelete_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Delete(context.Background(), "nonexistent", "alice")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// READS
// =========================================================================

func TestSnippetList_CreationOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	a, _ := svc.Create(context.Background(), "alice", CreateSnippetInput{Code: "1"})
	b, _ := svc.Create(context.Background(), "bob", CreateSnippetInput{Code: "2"})

	snippets, err := svc.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	// All snippets, all owners — listing is public and unfiltered.
	if len(snippets) != 2 {
		t.Fatalf("List() returned %d snippets, want 2", len(snippets))
	}
	if snippets[0].ID != a.ID || snippets[1].ID != b.ID {
		t.Error("List() is not in creation order")
	}
}

func TestGetHighlighted_ServesCacheWithoutRerender(t *testing.T) {
	svc, _, renderer := newTestService(t)
	created, _ := svc.Create(context.Background(), "alice", CreateSnippetInput{Code: "print(1)"})

	callsAfterCreate := renderer.calls

	html, err := svc.GetHighlighted(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetHighlighted() error = %v", err)
	}
	if html != created.Highlighted {
		t.Errorf("GetHighlighted() = %q, want stored %q", html, created.Highlighted)
	}
	if renderer.calls != callsAfterCreate {
		t.Error("GetHighlighted() re-rendered — it must serve the cached value")
	}
}

func TestGetHighlighted_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetHighlighted(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
