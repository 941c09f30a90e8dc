package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snippetbin/internal/apperror"
	"github.com/sakif/snippetbin/internal/model"
	"github.com/sakif/snippetbin/internal/repository"
)

// Compile-time check that *DB implements repository.SnippetRepository.
// `var _ X = (*Y)(nil)` assigns a nil *Y to a variable of interface type X;
// if *Y is missing a method the compiler errors here instead of at some
// distant call site.
var _ repository.SnippetRepository = (*DB)(nil)

// snippetColumns is the SELECT list shared by GetByID and List. The JOIN
// pulls the owner's username so the API can serialize `owner` as a name
// without a second query.
const snippetColumns = `
	s.id, s.title, s.code, s.linenos, s.language, s.style,
	s.owner_id, u.username, s.highlighted, s.created_at`

// Create inserts a new snippet.
//
// The snippet arrives with Highlighted already computed by the service
// layer; writing it in the same INSERT as the code and metadata is what
// makes a save atomic — there is no moment where the row exists without a
// matching rendering.
//
// IDs come from rs/xid: 20 URL-safe characters, sortable by creation time.
// The pointer receiver matters — after Create returns, the caller's snippet
// carries the generated ID, timestamp, and owner username.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()
	snippet.Created = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets (id, title, code, linenos, language, style, owner_id, highlighted, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Code,
		snippet.Linenos,
		snippet.Language,
		snippet.Style,
		snippet.OwnerID,
		snippet.Highlighted,
		snippet.Created,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	// Fill in the owner's username for the response. A read, not a second
	// write — the INSERT above is still the only mutation.
	err = db.conn.QueryRowContext(ctx,
		`SELECT username FROM users WHERE id = ?`, snippet.OwnerID,
	).Scan(&snippet.Owner)
	if err != nil {
		return fmt.Errorf("sqlite: resolving owner of new snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a single snippet, owner username included.
//
// sql.ErrNoRows is not a database failure — it just means no matching row.
// We translate it to the domain's NotFound so the handler returns 404.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	var s model.Snippet
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets s JOIN users u ON u.id = s.owner_id
		 WHERE s.id = ?`,
		id,
	).Scan(
		&s.ID, &s.Title, &s.Code, &s.Linenos, &s.Language, &s.Style,
		&s.OwnerID, &s.Owner, &s.Highlighted, &s.Created,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	return &s, nil
}

// List retrieves snippets ordered by creation time, oldest first — the
// default listing order of the API.
//
// Pagination is optional: a zero Limit returns everything. SQLite treats
// LIMIT -1 as "no limit", which lets us keep a single query for both cases.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets s JOIN users u ON u.id = s.owner_id
		 ORDER BY s.created_at ASC, s.id ASC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	// sql.Rows holds a pool connection until closed — leaking these
	// eventually hangs the whole server.
	defer rows.Close()

	snippets := []model.Snippet{}
	for rows.Next() {
		var s model.Snippet
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Code, &s.Linenos, &s.Language, &s.Style,
			&s.OwnerID, &s.Owner, &s.Highlighted, &s.Created,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// Update replaces a snippet's mutable fields in a single statement.
//
// id, owner_id, and created_at never appear in the SET clause — they are
// immutable by contract. highlighted rides along with the fields it was
// computed from, same atomicity argument as Create.
//
// RowsAffected distinguishes "updated" from "no such row" without a
// separate existence query.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, code = ?, linenos = ?, language = ?, style = ?, highlighted = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Code,
		snippet.Linenos,
		snippet.Language,
		snippet.Style,
		snippet.Highlighted,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	return nil
}

// Delete removes a snippet permanently. No soft delete — a deleted id is a
// 404 from the next request on.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}
