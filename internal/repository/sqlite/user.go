package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snippetbin/internal/apperror"
	"github.com/sakif/snippetbin/internal/model"
	"github.com/sakif/snippetbin/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Create inserts a new user account.
//
// The UNIQUE constraint on username is the real guard against duplicates —
// the service layer pre-checks with GetByUsername for a friendly error, but
// under a race the constraint wins, so we translate that failure to the
// domain's Conflict error here too.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.Created = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at)
		 VALUES (?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Created,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

// GetByID retrieves a user and the IDs of the snippets they own.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at
		 FROM users
		 WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Created)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	snippetIDs, err := db.snippetIDsByOwner(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Snippets = snippetIDs

	return &u, nil
}

// GetByUsername retrieves a user by their unique username.
//
// This is the login path — it deliberately skips the owned-snippet lookup
// that GetByID does, since the caller only needs identity and password hash.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at
		 FROM users
		 WHERE username = ?`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Created)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user by username %q: %w", username, err)
	}

	return &u, nil
}

// List retrieves all users, oldest account first, each with the IDs of the
// snippets they own.
//
// TWO QUERIES, NOT N+1:
// One query for the users, one for (owner_id, snippet_id) pairs, grouped in
// Go. Running snippetIDsByOwner per user would issue a query per row.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, username, password_hash, created_at
		 FROM users
		 ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Created); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		u.Snippets = []string{}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	byOwner, err := db.allSnippetIDsByOwner(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if ids, ok := byOwner[users[i].ID]; ok {
			users[i].Snippets = ids
		}
	}

	return users, nil
}

// snippetIDsByOwner returns the IDs of all snippets owned by ownerID, in
// creation order.
func (db *DB) snippetIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id FROM snippets WHERE owner_id = ? ORDER BY created_at ASC, id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets of user %s: %w", ownerID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippet ids: %w", err)
	}

	return ids, nil
}

// allSnippetIDsByOwner returns a map of owner id to owned snippet IDs.
func (db *DB) allSnippetIDsByOwner(ctx context.Context) (map[string][]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT owner_id, id FROM snippets ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippet owners: %w", err)
	}
	defer rows.Close()

	byOwner := map[string][]string{}
	for rows.Next() {
		var ownerID, id string
		if err := rows.Scan(&ownerID, &id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet owner row: %w", err)
		}
		byOwner[ownerID] = append(byOwner[ownerID], id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippet owners: %w", err)
	}

	return byOwner, nil
}
