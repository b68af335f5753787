/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend is the optional shared-document gateway for team
// screenplays. It implements the same persistence surface as the local
// project store, backed by Postgres, and stays disabled unless a DSN is
// configured.
package backend

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"goscreenwriter/internal/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a Postgres-backed persistence gateway for one shared screenplay.
// It satisfies session.Persister.
type Store struct {
	db *sql.DB
	// id selects the screenplay row all operations act on.
	id string
}

// OpenStore connects, pings, applies migrations, and binds to one
// screenplay id.
func OpenStore(ctx context.Context, dsn, screenplayID string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("backend dsn is empty")
	}
	if strings.TrimSpace(screenplayID) == "" {
		return nil, errors.New("screenplay id is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, id: screenplayID}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// applyMigrations applies embedded SQL migrations in filename order.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	for _, name := range files {
		b, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// SaveDocument upserts the whole screenplay as a JSONB row.
func (s *Store) SaveDocument(ctx context.Context, sp *domain.Screenplay) error {
	doc, err := json.Marshal(sp)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO screenplays (id, doc, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		s.id, doc)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// LoadDocument reads the screenplay row and reassembles the comment threads.
func (s *Store) LoadDocument(ctx context.Context) (*domain.Screenplay, []domain.Comment, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM screenplays WHERE id = $1`, s.id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("screenplay %s not found", s.id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load document: %w", err)
	}
	var sp domain.Screenplay
	if err := json.Unmarshal(doc, &sp); err != nil {
		return nil, nil, fmt.Errorf("parse document: %w", err)
	}
	cs, err := s.loadComments(ctx)
	if err != nil {
		return nil, nil, err
	}
	return &sp, cs, nil
}

func (s *Store) loadComments(ctx context.Context) ([]domain.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, block_id, author_id, COALESCE(author_name, ''), body, created_at, resolved, start_off, end_off, COALESCE(quoted, '')
		FROM comments WHERE screenplay_id = $1 ORDER BY created_at ASC`, s.id)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var tops []domain.Comment
	byID := map[string]int{}
	type pending struct {
		parent string
		c      domain.Comment
	}
	var replies []pending
	for rows.Next() {
		var (
			c      domain.Comment
			parent sql.NullString
		)
		if err := rows.Scan(&c.ID, &parent, &c.BlockID, &c.AuthorID, &c.AuthorName, &c.Text, &c.CreatedAt, &c.IsResolved, &c.StartOffset, &c.EndOffset, &c.HighlightedText); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		if parent.Valid {
			c.ParentID = parent.String
			replies = append(replies, pending{parent: parent.String, c: c})
			continue
		}
		byID[c.ID] = len(tops)
		tops = append(tops, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, r := range replies {
		if i, ok := byID[r.parent]; ok {
			tops[i].Replies = append(tops[i].Replies, r.c)
		}
	}
	if err := s.attachReactions(ctx, tops); err != nil {
		return nil, err
	}
	return tops, nil
}

func (s *Store) attachReactions(ctx context.Context, tops []domain.Comment) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.comment_id, r.user_id, COALESCE(r.user_name, ''), r.emoji, r.created_at
		FROM comment_reactions r
		JOIN comments c ON c.id = r.comment_id
		WHERE c.screenplay_id = $1
		ORDER BY r.created_at ASC`, s.id)
	if err != nil {
		return fmt.Errorf("query reactions: %w", err)
	}
	defer rows.Close()

	byComment := map[string][]domain.Reaction{}
	for rows.Next() {
		var (
			id string
			r  domain.Reaction
		)
		if err := rows.Scan(&id, &r.UserID, &r.UserName, &r.Emoji, &r.CreatedAt); err != nil {
			return fmt.Errorf("scan reaction: %w", err)
		}
		byComment[id] = append(byComment[id], r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range tops {
		tops[i].Reactions = byComment[tops[i].ID]
		for j := range tops[i].Replies {
			tops[i].Replies[j].Reactions = byComment[tops[i].Replies[j].ID]
		}
	}
	return nil
}

// CreateComment inserts one top-level comment row.
func (s *Store) CreateComment(ctx context.Context, c domain.Comment) error {
	return s.insertComment(ctx, c, "")
}

// AddReply inserts a reply row under parentID.
func (s *Store) AddReply(ctx context.Context, parentID string, r domain.Comment) error {
	return s.insertComment(ctx, r, parentID)
}

func (s *Store) insertComment(ctx context.Context, c domain.Comment, parentID string) error {
	var parent sql.NullString
	if parentID != "" {
		parent = sql.NullString{String: parentID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, screenplay_id, parent_id, block_id, author_id, author_name, body, created_at, resolved, start_off, end_off, quoted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, s.id, parent, c.BlockID, c.AuthorID, c.AuthorName, c.Text, c.CreatedAt, c.IsResolved, c.StartOffset, c.EndOffset, c.HighlightedText)
	if err != nil {
		return fmt.Errorf("insert comment %s: %w", c.ID, err)
	}
	return nil
}

// SetCommentResolved updates the resolved flag of one row.
func (s *Store) SetCommentResolved(ctx context.Context, id string, resolved bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE comments SET resolved = $1 WHERE id = $2 AND screenplay_id = $3`, resolved, id, s.id)
	if err != nil {
		return fmt.Errorf("resolve comment %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("resolve comment %s: no such row", id)
	}
	return nil
}

// ToggleReaction removes the (user, emoji) row if present, inserts it
// otherwise. The delete-then-insert pair runs in one transaction so two
// clients toggling concurrently converge instead of erroring on the
// primary key.
func (s *Store) ToggleReaction(ctx context.Context, commentID string, r domain.Reaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin toggle: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
		DELETE FROM comment_reactions WHERE comment_id = $1 AND user_id = $2 AND emoji = $3`,
		commentID, r.UserID, r.Emoji)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("toggle delete: %w", err)
	}
	deleted, _ := res.RowsAffected()
	if deleted == 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO comment_reactions (comment_id, user_id, emoji, user_name, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (comment_id, user_id, emoji) DO NOTHING`,
			commentID, r.UserID, r.Emoji, r.UserName, r.CreatedAt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("toggle insert: %w", err)
		}
	}
	return tx.Commit()
}

// IncrementHeadingUsage bumps the per-screenplay usage count atomically.
func (s *Store) IncrementHeadingUsage(ctx context.Context, key, heading string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("heading key is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO heading_usage (screenplay_id, key, heading, uses) VALUES ($1, $2, $3, 1)
		ON CONFLICT (screenplay_id, key) DO UPDATE SET uses = heading_usage.uses + 1, heading = EXCLUDED.heading`,
		s.id, key, heading)
	if err != nil {
		return fmt.Errorf("increment heading usage: %w", err)
	}
	return nil
}
