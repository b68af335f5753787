/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"goscreenwriter/internal/domain"
)

// UpsertComment writes one comment or reply row. Replies carry their parent's
// id; reactions travel as a JSON column.
func UpsertComment(ctx context.Context, db *sql.DB, c domain.Comment) error {
	reactions, err := marshalReactions(c.Reactions)
	if err != nil {
		return err
	}
	var parent sql.NullString
	if c.ParentID != "" {
		parent = sql.NullString{String: c.ParentID, Valid: true}
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO comments (id, parent_id, block_id, author_id, author_name, body, created_at, resolved, start_off, end_off, quoted, reactions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			body = excluded.body,
			resolved = excluded.resolved,
			reactions = excluded.reactions`,
		c.ID, parent, c.BlockID, c.AuthorID, c.AuthorName, c.Text,
		c.CreatedAt.UTC().Format(time.RFC3339Nano), boolInt(c.IsResolved),
		c.StartOffset, c.EndOffset, c.HighlightedText, reactions)
	if err != nil {
		return fmt.Errorf("upsert comment %s: %w", c.ID, err)
	}
	return nil
}

// DeleteComment removes a comment row and, for top-level comments, its replies.
func DeleteComment(ctx context.Context, db *sql.DB, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM comments WHERE id = ? OR parent_id = ?`, id, id); err != nil {
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	return nil
}

// SetCommentResolved updates the resolved flag of one row.
func SetCommentResolved(ctx context.Context, db *sql.DB, id string, resolved bool) error {
	res, err := db.ExecContext(ctx, `UPDATE comments SET resolved = ? WHERE id = ?`, boolInt(resolved), id)
	if err != nil {
		return fmt.Errorf("resolve comment %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("resolve comment %s: no such row", id)
	}
	return nil
}

// SetReactions replaces the reactions column of one row.
func SetReactions(ctx context.Context, db *sql.DB, id string, rs []domain.Reaction) error {
	reactions, err := marshalReactions(rs)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `UPDATE comments SET reactions = ? WHERE id = ?`, reactions, id)
	if err != nil {
		return fmt.Errorf("set reactions %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("set reactions %s: no such row", id)
	}
	return nil
}

// LoadComments reads the whole comment table back into threaded form,
// ordered by creation time within each thread.
func LoadComments(ctx context.Context, db *sql.DB) ([]domain.Comment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, parent_id, block_id, author_id, author_name, body, created_at, resolved, start_off, end_off, quoted, reactions
		FROM comments ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var tops []domain.Comment
	byID := map[string]int{}
	type orphan struct {
		parent string
		c      domain.Comment
	}
	var replies []orphan
	for rows.Next() {
		var (
			c         domain.Comment
			parent    sql.NullString
			name      sql.NullString
			created   string
			resolved  int
			quoted    sql.NullString
			reactions sql.NullString
		)
		if err := rows.Scan(&c.ID, &parent, &c.BlockID, &c.AuthorID, &name, &c.Text, &created, &resolved, &c.StartOffset, &c.EndOffset, &quoted, &reactions); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.AuthorName = name.String
		c.HighlightedText = quoted.String
		c.IsResolved = resolved != 0
		if ts, perr := time.Parse(time.RFC3339Nano, created); perr == nil {
			c.CreatedAt = ts
		}
		if reactions.Valid && reactions.String != "" {
			if err := json.Unmarshal([]byte(reactions.String), &c.Reactions); err != nil {
				return nil, fmt.Errorf("parse reactions of %s: %w", c.ID, err)
			}
		}
		if parent.Valid {
			c.ParentID = parent.String
			replies = append(replies, orphan{parent: parent.String, c: c})
			continue
		}
		byID[c.ID] = len(tops)
		tops = append(tops, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, r := range replies {
		i, ok := byID[r.parent]
		if !ok {
			// parent row lost; drop the orphan rather than fail the load
			continue
		}
		tops[i].Replies = append(tops[i].Replies, r.c)
	}
	for i := range tops {
		sort.SliceStable(tops[i].Replies, func(a, b int) bool {
			return tops[i].Replies[a].CreatedAt.Before(tops[i].Replies[b].CreatedAt)
		})
	}
	return tops, nil
}

// ReplaceComments rewrites the whole table from the in-memory store in one
// transaction, used on document save.
func ReplaceComments(ctx context.Context, db *sql.DB, cs []domain.Comment) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM comments`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear comments: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO comments (id, parent_id, block_id, author_id, author_name, body, created_at, resolved, start_off, end_off, quoted, reactions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare comment insert: %w", err)
	}
	defer stmt.Close()
	insert := func(c domain.Comment, parentID string) error {
		reactions, err := marshalReactions(c.Reactions)
		if err != nil {
			return err
		}
		var parent sql.NullString
		if parentID != "" {
			parent = sql.NullString{String: parentID, Valid: true}
		}
		_, err = stmt.ExecContext(ctx, c.ID, parent, c.BlockID, c.AuthorID, c.AuthorName, c.Text,
			c.CreatedAt.UTC().Format(time.RFC3339Nano), boolInt(c.IsResolved),
			c.StartOffset, c.EndOffset, c.HighlightedText, reactions)
		return err
	}
	for _, c := range cs {
		if err := insert(c, ""); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert comment %s: %w", c.ID, err)
		}
		for _, r := range c.Replies {
			if err := insert(r, c.ID); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert reply %s: %w", r.ID, err)
			}
		}
	}
	return tx.Commit()
}

// toggleReactionJSON applies a (user, emoji) toggle to a serialized reaction set.
func toggleReactionJSON(raw string, r domain.Reaction) ([]domain.Reaction, error) {
	var rs []domain.Reaction
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &rs); err != nil {
			return nil, fmt.Errorf("parse reactions: %w", err)
		}
	}
	for i, existing := range rs {
		if existing.UserID == r.UserID && existing.Emoji == r.Emoji {
			return append(rs[:i], rs[i+1:]...), nil
		}
	}
	return append(rs, r), nil
}

func marshalReactions(rs []domain.Reaction) (string, error) {
	if len(rs) == 0 {
		return "", nil
	}
	b, err := json.Marshal(rs)
	if err != nil {
		return "", fmt.Errorf("marshal reactions: %w", err)
	}
	return string(b), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
