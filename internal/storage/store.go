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
	"fmt"

	"goscreenwriter/internal/domain"
)

// ProjectStore is the local persistence gateway for one project: the JSON
// manifest for the document itself plus the SQLite index for comments,
// snapshots and the heading registry. It satisfies session.Persister.
type ProjectStore struct {
	ph *ProjectHandle
	db *sql.DB
}

// OpenProjectStore opens (or scaffolds the index of) an existing project.
func OpenProjectStore(root string) (*ProjectStore, error) {
	ph, err := Open(root)
	if err != nil {
		return nil, err
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return nil, err
	}
	return &ProjectStore{ph: ph, db: db}, nil
}

// InitProjectStore scaffolds a fresh project directory and index.
func InitProjectStore(root string, sp domain.Screenplay) (*ProjectStore, error) {
	ph, err := InitProject(root, sp)
	if err != nil {
		return nil, err
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return nil, err
	}
	return &ProjectStore{ph: ph, db: db}, nil
}

// Root returns the project directory.
func (s *ProjectStore) Root() string { return s.ph.Root }

// DB exposes the index database for callers that need direct queries
// (suggestions, diagnostics).
func (s *ProjectStore) DB() *sql.DB { return s.db }

// Close releases the index database.
func (s *ProjectStore) Close() error { return s.db.Close() }

// SaveDocument writes the manifest transactionally and records an autosave
// snapshot in the index.
func (s *ProjectStore) SaveDocument(ctx context.Context, sp *domain.Screenplay) error {
	s.ph.Screenplay = *sp
	if err := Save(s.ph); err != nil {
		return err
	}
	if err := WriteSnapshot(ctx, s.db, sp, SnapshotAutosave); err != nil {
		return fmt.Errorf("snapshot after save: %w", err)
	}
	return PruneSnapshots(ctx, s.db, DefaultSnapshotKeep)
}

// LoadDocument returns the manifest contents and the persisted comments.
func (s *ProjectStore) LoadDocument(ctx context.Context) (*domain.Screenplay, []domain.Comment, error) {
	sp := s.ph.Screenplay
	cs, err := LoadComments(ctx, s.db)
	if err != nil {
		return nil, nil, err
	}
	return &sp, cs, nil
}

func (s *ProjectStore) CreateComment(ctx context.Context, c domain.Comment) error {
	return UpsertComment(ctx, s.db, c)
}

func (s *ProjectStore) SetCommentResolved(ctx context.Context, id string, resolved bool) error {
	return SetCommentResolved(ctx, s.db, id, resolved)
}

func (s *ProjectStore) AddReply(ctx context.Context, parentID string, r domain.Comment) error {
	r.ParentID = parentID
	return UpsertComment(ctx, s.db, r)
}

// ToggleReaction persists the post-toggle reaction set. The in-memory store
// already applied the toggle, so the row is rewritten from the comment state.
func (s *ProjectStore) ToggleReaction(ctx context.Context, commentID string, r domain.Reaction) error {
	var reactions sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT reactions FROM comments WHERE id = ?`, commentID).Scan(&reactions)
	if err != nil {
		return fmt.Errorf("read reactions %s: %w", commentID, err)
	}
	rs, err := toggleReactionJSON(reactions.String, r)
	if err != nil {
		return err
	}
	return SetReactions(ctx, s.db, commentID, rs)
}

func (s *ProjectStore) IncrementHeadingUsage(ctx context.Context, key, heading string) error {
	return IncrementHeadingUsage(ctx, s.db, key, heading)
}
