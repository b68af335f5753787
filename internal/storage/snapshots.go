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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"goscreenwriter/internal/domain"
)

// Snapshot reasons recorded with each row.
const (
	SnapshotAutosave = "autosave"
	SnapshotCrash    = "crash"
	SnapshotManual   = "manual"
)

// DefaultSnapshotKeep bounds how many snapshot rows PruneSnapshots retains.
const DefaultSnapshotKeep = 50

// WriteSnapshot stores a JSON copy of the document in the snapshots table.
func WriteSnapshot(ctx context.Context, db *sql.DB, sp *domain.Screenplay, reason string) error {
	if sp == nil {
		return errors.New("nil screenplay")
	}
	if reason == "" {
		reason = SnapshotManual
	}
	doc, err := json.Marshal(sp)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = db.ExecContext(ctx, `INSERT INTO snapshots (ts, reason, doc) VALUES (?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), reason, string(doc))
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot, or ok=false when none exist.
func LatestSnapshot(ctx context.Context, db *sql.DB) (*domain.Screenplay, time.Time, bool, error) {
	var (
		ts  string
		doc string
	)
	err := db.QueryRowContext(ctx, `SELECT ts, doc FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&ts, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	var sp domain.Screenplay
	if err := json.Unmarshal([]byte(doc), &sp); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	when, _ := time.Parse(time.RFC3339Nano, ts)
	return &sp, when, true, nil
}

// AutosaveCrashSnapshot writes the in-memory screenplay to a timestamped file
// in the project's backups directory. It avoids the index database on purpose,
// since a crash may have left the connection in an unknown state.
func AutosaveCrashSnapshot(ph *ProjectHandle) (string, error) {
	if ph == nil || ph.Root == "" {
		return "", errors.New("no open project")
	}
	data, err := json.MarshalIndent(ph.Screenplay, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash snapshot: %w", err)
	}
	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	name := fmt.Sprintf("crash-snapshot-%s.json", time.Now().Format("20060102-150405"))
	path := filepath.Join(bdir, name)
	if err := writeFileSync(path, append(data, '\n')); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}

// PruneSnapshots deletes all but the newest keep rows.
func PruneSnapshots(ctx context.Context, db *sql.DB, keep int) error {
	if keep <= 0 {
		keep = DefaultSnapshotKeep
	}
	_, err := db.ExecContext(ctx, `
		DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
