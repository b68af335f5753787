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
	"fmt"
	"testing"
)

func TestSnapshotRoundTripAndPrune(t *testing.T) {
	db, _ := openTestIndex(t)
	ctx := context.Background()

	if _, _, ok, err := LatestSnapshot(ctx, db); err != nil || ok {
		t.Fatalf("empty table: ok=%v err=%v", ok, err)
	}

	for i := 0; i < 5; i++ {
		sp := sampleScreenplay()
		sp.Title = fmt.Sprintf("rev-%d", i)
		if err := WriteSnapshot(ctx, db, &sp, SnapshotAutosave); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	got, _, ok, err := LatestSnapshot(ctx, db)
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if got.Title != "rev-4" {
		t.Fatalf("latest = %q", got.Title)
	}
	if len(got.Blocks) != 2 {
		t.Fatalf("blocks lost: %+v", got.Blocks)
	}

	if err := PruneSnapshots(ctx, db, 2); err != nil {
		t.Fatalf("prune: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("rows after prune = %d", n)
	}
	got, _, ok, err = LatestSnapshot(ctx, db)
	if err != nil || !ok || got.Title != "rev-4" {
		t.Fatalf("prune dropped the newest row: %+v %v", got, err)
	}
}

func TestWriteSnapshotRejectsNil(t *testing.T) {
	db, _ := openTestIndex(t)
	if err := WriteSnapshot(context.Background(), db, nil, SnapshotCrash); err == nil {
		t.Fatalf("nil screenplay must be rejected")
	}
}
