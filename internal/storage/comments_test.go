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
	"testing"
	"time"

	"goscreenwriter/internal/domain"
)

func TestCommentRowsRoundTripThreaded(t *testing.T) {
	db, _ := openTestIndex(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	top := domain.Comment{
		ID: "c1", BlockID: "b1", AuthorID: "u1", AuthorName: "Pat",
		Text: "tighten this", CreatedAt: base,
		StartOffset: 2, EndOffset: 9, HighlightedText: "T. KITC",
		Reactions: []domain.Reaction{{Emoji: "👍", UserID: "u2", CreatedAt: base}},
	}
	if err := UpsertComment(ctx, db, top); err != nil {
		t.Fatalf("upsert top: %v", err)
	}
	reply := domain.Comment{
		ID: "r1", ParentID: "c1", BlockID: "b1", AuthorID: "u2",
		Text: "agreed", CreatedAt: base.Add(time.Minute),
	}
	if err := UpsertComment(ctx, db, reply); err != nil {
		t.Fatalf("upsert reply: %v", err)
	}

	got, err := LoadComments(ctx, db)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("tops = %+v", got)
	}
	c := got[0]
	if c.ID != "c1" || c.Text != "tighten this" || c.StartOffset != 2 || c.EndOffset != 9 {
		t.Fatalf("top mismatch: %+v", c)
	}
	if len(c.Reactions) != 1 || c.Reactions[0].Emoji != "👍" {
		t.Fatalf("reactions lost: %+v", c.Reactions)
	}
	if len(c.Replies) != 1 || c.Replies[0].ID != "r1" || c.Replies[0].ParentID != "c1" {
		t.Fatalf("replies lost: %+v", c.Replies)
	}
}

func TestSetCommentResolvedUnknownRowFails(t *testing.T) {
	db, _ := openTestIndex(t)
	ctx := context.Background()
	if err := SetCommentResolved(ctx, db, "missing", true); err == nil {
		t.Fatalf("unknown row must error")
	}
	if err := UpsertComment(ctx, db, domain.Comment{ID: "c1", BlockID: "b1", AuthorID: "u1", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := SetCommentResolved(ctx, db, "c1", true); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got, err := LoadComments(ctx, db)
	if err != nil || len(got) != 1 || !got[0].IsResolved {
		t.Fatalf("resolved flag lost: %+v %v", got, err)
	}
}

func TestDeleteCommentDropsReplies(t *testing.T) {
	db, _ := openTestIndex(t)
	ctx := context.Background()
	now := time.Now()
	for _, c := range []domain.Comment{
		{ID: "c1", BlockID: "b1", AuthorID: "u1", CreatedAt: now},
		{ID: "r1", ParentID: "c1", BlockID: "b1", AuthorID: "u2", CreatedAt: now},
		{ID: "c2", BlockID: "b2", AuthorID: "u1", CreatedAt: now},
	} {
		if err := UpsertComment(ctx, db, c); err != nil {
			t.Fatalf("upsert %s: %v", c.ID, err)
		}
	}
	if err := DeleteComment(ctx, db, "c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := LoadComments(ctx, db)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c2" {
		t.Fatalf("delete left wrong rows: %+v", got)
	}
}

func TestReplaceCommentsRewritesTable(t *testing.T) {
	db, _ := openTestIndex(t)
	ctx := context.Background()
	now := time.Now()
	if err := UpsertComment(ctx, db, domain.Comment{ID: "stale", BlockID: "b0", AuthorID: "u1", CreatedAt: now}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	fresh := []domain.Comment{
		{ID: "c1", BlockID: "b1", AuthorID: "u1", CreatedAt: now,
			Replies: []domain.Comment{{ID: "r1", ParentID: "c1", BlockID: "b1", AuthorID: "u2", CreatedAt: now.Add(time.Second)}}},
	}
	if err := ReplaceComments(ctx, db, fresh); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := LoadComments(ctx, db)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c1" || len(got[0].Replies) != 1 {
		t.Fatalf("replace result: %+v", got)
	}
}

func TestToggleReactionJSON(t *testing.T) {
	r := domain.Reaction{Emoji: "👍", UserID: "u1"}
	rs, err := toggleReactionJSON("", r)
	if err != nil || len(rs) != 1 {
		t.Fatalf("add: %+v %v", rs, err)
	}
	raw, err := marshalReactions(rs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	rs, err = toggleReactionJSON(raw, r)
	if err != nil || len(rs) != 0 {
		t.Fatalf("remove: %+v %v", rs, err)
	}
}
