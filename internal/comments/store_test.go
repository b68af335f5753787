/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package comments

import (
	"testing"
	"time"

	"goscreenwriter/internal/domain"
)

func TestAddAssignsIDAndTimestamp(t *testing.T) {
	s := NewStore()
	got := s.Add(domain.Comment{BlockID: "b1", Text: "note", StartOffset: 2, EndOffset: 6})
	if got.ID == "" {
		t.Fatalf("Add must assign an id")
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("Add must stamp CreatedAt")
	}
	back, ok := s.Get(got.ID)
	if !ok || back.Text != "note" {
		t.Fatalf("Get(%q) = %+v, %v", got.ID, back, ok)
	}
}

func TestRemoveRollsBackOptimisticCreate(t *testing.T) {
	s := NewStore()
	a := s.Add(domain.Comment{BlockID: "b1", Text: "keep"})
	b := s.Add(domain.Comment{BlockID: "b1", Text: "rollback"})
	rep, ok := s.Reply(b.ID, domain.Comment{Text: "child"})
	if !ok {
		t.Fatalf("Reply failed")
	}
	c := s.Add(domain.Comment{BlockID: "b2", Text: "tail"})

	if !s.Remove(b.ID) {
		t.Fatalf("Remove(%q) failed", b.ID)
	}
	if _, ok := s.Get(b.ID); ok {
		t.Fatalf("removed comment still retrievable")
	}
	if _, ok := s.Get(rep.ID); ok {
		t.Fatalf("reply must be dropped with its parent")
	}
	// tail must stay reachable after reindexing
	for _, id := range []string{a.ID, c.ID} {
		if _, ok := s.Get(id); !ok {
			t.Fatalf("comment %q lost after Remove", id)
		}
	}
	if s.Remove("missing") {
		t.Fatalf("Remove of unknown id must be a no-op")
	}
}

func TestRemoveReplyRollsBack(t *testing.T) {
	s := NewStore()
	parent := s.Add(domain.Comment{BlockID: "b1"})
	first, _ := s.Reply(parent.ID, domain.Comment{Text: "first"})
	second, _ := s.Reply(parent.ID, domain.Comment{Text: "second"})

	if !s.Remove(first.ID) {
		t.Fatalf("Remove(%q) failed", first.ID)
	}
	got, _ := s.Get(parent.ID)
	if len(got.Replies) != 1 || got.Replies[0].ID != second.ID {
		t.Fatalf("reply removal broke the thread: %+v", got.Replies)
	}
	// the surviving reply must be reindexed
	if _, ok := s.Get(second.ID); !ok {
		t.Fatalf("surviving reply lost its index entry")
	}
}

func TestSetResolvedReturnsPrevForRollback(t *testing.T) {
	s := NewStore()
	c := s.Add(domain.Comment{BlockID: "b1"})
	prev, ok := s.SetResolved(c.ID, true)
	if !ok || prev {
		t.Fatalf("first resolve: prev=%v ok=%v", prev, ok)
	}
	prev, ok = s.SetResolved(c.ID, prev) // rollback
	if !ok || !prev {
		t.Fatalf("rollback: prev=%v ok=%v", prev, ok)
	}
	got, _ := s.Get(c.ID)
	if got.IsResolved {
		t.Fatalf("rollback did not restore unresolved state")
	}
	if _, ok := s.SetResolved("missing", true); ok {
		t.Fatalf("unknown id must report !ok")
	}
}

func TestReplyInheritsAnchor(t *testing.T) {
	s := NewStore()
	parent := s.Add(domain.Comment{BlockID: "b1", StartOffset: 4, EndOffset: 9})
	r, ok := s.Reply(parent.ID, domain.Comment{Text: "agreed", AuthorID: "u2"})
	if !ok {
		t.Fatalf("Reply failed")
	}
	if r.ParentID != parent.ID || r.BlockID != "b1" || r.StartOffset != 4 || r.EndOffset != 9 {
		t.Fatalf("reply did not inherit anchor: %+v", r)
	}
	// replying to a reply attaches to the thread root
	r2, ok := s.Reply(r.ID, domain.Comment{Text: "also"})
	if !ok || r2.ParentID != parent.ID {
		t.Fatalf("reply-to-reply must attach to thread root: %+v", r2)
	}
	got, _ := s.Get(parent.ID)
	if len(got.Replies) != 2 {
		t.Fatalf("want 2 replies, got %d", len(got.Replies))
	}
}

func TestToggleReactionIsItsOwnInverse(t *testing.T) {
	s := NewStore()
	c := s.Add(domain.Comment{BlockID: "b1"})
	at := time.Now()

	present, ok := s.ToggleReaction(c.ID, "👍", "u1", "Pat", at)
	if !ok || !present {
		t.Fatalf("first toggle: present=%v ok=%v", present, ok)
	}
	present, ok = s.ToggleReaction(c.ID, "👍", "u1", "Pat", at)
	if !ok || present {
		t.Fatalf("second toggle must remove: present=%v ok=%v", present, ok)
	}
	got, _ := s.Get(c.ID)
	if len(got.Reactions) != 0 {
		t.Fatalf("reactions not restored: %+v", got.Reactions)
	}

	// distinct users keep separate reactions for the same emoji
	s.ToggleReaction(c.ID, "👍", "u1", "Pat", at)
	s.ToggleReaction(c.ID, "👍", "u2", "Kim", at)
	got, _ = s.Get(c.ID)
	if len(got.Reactions) != 2 {
		t.Fatalf("want 2 reactions, got %+v", got.Reactions)
	}
	if _, ok := s.ToggleReaction("missing", "👍", "u1", "Pat", at); ok {
		t.Fatalf("unknown id must report !ok")
	}
}

func TestVisibleFiltering(t *testing.T) {
	s := NewStore()
	open := s.Add(domain.Comment{BlockID: "b1", Text: "open"})
	resolved := s.Add(domain.Comment{BlockID: "b1", Text: "done"})
	s.SetResolved(resolved.ID, true)
	other := s.Add(domain.Comment{BlockID: "b2", Text: "elsewhere"})

	got := s.Visible(Filter{})
	if len(got) != 2 {
		t.Fatalf("default filter hides resolved only: %+v", got)
	}

	got = s.Visible(Filter{ShowResolved: true})
	if len(got) != 3 {
		t.Fatalf("ShowResolved must include everything: %+v", got)
	}

	got = s.Visible(Filter{FilterByActiveBlock: true, ActiveBlockID: "b2"})
	if len(got) != 1 || got[0].ID != other.ID {
		t.Fatalf("block filter: %+v", got)
	}

	// AND composition: resolved comment on the active block stays hidden
	got = s.Visible(Filter{FilterByActiveBlock: true, ActiveBlockID: "b1"})
	if len(got) != 1 || got[0].ID != open.ID {
		t.Fatalf("composed filter: %+v", got)
	}
}

func TestVisiblePrunesResolvedReplies(t *testing.T) {
	s := NewStore()
	parent := s.Add(domain.Comment{BlockID: "b1"})
	keep, _ := s.Reply(parent.ID, domain.Comment{Text: "keep"})
	hide, _ := s.Reply(parent.ID, domain.Comment{Text: "hide"})
	s.SetResolved(hide.ID, true)

	got := s.Visible(Filter{})
	if len(got) != 1 || len(got[0].Replies) != 1 || got[0].Replies[0].ID != keep.ID {
		t.Fatalf("resolved reply must be pruned: %+v", got)
	}

	got = s.Visible(Filter{ShowResolved: true})
	if len(got[0].Replies) != 2 {
		t.Fatalf("ShowResolved keeps all replies: %+v", got)
	}
}

func TestLoadRebuildsIndex(t *testing.T) {
	s := NewStore()
	s.Add(domain.Comment{BlockID: "stale"})
	s.Load([]domain.Comment{
		{ID: "c1", BlockID: "b1", Replies: []domain.Comment{{ID: "r1", ParentID: "c1"}}},
		{ID: "c2", BlockID: "b2"},
	})
	if _, ok := s.Get("c1"); !ok {
		t.Fatalf("c1 missing after Load")
	}
	if _, ok := s.Get("r1"); !ok {
		t.Fatalf("reply r1 missing after Load")
	}
	if len(s.All()) != 2 {
		t.Fatalf("stale content survived Load: %+v", s.All())
	}
}
