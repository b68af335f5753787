/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package comments keeps the per-document comment anchor store and the
// highlight merge engine. Comments are threaded one level deep (replies),
// are never deleted, and all mutations are silent no-ops on unknown ids.
package comments

import (
	"sync"
	"time"

	"goscreenwriter/internal/domain"
)

// loc addresses a comment inside the arena: top-level index plus an optional
// reply index. Indexed traversal replaces ad hoc deep copies of the tree.
type loc struct {
	top   int
	reply int // -1 for a top-level comment
}

// Store is the per-document comment collection. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	items []domain.Comment
	index map[string]loc
}

func NewStore() *Store {
	return &Store{index: make(map[string]loc)}
}

// Load replaces the store contents, e.g. when a document is opened.
func (s *Store) Load(cs []domain.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]domain.Comment, len(cs))
	copy(s.items, cs)
	s.index = make(map[string]loc, len(cs))
	for i := range s.items {
		s.index[s.items[i].ID] = loc{top: i, reply: -1}
		for j := range s.items[i].Replies {
			s.index[s.items[i].Replies[j].ID] = loc{top: i, reply: j}
		}
	}
}

// Add appends a new top-level comment, assigning an id when missing, and
// returns the stored record.
func (s *Store) Add(c domain.Comment) domain.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = domain.NewID("cmt")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.items = append(s.items, c)
	s.index[c.ID] = loc{top: len(s.items) - 1, reply: -1}
	return c
}

// Remove withdraws a comment or reply, used to roll back an optimistic
// create whose persistence call failed. Removing a top-level comment drops
// its replies with it.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.index[id]
	if !ok {
		return false
	}
	if l.reply >= 0 {
		parent := &s.items[l.top]
		parent.Replies = append(parent.Replies[:l.reply], parent.Replies[l.reply+1:]...)
		delete(s.index, id)
		for j := l.reply; j < len(parent.Replies); j++ {
			s.index[parent.Replies[j].ID] = loc{top: l.top, reply: j}
		}
		return true
	}
	for _, r := range s.items[l.top].Replies {
		delete(s.index, r.ID)
	}
	delete(s.index, id)
	s.items = append(s.items[:l.top], s.items[l.top+1:]...)
	// reindex the tail
	for i := l.top; i < len(s.items); i++ {
		s.index[s.items[i].ID] = loc{top: i, reply: -1}
		for j := range s.items[i].Replies {
			s.index[s.items[i].Replies[j].ID] = loc{top: i, reply: j}
		}
	}
	return true
}

// Get returns a copy of the comment or reply with the given id.
func (s *Store) Get(id string) (domain.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.find(id)
	if c == nil {
		return domain.Comment{}, false
	}
	return *c, true
}

// find returns a pointer into the arena; callers must hold the lock.
func (s *Store) find(id string) *domain.Comment {
	l, ok := s.index[id]
	if !ok {
		return nil
	}
	if l.reply < 0 {
		return &s.items[l.top]
	}
	return &s.items[l.top].Replies[l.reply]
}

// SetResolved flips the resolution flag. Returns the previous value and
// whether the id was known, so optimistic updates can be rolled back.
func (s *Store) SetResolved(id string, resolved bool) (prev bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.find(id)
	if c == nil {
		return false, false
	}
	prev = c.IsResolved
	c.IsResolved = resolved
	return prev, true
}

// Reply appends a child under the given top-level comment and returns the
// stored record. Replying to a reply attaches to its parent thread.
func (s *Store) Reply(parentID string, r domain.Comment) (domain.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.index[parentID]
	if !ok {
		return domain.Comment{}, false
	}
	parent := &s.items[l.top]
	if r.ID == "" {
		r.ID = domain.NewID("cmt")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.ParentID = parent.ID
	r.BlockID = parent.BlockID
	r.StartOffset, r.EndOffset = parent.StartOffset, parent.EndOffset
	parent.Replies = append(parent.Replies, r)
	s.index[r.ID] = loc{top: l.top, reply: len(parent.Replies) - 1}
	return r, true
}

// ToggleReaction adds the (user, emoji) reaction if absent and removes it if
// present. Returns whether the reaction is present afterwards and whether
// the comment id was known. Calling it twice restores the original state.
func (s *Store) ToggleReaction(id, emoji, userID, userName string, at time.Time) (present bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.find(id)
	if c == nil {
		return false, false
	}
	for i, r := range c.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			c.Reactions = append(c.Reactions[:i], c.Reactions[i+1:]...)
			return false, true
		}
	}
	c.Reactions = append(c.Reactions, domain.Reaction{Emoji: emoji, UserID: userID, UserName: userName, CreatedAt: at})
	return true, true
}

// ForBlock returns copies of the top-level comments anchored to a block.
func (s *Store) ForBlock(blockID string) []domain.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Comment
	for _, c := range s.items {
		if c.BlockID == blockID {
			out = append(out, c)
		}
	}
	return out
}

// All returns a copy of every top-level comment in insertion order.
func (s *Store) All() []domain.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Comment, len(s.items))
	copy(out, s.items)
	return out
}

// Filter selects the comments shown in the side panel. ShowResolved and
// block filtering compose by logical AND with the comment's own state.
// Replies are filtered by the resolved rule only; they always share the
// parent's block.
type Filter struct {
	ShowResolved        bool
	FilterByActiveBlock bool
	ActiveBlockID       string
}

// Visible applies the filter and returns display-ready copies, with replies
// of resolved-hidden threads pruned by the same resolved rule.
func (s *Store) Visible(f Filter) []domain.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Comment
	for _, c := range s.items {
		if !f.ShowResolved && c.IsResolved {
			continue
		}
		if f.FilterByActiveBlock && c.BlockID != f.ActiveBlockID {
			continue
		}
		cc := c
		if !f.ShowResolved {
			var reps []domain.Comment
			for _, r := range c.Replies {
				if !r.IsResolved {
					reps = append(reps, r)
				}
			}
			cc.Replies = reps
		}
		out = append(out, cc)
	}
	return out
}
