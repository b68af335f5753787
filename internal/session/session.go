/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session owns one open screenplay: the live block store, the undo
// history, the comment store, the session-global Enter timestamp and the
// persistence gateway. Editing events come in through the Session methods,
// flow through the editor state machine, and leave as a new block store plus
// a focus target; nothing else mutates the document.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"goscreenwriter/internal/comments"
	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/editor"
	"goscreenwriter/internal/format"
	"goscreenwriter/internal/history"
	"goscreenwriter/internal/log"
)

// AutosaveIdle is the quiet period after the last mutation before the
// document is written out.
const AutosaveIdle = 3 * time.Second

// Persister is the persistence gateway behind a session. The local project
// store and the shared Postgres backend both implement it.
type Persister interface {
	SaveDocument(ctx context.Context, sp *domain.Screenplay) error
	LoadDocument(ctx context.Context) (*domain.Screenplay, []domain.Comment, error)
	CreateComment(ctx context.Context, c domain.Comment) error
	SetCommentResolved(ctx context.Context, id string, resolved bool) error
	AddReply(ctx context.Context, parentID string, r domain.Comment) error
	ToggleReaction(ctx context.Context, commentID string, r domain.Reaction) error
	IncrementHeadingUsage(ctx context.Context, key, heading string) error
}

// SaveState is reported through the status callback around each save.
type SaveState int

const (
	Saving SaveState = iota
	Saved
	SaveFailed
)

// Options configures a Session. Zero values fall back to defaults.
type Options struct {
	AutosaveIdle time.Duration
	History      history.Config
	// DoubleEnterWindow overrides the editor default when > 0.
	DoubleEnterWindow time.Duration
	UserID            string
	UserName          string
	// OnSaveStatus observes autosave and explicit saves. err is nil except
	// for SaveFailed.
	OnSaveStatus func(state SaveState, err error)
	// Resolver places focus on the host surface; nil disables focus calls.
	Resolver editor.SurfaceResolver
	Retry    editor.RetryBudget
	// StartTimer schedules the autosave idle timer; tests replace it.
	StartTimer func(d time.Duration, fire func()) (cancel func())
	Now        func() time.Time
}

// Session is one open screenplay under edit. Safe for concurrent use.
type Session struct {
	opts     Options
	machine  editor.Machine
	hist     *history.Stack
	comments *comments.Store
	persist  Persister
	logger   *slog.Logger

	mu         sync.Mutex
	doc        domain.Screenplay
	lastEnter  time.Time
	gen        uint64 // bumped by every document mutation
	savedGen   uint64 // generation the last completed save captured
	reordering bool
	cancelIdle func()

	saveMu sync.Mutex // serializes overlapping save attempts
}

// New creates a session around an already loaded screenplay.
func New(sp domain.Screenplay, cs []domain.Comment, p Persister, opts Options) *Session {
	if opts.AutosaveIdle <= 0 {
		opts.AutosaveIdle = AutosaveIdle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Retry == (editor.RetryBudget{}) {
		opts.Retry = editor.DefaultRetryBudget()
	}
	hist := history.NewStack(opts.History)
	s := &Session{
		opts:     opts,
		machine:  editor.Machine{History: hist, Window: opts.DoubleEnterWindow},
		hist:     hist,
		comments: comments.NewStore(),
		persist:  p,
		logger:   log.WithComponent("session"),
	}
	s.doc = sp
	s.doc.Blocks = domain.Renumber(sp.Blocks)
	s.comments.Load(cs)
	return s
}

// Open loads the document through the persister and builds a session on it.
func Open(ctx context.Context, p Persister, opts Options) (*Session, error) {
	sp, cs, err := p.LoadDocument(ctx)
	if err != nil {
		return nil, err
	}
	return New(*sp, cs, p, opts), nil
}

// Blocks returns a copy of the live block store.
func (s *Session) Blocks() []domain.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneBlocks(s.doc.Blocks)
}

// Document returns a copy of the screenplay.
func (s *Session) Document() domain.Screenplay {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := s.doc
	sp.Blocks = domain.CloneBlocks(s.doc.Blocks)
	return sp
}

// Comments exposes the comment store for read paths (panel, highlights).
func (s *Session) Comments() *comments.Store { return s.comments }

// Enter handles the Enter key and applies the resulting focus.
func (s *Session) Enter(blockID string, caret int) editor.Result {
	s.mu.Lock()
	at := s.opts.Now()
	res := s.machine.OnEnter(s.doc.Blocks, blockID, caret, at, s.lastEnter)
	s.lastEnter = at
	s.commitLocked(res)
	s.mu.Unlock()
	s.applyFocus(res)
	return res
}

// Backspace handles backspace at offset zero (block merge/removal).
func (s *Session) Backspace(blockID string) editor.Result {
	s.mu.Lock()
	res := s.machine.OnBackspace(s.doc.Blocks, blockID)
	s.commitLocked(res)
	s.mu.Unlock()
	s.applyFocus(res)
	return res
}

// Tab cycles the block to the next type in the fixed ordering.
func (s *Session) Tab(blockID string, caret int) editor.Result {
	s.mu.Lock()
	res := s.machine.OnTab(s.doc.Blocks, blockID, caret)
	s.commitLocked(res)
	s.mu.Unlock()
	s.applyFocus(res)
	return res
}

// SetFormat applies an explicit block type change.
func (s *Session) SetFormat(blockID string, t domain.BlockType, caret int) editor.Result {
	s.mu.Lock()
	res := s.machine.OnFormatChange(s.doc.Blocks, blockID, t, caret)
	s.commitLocked(res)
	s.mu.Unlock()
	s.applyFocus(res)
	return res
}

// SetContent replaces a block's text, reclassifying unless forced is set,
// and reconciles the scene-heading usage registry.
func (s *Session) SetContent(ctx context.Context, blockID, text string, forced *domain.BlockType) editor.Result {
	s.mu.Lock()
	res := s.machine.OnContentChange(s.doc.Blocks, blockID, text, forced)
	s.commitLocked(res)
	s.mu.Unlock()
	s.reconcileHeading(ctx, res, blockID)
	s.applyFocus(res)
	return res
}

// commitLocked installs a state machine result and restarts the idle timer.
func (s *Session) commitLocked(res editor.Result) {
	if !res.Changed {
		return
	}
	s.doc.Blocks = res.Blocks
	s.gen++
	s.restartIdleLocked()
}

// reconcileHeading bumps the usage count for a completed scene heading.
// Bare prefixes like "INT." are the typing path toward a heading, not a
// heading, and are skipped.
func (s *Session) reconcileHeading(ctx context.Context, res editor.Result, blockID string) {
	if !res.Changed || s.persist == nil {
		return
	}
	i := domain.FindBlock(res.Blocks, blockID)
	if i < 0 || res.Blocks[i].Type != domain.SceneHeading {
		return
	}
	heading := format.NormalizeHeading(res.Blocks[i].Content)
	if heading == "" || format.IsBareHeadingPrefix(heading) {
		return
	}
	key := format.HeadingKey(heading)
	if err := s.persist.IncrementHeadingUsage(ctx, key, heading); err != nil {
		s.logger.Warn("heading usage increment failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Undo restores the previous snapshot. Returns false when the stack is empty.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	blocks, ok := s.hist.Undo(s.doc.Blocks)
	if !ok {
		return false
	}
	s.doc.Blocks = blocks
	s.gen++
	s.restartIdleLocked()
	return true
}

// Redo reverses the latest Undo.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	blocks, ok := s.hist.Redo(s.doc.Blocks)
	if !ok {
		return false
	}
	s.doc.Blocks = blocks
	s.gen++
	s.restartIdleLocked()
	return true
}

// ReorderScenes reassembles the document per the new scene order. Autosave is
// suppressed for the duration; the reorder persists explicitly when done so a
// half-applied order is never written out.
func (s *Session) ReorderScenes(ctx context.Context, order []int) error {
	s.mu.Lock()
	s.reordering = true
	s.stopIdleLocked()
	s.hist.Push(s.doc.Blocks, s.opts.Now())
	s.doc.Blocks = domain.ReorderScenes(s.doc.Blocks, order)
	s.gen++
	s.reordering = false
	s.mu.Unlock()
	return s.Save(ctx)
}

// Save writes the document now. Overlapping calls serialize; a save that
// raced with newer mutations leaves the session dirty so the idle timer
// writes again.
func (s *Session) Save(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	gen := s.gen
	sp := s.doc
	sp.Blocks = domain.CloneBlocks(s.doc.Blocks)
	s.mu.Unlock()

	s.status(Saving, nil)
	if err := s.persist.SaveDocument(ctx, &sp); err != nil {
		s.logger.Error("document save failed", slog.Any("error", err))
		s.status(SaveFailed, err)
		return err
	}
	s.mu.Lock()
	if gen > s.savedGen {
		s.savedGen = gen
	}
	s.mu.Unlock()
	s.status(Saved, nil)
	return nil
}

// Dirty reports whether mutations exist that no completed save has captured.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen != s.savedGen
}

func (s *Session) status(state SaveState, err error) {
	if s.opts.OnSaveStatus != nil {
		s.opts.OnSaveStatus(state, err)
	}
}

func (s *Session) applyFocus(res editor.Result) {
	if !res.Changed || s.opts.Resolver == nil {
		return
	}
	editor.ApplyFocus(res.Focus, s.opts.Resolver, s.opts.Retry, nil)
}

func (s *Session) startTimer(d time.Duration, fire func()) func() {
	if s.opts.StartTimer != nil {
		return s.opts.StartTimer(d, fire)
	}
	t := time.AfterFunc(d, fire)
	return func() { t.Stop() }
}

// restartIdleLocked (re)arms the autosave timer; callers hold s.mu.
func (s *Session) restartIdleLocked() {
	if s.reordering {
		return
	}
	s.stopIdleLocked()
	s.cancelIdle = s.startTimer(s.opts.AutosaveIdle, func() {
		s.mu.Lock()
		s.cancelIdle = nil
		dirty := s.gen != s.savedGen
		s.mu.Unlock()
		if !dirty {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = s.Save(ctx) // failure already surfaced via the status callback
	})
}

func (s *Session) stopIdleLocked() {
	if s.cancelIdle != nil {
		s.cancelIdle()
		s.cancelIdle = nil
	}
}

// Close stops the idle timer and flushes unsaved changes.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	s.stopIdleLocked()
	dirty := s.gen != s.savedGen
	s.mu.Unlock()
	if !dirty {
		return nil
	}
	return s.Save(ctx)
}
