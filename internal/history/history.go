/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package history keeps an in-memory undo/redo stack of block store
// snapshots for one editing session, with byte and depth caps so a long
// session cannot grow without bound.
package history

import (
	"sync"
	"time"

	"goscreenwriter/internal/domain"
)

// Snapshot is an immutable copy of the block store at one point in time.
type Snapshot struct {
	Blocks []domain.Block
	TS     time.Time
}

func (s Snapshot) size() int {
	n := 0
	for _, b := range s.Blocks {
		n += len(b.ID) + len(b.Content) + 16
	}
	return n
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; the oldest entries are pruned when exceeded.
	MaxBytes int
	// MaxEntries limits the undo depth (0 means unlimited).
	MaxEntries int
	// MinInterval coalesces snapshots pushed within the interval,
	// replacing the previous one instead of pushing a new entry.
	MinInterval time.Duration
}

// Stack provides undo/redo over block store snapshots. Safe for concurrent use.
type Stack struct {
	cfg  Config
	mu   sync.Mutex
	undo []Snapshot
	redo []Snapshot
	// accounting
	totalBytes int
}

func NewStack(cfg Config) *Stack {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Stack{cfg: cfg}
}

// Push records a snapshot of the pre-edit store. If within MinInterval of the
// previous push it replaces it instead. Any fresh push clears the redo stack.
func (st *Stack) Push(blocks []domain.Block, ts time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := Snapshot{Blocks: domain.CloneBlocks(blocks), TS: ts}
	if n := len(st.undo); n > 0 && st.cfg.MinInterval > 0 {
		last := st.undo[n-1]
		if ts.Sub(last.TS) < st.cfg.MinInterval {
			st.totalBytes += s.size() - last.size()
			st.undo[n-1] = s
			st.redo = nil
			st.enforceCapsLocked()
			return
		}
	}
	st.undo = append(st.undo, s)
	st.totalBytes += s.size()
	st.redo = nil
	st.enforceCapsLocked()
}

// Undo pops the most recent snapshot into the caller's hands and parks the
// current live store on the redo stack. Returns false when nothing to undo.
func (st *Stack) Undo(current []domain.Block) ([]domain.Block, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := len(st.undo)
	if n == 0 {
		return nil, false
	}
	s := st.undo[n-1]
	st.undo = st.undo[:n-1]
	st.totalBytes -= s.size()
	st.redo = append(st.redo, Snapshot{Blocks: domain.CloneBlocks(current), TS: time.Now()})
	return s.Blocks, true
}

// Redo reverses the latest Undo. Returns false when nothing to redo.
func (st *Stack) Redo(current []domain.Block) ([]domain.Block, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := len(st.redo)
	if n == 0 {
		return nil, false
	}
	s := st.redo[n-1]
	st.redo = st.redo[:n-1]
	cur := Snapshot{Blocks: domain.CloneBlocks(current), TS: time.Now()}
	st.undo = append(st.undo, cur)
	st.totalBytes += cur.size()
	st.enforceCapsLocked()
	return s.Blocks, true
}

// CanUndo reports whether the undo stack is non-empty.
func (st *Stack) CanUndo() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.undo) > 0
}

// CanRedo reports whether the redo stack is non-empty.
func (st *Stack) CanRedo() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.redo) > 0
}

// Clear drops both stacks, e.g. when a new document is loaded.
func (st *Stack) Clear() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.undo = nil
	st.redo = nil
	st.totalBytes = 0
}

// Stats returns current sizes for diagnostics.
func (st *Stack) Stats() (totalBytes, undoDepth, redoDepth int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.totalBytes, len(st.undo), len(st.redo)
}

func (st *Stack) enforceCapsLocked() {
	if st.cfg.MaxEntries > 0 && len(st.undo) > st.cfg.MaxEntries {
		drop := len(st.undo) - st.cfg.MaxEntries
		for i := 0; i < drop; i++ {
			st.totalBytes -= st.undo[i].size()
		}
		st.undo = append([]Snapshot{}, st.undo[drop:]...)
	}
	for st.cfg.MaxBytes > 0 && st.totalBytes > st.cfg.MaxBytes && len(st.undo) > 1 {
		st.totalBytes -= st.undo[0].size()
		st.undo = st.undo[1:]
	}
	if st.totalBytes < 0 {
		st.totalBytes = 0
	}
}
