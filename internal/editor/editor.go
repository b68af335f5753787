/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor implements the block editing state machine: how a single
// keystroke (Enter, Backspace, Tab, or a plain content edit) decides whether
// to split, merge, retype, or reformat blocks.
//
// All operations are synchronous and total: invalid block ids return the
// store unchanged. Every mutating branch records a snapshot of the pre-edit
// store before touching it. Double-Enter detection works off a single
// session-wide timestamp passed in explicitly by the caller; rapid Enters
// across different blocks therefore count as a double on purpose (a known
// tie-break rule, kept for reproducibility).
package editor

import (
	"strings"
	"time"

	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/format"
)

// DoubleEnterWindow is the default window within which a second Enter turns
// a fresh dialogue block into an action block.
const DoubleEnterWindow = 500 * time.Millisecond

// History receives pre-edit snapshots. Usually *history.Stack.
type History interface {
	Push(blocks []domain.Block, ts time.Time)
}

// Focus tells the host surface which block should receive input and where.
type Focus struct {
	BlockID string
	// Caret is a rune offset into the block's content.
	Caret int
	// OpenSuggest asks the host to re-open the scene-heading suggestion
	// surface for the focused block.
	OpenSuggest bool
}

// Result is the outcome of one state machine operation.
type Result struct {
	Blocks  []domain.Block
	Focus   Focus
	Changed bool
}

// Machine is the edit state machine. The zero value works without history
// recording and with the default double-Enter window.
type Machine struct {
	History History
	// Window overrides DoubleEnterWindow when > 0.
	Window time.Duration
}

func (m *Machine) window() time.Duration {
	if m.Window > 0 {
		return m.Window
	}
	return DoubleEnterWindow
}

func (m *Machine) record(blocks []domain.Block, ts time.Time) {
	if m.History != nil {
		m.History.Push(blocks, ts)
	}
}

func unchanged(blocks []domain.Block) Result {
	return Result{Blocks: blocks}
}

// typeCycle is the fixed ordering Tab steps through.
var typeCycle = []domain.BlockType{
	domain.SceneHeading,
	domain.Action,
	domain.Character,
	domain.Dialogue,
	domain.Parenthetical,
	domain.Transition,
	domain.Shot,
}

// OnEnter handles the Enter key on the block with the given id, with the
// caret at a rune offset into its content. at is the keystroke time and
// lastEnter the session's previous Enter timestamp (zero when none).
func (m *Machine) OnEnter(blocks []domain.Block, blockID string, caret int, at, lastEnter time.Time) Result {
	i := domain.FindBlock(blocks, blockID)
	if i < 0 {
		return unchanged(blocks)
	}
	b := blocks[i]
	runes := []rune(b.Content)
	if caret < 0 {
		caret = 0
	}
	if caret > len(runes) {
		caret = len(runes)
	}
	before := string(runes[:caret])
	after := string(runes[caret:])
	doubleEnter := !lastEnter.IsZero() && at.Sub(lastEnter) >= 0 && at.Sub(lastEnter) < m.window()

	switch {
	case b.Type == domain.Transition:
		// The transition is finished; what follows is almost always a new
		// scene, so seed an empty heading right away.
		m.record(blocks, at)
		out := domain.CloneBlocks(blocks)
		out[i].Content = strings.ToUpper(before)
		heading := domain.Block{ID: domain.NewID("blk"), Type: domain.SceneHeading, Content: after}
		out = insertAfter(out, i, heading)
		return Result{
			Blocks:  domain.Renumber(out),
			Focus:   Focus{BlockID: heading.ID, Caret: len([]rune(after)), OpenSuggest: true},
			Changed: true,
		}

	case b.Type == domain.Character && before == "" && after == "":
		// Accidental Enter on an empty cue: escape into body text without
		// leaving an orphan character block behind.
		m.record(blocks, at)
		out := domain.CloneBlocks(blocks)
		if i+1 < len(out) && out[i+1].Type == domain.Dialogue {
			out[i].Type = domain.Action
		} else {
			out[i].Type = domain.Dialogue
		}
		return Result{Blocks: domain.Renumber(out), Focus: Focus{BlockID: out[i].ID}, Changed: true}

	case b.Type == domain.Character:
		m.record(blocks, at)
		out := domain.CloneBlocks(blocks)
		out[i].Content = strings.ToUpper(before)
		next := domain.Dialogue
		if doubleEnter {
			next = domain.Action
		}
		nb := domain.Block{ID: domain.NewID("blk"), Type: next, Content: after}
		out = insertAfter(out, i, nb)
		return Result{Blocks: domain.Renumber(out), Focus: Focus{BlockID: nb.ID}, Changed: true}

	case b.Type == domain.Dialogue && before == "" && doubleEnter:
		m.record(blocks, at)
		out := domain.CloneBlocks(blocks)
		if after == "" {
			// Replace the empty dialogue block outright.
			out[i].Type = domain.Action
			return Result{Blocks: domain.Renumber(out), Focus: Focus{BlockID: out[i].ID}, Changed: true}
		}
		out[i].Content = ""
		nb := domain.Block{ID: domain.NewID("blk"), Type: domain.Action, Content: after}
		out = insertAfter(out, i, nb)
		return Result{Blocks: domain.Renumber(out), Focus: Focus{BlockID: nb.ID}, Changed: true}

	case b.Type == domain.Parenthetical:
		m.record(blocks, at)
		out := domain.CloneBlocks(blocks)
		out[i].Content = format.BalanceParens(before)
		rest := strings.TrimPrefix(after, ")")
		nb := domain.Block{ID: domain.NewID("blk"), Type: domain.Dialogue, Content: rest}
		out = insertAfter(out, i, nb)
		return Result{Blocks: domain.Renumber(out), Focus: Focus{BlockID: nb.ID}, Changed: true}

	default:
		if len(runes) == 0 {
			// Nothing to split; only caret/focus logic runs.
			return Result{
				Blocks: blocks,
				Focus:  Focus{BlockID: b.ID, OpenSuggest: b.Type == domain.SceneHeading},
			}
		}
		newType := b.Type
		if t, ok := format.Classify(before); ok {
			newType = t
		}
		m.record(blocks, at)
		out := domain.CloneBlocks(blocks)
		out[i].Content = before
		nb := domain.Block{ID: domain.NewID("blk"), Type: newType, Content: after}
		out = insertAfter(out, i, nb)
		focus := Focus{BlockID: nb.ID}
		if newType == domain.SceneHeading {
			focus.Caret = len([]rune(after))
			focus.OpenSuggest = true
		}
		return Result{Blocks: domain.Renumber(out), Focus: focus, Changed: true}
	}
}

// OnBackspace handles Backspace on a block whose text is already empty.
// Deleting the only block or the first block is refused.
func (m *Machine) OnBackspace(blocks []domain.Block, blockID string) Result {
	i := domain.FindBlock(blocks, blockID)
	if i < 0 {
		return unchanged(blocks)
	}
	if blocks[i].Content != "" {
		return unchanged(blocks)
	}
	if len(blocks) <= 1 || i == 0 {
		return unchanged(blocks)
	}
	m.record(blocks, time.Now())
	out := domain.CloneBlocks(blocks)
	out = append(out[:i], out[i+1:]...)
	prev := out[i-1]
	return Result{
		Blocks:  domain.Renumber(out),
		Focus:   Focus{BlockID: prev.ID, Caret: len([]rune(prev.Content))},
		Changed: true,
	}
}

// OnTab cycles the block's type forward through the fixed ordering, applying
// the same content transforms as OnFormatChange.
func (m *Machine) OnTab(blocks []domain.Block, blockID string, caret int) Result {
	i := domain.FindBlock(blocks, blockID)
	if i < 0 {
		return unchanged(blocks)
	}
	cur := blocks[i].Type
	next := typeCycle[0]
	for j, t := range typeCycle {
		if t == cur {
			next = typeCycle[(j+1)%len(typeCycle)]
			break
		}
	}
	return m.OnFormatChange(blocks, blockID, next, caret)
}

// OnFormatChange retypes a block, applying type-specific content transforms
// and remapping the caret proportionally into the transformed content.
// Switching into scene-heading mints a fresh id: heading ids double as scene
// identifiers downstream.
func (m *Machine) OnFormatChange(blocks []domain.Block, blockID string, newType domain.BlockType, caret int) Result {
	i := domain.FindBlock(blocks, blockID)
	if i < 0 || !newType.Valid() {
		return unchanged(blocks)
	}
	b := blocks[i]
	if b.Type == newType {
		return unchanged(blocks)
	}
	m.record(blocks, time.Now())
	out := domain.CloneBlocks(blocks)

	content := b.Content
	if b.Type == domain.Parenthetical && newType != domain.Parenthetical {
		content = format.StripParenthetical(content)
	}
	switch newType {
	case domain.SceneHeading, domain.Character, domain.Transition, domain.Shot:
		content = strings.ToUpper(content)
	case domain.Parenthetical:
		content = format.WrapParenthetical(content)
	}
	if newType == domain.Transition && strings.TrimSpace(content) != "" && !format.EndsWithTransitionCue(content) {
		content += " TO:"
	}

	out[i].Type = newType
	out[i].Content = content
	if newType == domain.SceneHeading {
		out[i].ID = domain.NewID("blk")
	}

	focus := Focus{BlockID: out[i].ID, Caret: remapCaret(caret, b.Content, content)}
	if newType == domain.SceneHeading {
		focus.Caret = len([]rune(content))
		focus.OpenSuggest = true
	}
	return Result{Blocks: domain.Renumber(out), Focus: focus, Changed: true}
}

// OnContentChange applies a plain (non-structural) edit. Empty text with more
// than one block present and no forced type deletes the block, acting as an
// implicit backspace-to-merge. Otherwise the block is reclassified, and a
// block that just became a non-empty character cue gets an empty dialogue
// sibling inserted after it; focus stays on the edited block.
func (m *Machine) OnContentChange(blocks []domain.Block, blockID, newText string, forced *domain.BlockType) Result {
	i := domain.FindBlock(blocks, blockID)
	if i < 0 {
		return unchanged(blocks)
	}
	if newText == "" && len(blocks) > 1 && forced == nil {
		m.record(blocks, time.Now())
		out := domain.CloneBlocks(blocks)
		out = append(out[:i], out[i+1:]...)
		focus := Focus{}
		if i > 0 {
			focus = Focus{BlockID: out[i-1].ID, Caret: len([]rune(out[i-1].Content))}
		} else {
			focus = Focus{BlockID: out[0].ID}
		}
		return Result{Blocks: domain.Renumber(out), Focus: focus, Changed: true}
	}

	newType := blocks[i].Type
	if forced != nil {
		newType = *forced
	} else if t, ok := format.Classify(newText); ok {
		newType = t
	}

	if blocks[i].Content == newText && blocks[i].Type == newType {
		return unchanged(blocks)
	}
	m.record(blocks, time.Now())
	out := domain.CloneBlocks(blocks)
	becameCharacter := newType == domain.Character && blocks[i].Type != domain.Character
	out[i].Content = newText
	out[i].Type = newType

	if becameCharacter && newText != "" {
		// The one rule that mutates a sibling from inside a content change:
		// a fresh cue always wants a dialogue block underneath. Focus does
		// not move; later explicit interaction does that.
		if i+1 >= len(out) || out[i+1].Type != domain.Dialogue || out[i+1].Content != "" {
			out = insertAfter(out, i, domain.Block{ID: domain.NewID("blk"), Type: domain.Dialogue})
		}
	}
	return Result{
		Blocks:  domain.Renumber(out),
		Focus:   Focus{BlockID: out[i].ID, Caret: len([]rune(newText))},
		Changed: true,
	}
}

func insertAfter(blocks []domain.Block, i int, b domain.Block) []domain.Block {
	blocks = append(blocks, domain.Block{})
	copy(blocks[i+2:], blocks[i+1:])
	blocks[i+1] = b
	return blocks
}

// remapCaret maps a caret proportionally from the old content into the new,
// so retyping does not dump the cursor at position zero.
func remapCaret(caret int, oldContent, newContent string) int {
	oldLen := len([]rune(oldContent))
	newLen := len([]rune(newContent))
	if oldLen == 0 || newLen == 0 {
		return 0
	}
	if caret < 0 {
		caret = 0
	}
	if caret > oldLen {
		caret = oldLen
	}
	mapped := caret * newLen / oldLen
	if mapped > newLen {
		mapped = newLen
	}
	return mapped
}
