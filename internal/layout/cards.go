/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package layout positions comment cards in the side panel against the
// vertical position of their anchor block. The packer is pure: callers decide
// when to re-run it (comment set changed, expand/collapse, resize, throttled
// scroll) and which comments are visible; filtered-out comments are excluded
// from the pass entirely, not hidden afterwards.
package layout

import (
	sortpkg "sort"

	"goscreenwriter/internal/domain"
)

// CardMetrics are the per-row height constants of the estimation model.
// All units are pixels in the panel's coordinate space.
type CardMetrics struct {
	BaseHeight    float32 // header, body text and action row, normal mode
	CompactHeight float32 // replaces BaseHeight when the card renders compact
	QuoteRow      float32 // highlighted-text quote above the body
	ReplyRow      float32 // one threaded reply
	ReactionRow   float32 // emoji strip, present once regardless of count
	EditorHeight  float32 // expanded inline reply editor
}

// DefaultMetrics returns the height model used when no card has been
// measured yet. Measured heights always win over estimates.
func DefaultMetrics() CardMetrics {
	return CardMetrics{
		BaseHeight:    96,
		CompactHeight: 56,
		QuoteRow:      28,
		ReplyRow:      44,
		ReactionRow:   26,
		EditorHeight:  72,
	}
}

// CardState carries the render flags that change a card's height but are not
// part of the comment itself.
type CardState struct {
	Compact        bool
	EditorExpanded bool
}

// EstimateCardHeight predicts a card's height before it has been rendered.
func EstimateCardHeight(c domain.Comment, st CardState, m CardMetrics) float32 {
	h := m.BaseHeight
	if st.Compact {
		h = m.CompactHeight
	}
	if c.HighlightedText != "" {
		h += m.QuoteRow
	}
	h += float32(len(c.Replies)) * m.ReplyRow
	if len(c.Reactions) > 0 {
		h += m.ReactionRow
	}
	if st.EditorExpanded {
		h += m.EditorHeight
	}
	return h
}

// Anchor is one visible comment entering the packing pass.
type Anchor struct {
	CommentID string
	// AnchorOffset is the vertical offset of the anchor block within the
	// document view.
	AnchorOffset float32
	// Height is the measured card height, or an EstimateCardHeight result.
	Height float32
}

// PackOptions controls the packing pass. Margin defaults to 16 and
// VerticalOffset to 0 when left zero.
type PackOptions struct {
	// VerticalOffset is the fixed offset applied uniformly to align each
	// card with its anchor block.
	VerticalOffset float32
	// Margin is the minimum vertical clearance between two cards.
	Margin float32
}

// DefaultCardMargin is the clearance between stacked cards.
const DefaultCardMargin float32 = 16

// CardPosition is the packed top pixel for one card.
type CardPosition struct {
	CommentID string
	Top       float32
	// Pushed reports that the card could not sit at its aligned position
	// and was moved down to clear the card above it.
	Pushed bool
}

// PackCards assigns a non-overlapping top position to every anchor. Cards are
// processed in ascending anchor order; a card whose aligned position
// (anchor + vertical offset) clears everything above it stays there, anything
// else is pushed down below the accumulated bottom. Deterministic for
// identical inputs.
func PackCards(anchors []Anchor, opts PackOptions) []CardPosition {
	if opts.Margin <= 0 {
		opts.Margin = DefaultCardMargin
	}
	sorted := make([]Anchor, len(anchors))
	copy(sorted, anchors)
	sortpkg.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AnchorOffset < sorted[j].AnchorOffset
	})

	out := make([]CardPosition, 0, len(sorted))
	var accumulatedBottom float32
	for _, a := range sorted {
		aligned := a.AnchorOffset + opts.VerticalOffset
		pos := aligned
		pushed := false
		if aligned < accumulatedBottom {
			pos = accumulatedBottom + opts.Margin
			pushed = true
		}
		accumulatedBottom = pos + a.Height + opts.Margin
		out = append(out, CardPosition{CommentID: a.CommentID, Top: pos, Pushed: pushed})
	}
	return out
}
