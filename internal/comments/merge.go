/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package comments

import (
	"sort"

	"goscreenwriter/internal/domain"
)

// MaxOverlapTier caps the visual intensity derived from how many comments
// merged into one range.
const MaxOverlapTier = 3

// MergedRange is a maximal union of overlapping comment anchors on one
// block, rendered as a single highlighted span.
type MergedRange struct {
	Start      int
	End        int
	CommentIDs []string
	// Tier is the overlap count capped at MaxOverlapTier.
	Tier int
	// Active marks the range containing the currently selected comment.
	Active bool
}

// MergeRanges converts the comment anchors of one block into non-overlapping
// render ranges. Two ranges merge iff they overlap (a.start < b.end &&
// a.end > b.start); merging is transitive within one pass. The output is
// sorted by descending start: the renderer rewrites the block text
// destructively from the end, so higher offsets must be processed first to
// keep lower ones valid.
func MergeRanges(cs []domain.Comment, activeID string) []MergedRange {
	type anchor struct {
		start, end int
		id         string
	}
	anchors := make([]anchor, 0, len(cs))
	for _, c := range cs {
		// A degenerate anchor (empty or inverted) still owns its comment id:
		// it collapses to a zero-width range at its start so every id lands
		// in exactly one output range. Strictly interior zero-width anchors
		// merge into the range that contains them.
		start, end := c.StartOffset, c.EndOffset
		if end < start {
			end = start
		}
		anchors = append(anchors, anchor{start: start, end: end, id: c.ID})
	}
	if len(anchors) == 0 {
		return nil
	}
	sort.SliceStable(anchors, func(i, j int) bool { return anchors[i].start < anchors[j].start })

	var out []MergedRange
	cur := MergedRange{Start: anchors[0].start, End: anchors[0].end, CommentIDs: []string{anchors[0].id}}
	for _, a := range anchors[1:] {
		if a.start < cur.End && a.end > cur.Start {
			if a.end > cur.End {
				cur.End = a.end
			}
			cur.CommentIDs = append(cur.CommentIDs, a.id)
			continue
		}
		out = append(out, cur)
		cur = MergedRange{Start: a.start, End: a.end, CommentIDs: []string{a.id}}
	}
	out = append(out, cur)

	for i := range out {
		out[i].Tier = len(out[i].CommentIDs)
		if out[i].Tier > MaxOverlapTier {
			out[i].Tier = MaxOverlapTier
		}
		if activeID != "" {
			for _, id := range out[i].CommentIDs {
				if id == activeID {
					out[i].Active = true
					break
				}
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start > out[j].Start })
	return out
}

// ClampRange validates a merged range against the block's current text
// length. Offsets are captured at comment creation and never reconciled with
// later edits, so a range that no longer fits degrades to whole-block
// anchoring instead of failing the highlight pass. The second return is
// false when the original offsets could not be used as-is.
func ClampRange(r MergedRange, textLen int) (MergedRange, bool) {
	if textLen <= 0 {
		r.Start, r.End = 0, 0
		return r, false
	}
	if r.Start >= 0 && r.End <= textLen && r.Start < r.End {
		return r, true
	}
	r.Start, r.End = 0, textLen
	return r, false
}
