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

	"goscreenwriter/internal/domain"
)

func anchored(id string, start, end int) domain.Comment {
	return domain.Comment{ID: id, BlockID: "b1", StartOffset: start, EndOffset: end}
}

func TestMergeOverlappingPair(t *testing.T) {
	// Two overlapping anchors on one block collapse into a single range.
	got := MergeRanges([]domain.Comment{anchored("c1", 0, 20), anchored("c2", 15, 30)}, "")
	if len(got) != 1 {
		t.Fatalf("expected one merged range, got %+v", got)
	}
	r := got[0]
	if r.Start != 0 || r.End != 30 {
		t.Fatalf("merged bounds = [%d,%d), want [0,30)", r.Start, r.End)
	}
	if len(r.CommentIDs) != 2 || r.CommentIDs[0] != "c1" || r.CommentIDs[1] != "c2" {
		t.Fatalf("merged ids = %v", r.CommentIDs)
	}
	if r.Tier != 2 {
		t.Fatalf("tier = %d, want 2", r.Tier)
	}
}

func TestMergeIsTransitive(t *testing.T) {
	// c1 and c3 do not overlap directly but both overlap c2.
	got := MergeRanges([]domain.Comment{
		anchored("c1", 0, 10),
		anchored("c3", 18, 25),
		anchored("c2", 8, 20),
	}, "")
	if len(got) != 1 {
		t.Fatalf("transitive overlap should merge into one range: %+v", got)
	}
	if got[0].Start != 0 || got[0].End != 25 || len(got[0].CommentIDs) != 3 {
		t.Fatalf("unexpected merged range: %+v", got[0])
	}
}

func TestTouchingRangesDoNotMerge(t *testing.T) {
	got := MergeRanges([]domain.Comment{anchored("c1", 0, 10), anchored("c2", 10, 20)}, "")
	if len(got) != 2 {
		t.Fatalf("adjacent ranges must stay separate: %+v", got)
	}
}

func TestOutputSortedByDescendingStart(t *testing.T) {
	got := MergeRanges([]domain.Comment{
		anchored("a", 0, 5),
		anchored("b", 40, 50),
		anchored("c", 10, 20),
	}, "")
	if len(got) != 3 {
		t.Fatalf("expected 3 ranges, got %+v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start > got[i-1].Start {
			t.Fatalf("not sorted by descending start: %+v", got)
		}
	}
}

func TestMergePartitionProperty(t *testing.T) {
	input := []domain.Comment{
		anchored("c1", 3, 9),
		anchored("c2", 5, 14),
		anchored("c3", 20, 28),
		anchored("c4", 27, 35),
		anchored("c5", 40, 41),
	}
	got := MergeRanges(input, "")
	// pairwise non-overlapping
	for i := range got {
		for j := i + 1; j < len(got); j++ {
			a, b := got[i], got[j]
			if a.Start < b.End && a.End > b.Start {
				t.Fatalf("ranges %d and %d overlap: %+v", i, j, got)
			}
		}
	}
	// every input id appears in exactly one output range
	count := map[string]int{}
	for _, r := range got {
		for _, id := range r.CommentIDs {
			count[id]++
		}
	}
	for _, c := range input {
		if count[c.ID] != 1 {
			t.Fatalf("id %s appears %d times", c.ID, count[c.ID])
		}
	}
	// coverage: each input range fully inside one output range
	for _, c := range input {
		found := false
		for _, r := range got {
			if c.StartOffset >= r.Start && c.EndOffset <= r.End {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("input %s not covered by any output range", c.ID)
		}
	}
}

func TestTierIsCapped(t *testing.T) {
	cs := []domain.Comment{
		anchored("a", 0, 10), anchored("b", 1, 10), anchored("c", 2, 10),
		anchored("d", 3, 10), anchored("e", 4, 10),
	}
	got := MergeRanges(cs, "")
	if len(got) != 1 || got[0].Tier != MaxOverlapTier {
		t.Fatalf("tier should cap at %d: %+v", MaxOverlapTier, got)
	}
}

func TestActiveFlag(t *testing.T) {
	got := MergeRanges([]domain.Comment{anchored("c1", 0, 5), anchored("c2", 10, 15)}, "c2")
	for _, r := range got {
		wantActive := r.CommentIDs[0] == "c2"
		if r.Active != wantActive {
			t.Fatalf("active flag wrong: %+v", got)
		}
	}
}

func TestDegenerateAnchorsKeepTheirIDs(t *testing.T) {
	// Empty and inverted anchors collapse to zero-width ranges; the ids
	// still appear exactly once in the output.
	got := MergeRanges([]domain.Comment{anchored("z", 7, 7), anchored("y", 9, 4)}, "")
	if len(got) != 2 {
		t.Fatalf("expected two zero-width ranges, got %+v", got)
	}
	seen := map[string]int{}
	for _, r := range got {
		if r.Start != r.End {
			t.Fatalf("degenerate anchor widened: %+v", r)
		}
		for _, id := range r.CommentIDs {
			seen[id]++
		}
	}
	if seen["z"] != 1 || seen["y"] != 1 {
		t.Fatalf("ids not partitioned: %v", seen)
	}
}

func TestInteriorZeroWidthAnchorMergesIntoContainingRange(t *testing.T) {
	got := MergeRanges([]domain.Comment{anchored("wide", 0, 20), anchored("dot", 5, 5)}, "")
	if len(got) != 1 {
		t.Fatalf("interior zero-width anchor should be absorbed: %+v", got)
	}
	if got[0].Start != 0 || got[0].End != 20 || len(got[0].CommentIDs) != 2 {
		t.Fatalf("unexpected merged range: %+v", got[0])
	}
}

func TestClampRangeDegradesToWholeBlock(t *testing.T) {
	r := MergedRange{Start: 10, End: 50, CommentIDs: []string{"c1"}}
	clamped, exact := ClampRange(r, 30) // text shrank under the anchor
	if exact {
		t.Fatalf("out-of-bounds range should not be exact")
	}
	if clamped.Start != 0 || clamped.End != 30 {
		t.Fatalf("expected whole-block fallback, got [%d,%d)", clamped.Start, clamped.End)
	}

	ok, exact := ClampRange(MergedRange{Start: 2, End: 8}, 30)
	if !exact || ok.Start != 2 || ok.End != 8 {
		t.Fatalf("in-bounds range should pass through: %+v %v", ok, exact)
	}

	empty, exact := ClampRange(MergedRange{Start: 0, End: 4}, 0)
	if exact || empty.Start != 0 || empty.End != 0 {
		t.Fatalf("empty text yields empty range: %+v %v", empty, exact)
	}
}
