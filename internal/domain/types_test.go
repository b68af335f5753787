/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestBlockTypeJSONRoundTrip(t *testing.T) {
	for bt := SceneHeading; bt <= Shot; bt++ {
		b := Block{ID: "b1", Type: bt, Content: "x"}
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal %v: %v", bt, err)
		}
		var back Block
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %v: %v", bt, err)
		}
		if back.Type != bt {
			t.Fatalf("round trip changed type: %v -> %v", bt, back.Type)
		}
	}
}

func TestParseBlockTypeRejectsUnknown(t *testing.T) {
	if _, err := ParseBlockType("montage"); err == nil {
		t.Fatalf("expected error for unknown token")
	}
}

func TestNewIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID("blk")
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func scriptFixture() []Block {
	return []Block{
		{ID: "h1", Type: SceneHeading, Content: "INT. KITCHEN - DAY"},
		{ID: "a1", Type: Action, Content: "Alex fills the kettle."},
		{ID: "c1", Type: Character, Content: "ALEX"},
		{ID: "d1", Type: Dialogue, Content: "Tea?"},
		{ID: "h2", Type: SceneHeading, Content: "EXT. GARDEN - DAY"},
		{ID: "a2", Type: Action, Content: "Birdsong."},
	}
}

func TestScenesFlattenRoundTrip(t *testing.T) {
	blocks := scriptFixture()
	scenes := Scenes(blocks)
	if len(scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(scenes))
	}
	if scenes[0].HeadingID() != "h1" || scenes[1].HeadingID() != "h2" {
		t.Fatalf("unexpected heading ids: %q %q", scenes[0].HeadingID(), scenes[1].HeadingID())
	}
	flat := Flatten(scenes)
	if !reflect.DeepEqual(flat, blocks) {
		t.Fatalf("flatten(scenes(blocks)) != blocks:\n%+v\n%+v", flat, blocks)
	}
	if !reflect.DeepEqual(Scenes(flat), scenes) {
		t.Fatalf("scenes(flatten(scenes)) != scenes")
	}
}

func TestScenesPreambleBeforeFirstHeading(t *testing.T) {
	blocks := []Block{
		{ID: "a0", Type: Action, Content: "Over black."},
		{ID: "h1", Type: SceneHeading, Content: "INT. HALL - NIGHT"},
	}
	scenes := Scenes(blocks)
	if len(scenes) != 2 {
		t.Fatalf("expected preamble + 1 scene, got %d", len(scenes))
	}
	if scenes[0].HeadingID() != "" {
		t.Fatalf("preamble scene should have no heading id")
	}
	if !reflect.DeepEqual(Flatten(scenes), blocks) {
		t.Fatalf("round trip lost the preamble")
	}
}

func TestReorderScenesSwapsWholeScenes(t *testing.T) {
	blocks := scriptFixture()
	got := ReorderScenes(blocks, []int{1, 0})
	wantIDs := []string{"h2", "a2", "h1", "a1", "c1", "d1"}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Fatalf("position %d = %q, want %q (%+v)", i, got[i].ID, id, got)
		}
	}
	// headings renumbered in new order
	if got[0].Number != 1 || got[2].Number != 2 {
		t.Fatalf("headings not renumbered: %+v", got)
	}
}

func TestReorderScenesIgnoresBadIndexes(t *testing.T) {
	blocks := scriptFixture()
	got := ReorderScenes(blocks, []int{5, -1, 0})
	// scene 0 explicitly first, scene 1 appended
	if got[0].ID != "h1" || got[4].ID != "h2" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestRenumberCountsScenesAndDialogue(t *testing.T) {
	blocks := Renumber(scriptFixture())
	if blocks[0].Number != 1 || blocks[4].Number != 2 {
		t.Fatalf("scene numbers wrong: %+v", blocks)
	}
	if blocks[3].Number != 1 {
		t.Fatalf("dialogue number wrong: %+v", blocks[3])
	}
	if blocks[1].Number != 0 {
		t.Fatalf("action should carry no number: %+v", blocks[1])
	}
}
