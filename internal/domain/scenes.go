/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Scene is a derived grouping: a maximal contiguous run of blocks starting at
// a scene-heading block (inclusive) up to the next scene-heading block.
// Scenes are recomputed from the flat store on demand and never persisted
// independently of it, except as a denormalized cache for fast reordering.
type Scene struct {
	Order  int     `json:"order"`
	Blocks []Block `json:"blocks"`
}

// HeadingID returns the id of the scene's heading block, or "" for a
// preamble scene that starts before the first heading.
func (s Scene) HeadingID() string {
	if len(s.Blocks) > 0 && s.Blocks[0].Type == SceneHeading {
		return s.Blocks[0].ID
	}
	return ""
}

// Scenes groups a flat block store into derived scenes.
// Blocks before the first scene heading form a leading scene of their own so
// that Flatten(Scenes(blocks)) always reproduces the input.
func Scenes(blocks []Block) []Scene {
	var out []Scene
	var cur []Block
	flush := func() {
		if len(cur) > 0 {
			out = append(out, Scene{Order: len(out), Blocks: cur})
			cur = nil
		}
	}
	for _, b := range blocks {
		if b.Type == SceneHeading {
			flush()
		}
		cur = append(cur, b)
	}
	flush()
	return out
}

// Flatten concatenates scene block lists back into one flat store, in the
// order the scenes appear. It does not renumber; see Renumber.
func Flatten(scenes []Scene) []Block {
	var n int
	for _, s := range scenes {
		n += len(s.Blocks)
	}
	out := make([]Block, 0, n)
	for _, s := range scenes {
		out = append(out, s.Blocks...)
	}
	return out
}

// ReorderScenes reassembles the flat store according to a new scene order.
// order holds indexes into the current derived scene list. Indexes out of
// range are skipped; scenes not mentioned keep their relative order and are
// appended after the reordered ones. Blocks are never moved across scene
// boundaries.
func ReorderScenes(blocks []Block, order []int) []Block {
	scenes := Scenes(blocks)
	used := make([]bool, len(scenes))
	reordered := make([]Scene, 0, len(scenes))
	for _, idx := range order {
		if idx < 0 || idx >= len(scenes) || used[idx] {
			continue
		}
		used[idx] = true
		reordered = append(reordered, scenes[idx])
	}
	for i, s := range scenes {
		if !used[i] {
			reordered = append(reordered, s)
		}
	}
	return Renumber(Flatten(reordered))
}

// Renumber recomputes the derived Number labels: scene headings get their
// 1-based scene ordinal, dialogue blocks their 1-based dialogue ordinal.
// All other blocks carry no number.
func Renumber(blocks []Block) []Block {
	sceneN, dialogueN := 0, 0
	for i := range blocks {
		switch blocks[i].Type {
		case SceneHeading:
			sceneN++
			blocks[i].Number = sceneN
		case Dialogue:
			dialogueN++
			blocks[i].Number = dialogueN
		default:
			blocks[i].Number = 0
		}
	}
	return blocks
}
