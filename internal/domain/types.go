/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain defines the core data model for the screenplay editor:
// typed blocks, the flat block store inside a Screenplay, derived scenes,
// and the threaded comment records anchored to block text ranges.
package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// BlockType is the closed set of screenplay block kinds.
// It serializes as the kebab-case token (e.g., "scene-heading").
type BlockType int

const (
	SceneHeading BlockType = iota
	Action
	Character
	Dialogue
	Parenthetical
	Transition
	Shot
)

var blockTypeNames = [...]string{
	SceneHeading:  "scene-heading",
	Action:        "action",
	Character:     "character",
	Dialogue:      "dialogue",
	Parenthetical: "parenthetical",
	Transition:    "transition",
	Shot:          "shot",
}

func (t BlockType) String() string {
	if t < 0 || int(t) >= len(blockTypeNames) {
		return fmt.Sprintf("BlockType(%d)", int(t))
	}
	return blockTypeNames[t]
}

// Valid reports whether t is one of the seven known block types.
func (t BlockType) Valid() bool { return t >= SceneHeading && t <= Shot }

// ParseBlockType resolves a kebab-case token into a BlockType.
func ParseBlockType(s string) (BlockType, error) {
	for i, n := range blockTypeNames {
		if n == s {
			return BlockType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown block type %q", s)
}

// MarshalText implements encoding.TextMarshaler so the type serializes as its token.
func (t BlockType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid block type %d", int(t))
	}
	return []byte(blockTypeNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *BlockType) UnmarshalText(b []byte) error {
	v, err := ParseBlockType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Block is one typed unit of screenplay text.
// ID is stable once the block has been rendered; retyping a block into a
// scene heading mints a fresh id because heading ids double as scene ids.
// Number is a derived display ordinal (scene or dialogue count), never
// authoritative.
type Block struct {
	ID      string    `json:"id"`
	Type    BlockType `json:"type"`
	Content string    `json:"content"`
	Number  int       `json:"number,omitempty"`
}

// Screenplay is a flat ordered block store plus document metadata.
type Screenplay struct {
	Title  string  `json:"title"`
	Author string  `json:"author,omitempty"`
	Blocks []Block `json:"blocks"`
}

// Comment is a threaded annotation anchored to a character range of one block.
// StartOffset/EndOffset are plain-text offsets captured at creation time and
// are treated as advisory afterwards; see comments.ClampRange.
// Replies share the parent's block anchor. Comments are never deleted;
// resolution is a flag.
type Comment struct {
	ID              string     `json:"id"`
	BlockID         string     `json:"blockId"`
	AuthorID        string     `json:"authorId"`
	AuthorName      string     `json:"authorName,omitempty"`
	Text            string     `json:"text"`
	CreatedAt       time.Time  `json:"createdAt"`
	IsResolved      bool       `json:"isResolved"`
	StartOffset     int        `json:"startOffset"`
	EndOffset       int        `json:"endOffset"`
	HighlightedText string     `json:"highlightedText,omitempty"`
	ParentID        string     `json:"parentId,omitempty"`
	Replies         []Comment  `json:"replies,omitempty"`
	Reactions       []Reaction `json:"reactions,omitempty"`
}

// Reaction is a per-user emoji on a comment or reply.
// At most one (UserID, Emoji) pair may exist; adding a duplicate toggles removal.
type Reaction struct {
	Emoji     string    `json:"emoji"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewID returns a fresh block/comment identifier with the given prefix.
func NewID(prefix string) string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// fall back to a time-derived id; collisions are practically impossible here
		return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	}
	return prefix + "_" + hex.EncodeToString(b[:])
}

// CloneBlocks returns a deep copy of the block slice.
// Blocks contain only value fields, so a slice copy is sufficient today;
// the helper keeps callers honest about snapshot ownership.
func CloneBlocks(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	copy(out, blocks)
	return out
}

// FindBlock returns the index of the block with the given id, or -1.
func FindBlock(blocks []Block, id string) int {
	for i := range blocks {
		if blocks[i].ID == id {
			return i
		}
	}
	return -1
}
