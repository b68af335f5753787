/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/format"
)

// WriteFountain renders the screenplay as Fountain plain text. Headings that
// would not classify on their own are forced with a leading ".", transitions
// without a trailing cue are forced with ">", and dialogue stays attached to
// its character cue.
func WriteFountain(sp *domain.Screenplay, w io.Writer) error {
	if sp == nil {
		return fmt.Errorf("screenplay is nil")
	}
	var sb strings.Builder
	if sp.Title != "" {
		sb.WriteString("Title: " + sp.Title + "\n")
		if sp.Author != "" {
			sb.WriteString("Author: " + sp.Author + "\n")
		}
		sb.WriteString("\n")
	}

	prevType := domain.BlockType(-1)
	for _, b := range sp.Blocks {
		line := renderFountainBlock(b)
		tight := (b.Type == domain.Dialogue || b.Type == domain.Parenthetical) &&
			(prevType == domain.Character || prevType == domain.Parenthetical)
		if prevType >= 0 && !tight {
			sb.WriteString("\n")
		}
		sb.WriteString(line + "\n")
		prevType = b.Type
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write fountain: %w", err)
	}
	return nil
}

// WriteFountainFile is WriteFountain to a path.
func WriteFountainFile(sp *domain.Screenplay, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create fountain file: %w", err)
	}
	if err := WriteFountain(sp, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func renderFountainBlock(b domain.Block) string {
	text := b.Content
	switch b.Type {
	case domain.SceneHeading:
		up := strings.ToUpper(text)
		if t, ok := format.Classify(up); !ok || t != domain.SceneHeading {
			return "." + up
		}
		return up
	case domain.Character:
		return strings.ToUpper(text)
	case domain.Parenthetical:
		return format.WrapParenthetical(text)
	case domain.Transition:
		up := strings.ToUpper(text)
		if format.EndsWithTransitionCue(up) {
			return up
		}
		return "> " + up
	case domain.Shot:
		// Fountain has no shot element; force an uppercase action line.
		return "!" + strings.ToUpper(text)
	default:
		return text
	}
}
