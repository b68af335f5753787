/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package format holds the pure text-classification rules of the editor:
// scene-heading detection, heading normalization for the usage registry,
// transition cue detection, and parenthetical balancing. Everything here is
// deterministic and free of I/O so the edit state machine stays testable.
package format

import (
	"fmt"
	"hash/fnv"
	"strings"

	"goscreenwriter/internal/domain"
)

// headingPrefixes are matched case-insensitively at the start of a block.
// A trailing period or space after the token both count as a separator.
var headingPrefixes = []string{
	"INT./EXT.",
	"EXT./INT.",
	"INT./EXT",
	"EXT./INT",
	"I/E.",
	"INT.",
	"EXT.",
	"I/E ",
	"INT ",
	"EXT ",
}

// bareHeadingTokens are heading prefixes with no location following them.
// These are excluded from the scene-heading usage registry.
var bareHeadingTokens = map[string]bool{
	"INT": true, "INT.": true,
	"EXT": true, "EXT.": true,
	"INT./EXT": true, "INT./EXT.": true,
	"EXT./INT": true, "EXT./INT.": true,
	"I/E": true, "I/E.": true,
}

// transitionCues end a well-formed transition block.
var transitionCues = []string{
	"TO:",
	"FADE OUT.",
	"FADE TO BLACK.",
	"CUT TO BLACK.",
	"FADE IN:",
}

// Classify infers the most likely block type from raw text.
// It returns (type, true) when a pattern matches and (0, false) when the
// caller should keep the block's current type.
func Classify(text string) (domain.BlockType, bool) {
	up := strings.ToUpper(strings.TrimLeft(text, " \t"))
	for _, p := range headingPrefixes {
		if strings.HasPrefix(up, p) {
			return domain.SceneHeading, true
		}
	}
	// A bare token with nothing after it is still a heading in the making.
	if bareHeadingTokens[strings.TrimSpace(up)] {
		return domain.SceneHeading, true
	}
	return 0, false
}

// IsBareHeadingPrefix reports whether text is only a heading prefix token
// (e.g. "INT.") with no location after it.
func IsBareHeadingPrefix(text string) bool {
	return bareHeadingTokens[strings.ToUpper(strings.TrimSpace(text))]
}

// NormalizeHeading returns the canonical form of a scene heading: uppercased
// with runs of whitespace collapsed to single spaces.
func NormalizeHeading(text string) string {
	return strings.Join(strings.Fields(strings.ToUpper(text)), " ")
}

// HeadingKey returns a stable registry key for a scene heading, derived from
// its normalized form.
func HeadingKey(text string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(NormalizeHeading(text)))
	return fmt.Sprintf("%016x", h.Sum64())
}

// EndsWithTransitionCue reports whether text already ends with a recognized
// transition cue, so retyping into a transition must not append " TO:" again.
func EndsWithTransitionCue(text string) bool {
	up := strings.ToUpper(strings.TrimSpace(text))
	for _, cue := range transitionCues {
		if strings.HasSuffix(up, cue) {
			return true
		}
	}
	return false
}

// BalanceParens repairs a parenthetical fragment so the stored content is
// well-formed: a missing opening paren is prepended, a missing closing paren
// appended. Already balanced text is returned unchanged.
func BalanceParens(text string) string {
	opens := strings.Count(text, "(")
	closes := strings.Count(text, ")")
	for closes > opens {
		text = "(" + text
		opens++
	}
	for opens > closes {
		text += ")"
		closes++
	}
	return text
}

// WrapParenthetical wraps bare content in parens; text that already carries
// them is left alone. Empty content becomes "()".
func WrapParenthetical(text string) string {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")") && len(t) >= 2 {
		return t
	}
	return "(" + t + ")"
}

// StripParenthetical removes one level of wrapping parens when leaving the
// parenthetical type.
func StripParenthetical(text string) string {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")") && len(t) >= 2 {
		return t[1 : len(t)-1]
	}
	return t
}
