/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"goscreenwriter/internal/domain"
)

func sampleScreenplay() *domain.Screenplay {
	return &domain.Screenplay{
		Title:  "Pilot",
		Author: "Jordan",
		Blocks: []domain.Block{
			{ID: "h1", Type: domain.SceneHeading, Content: "INT. KITCHEN - DAY", Number: 1},
			{ID: "a1", Type: domain.Action, Content: "Coffee drips into a chipped mug."},
			{ID: "c1", Type: domain.Character, Content: "ALEX"},
			{ID: "p1", Type: domain.Parenthetical, Content: "(yawning)"},
			{ID: "d1", Type: domain.Dialogue, Content: "Is it morning already?"},
			{ID: "t1", Type: domain.Transition, Content: "CUT TO:"},
			{ID: "h2", Type: domain.SceneHeading, Content: "EXT. YARD - DAY", Number: 2},
			{ID: "s1", Type: domain.Shot, Content: "CLOSE ON the broken gate."},
		},
	}
}

func TestWritePDFCreatesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "exports", "pilot.pdf")
	if err := WritePDF(sampleScreenplay(), out, PDFOptions{TitlePage: true, SceneNumbers: true}); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("output is not a PDF: %q", b[:min(16, len(b))])
	}
	if len(b) < 1000 {
		t.Fatalf("suspiciously small PDF: %d bytes", len(b))
	}
}

func TestWritePDFPaginatesLongScript(t *testing.T) {
	sp := &domain.Screenplay{Title: "Long"}
	for i := 0; i < 200; i++ {
		sp.Blocks = append(sp.Blocks, domain.Block{
			ID: fmt.Sprintf("a%d", i), Type: domain.Action,
			Content: "The action line goes on and on across the page, wrapping as it must.",
		})
	}
	out := filepath.Join(t.TempDir(), "long.pdf")
	if err := WritePDF(sp, out, PDFOptions{}); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	// every page carries a /Page object
	if n := bytes.Count(b, []byte("/Type /Page")); n < 5 {
		t.Fatalf("expected a multi-page document, found %d page markers", n)
	}
}

func TestWritePDFRejectsNil(t *testing.T) {
	if err := WritePDF(nil, filepath.Join(t.TempDir(), "x.pdf"), PDFOptions{}); err == nil {
		t.Fatalf("nil screenplay must be rejected")
	}
}
