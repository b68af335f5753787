/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a screenplay to interchange formats: paginated PDF
// in industry-standard layout, and plain-text Fountain.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"goscreenwriter/internal/domain"
)

// PDFOptions controls PDF export behavior. Units are points.
//
// The layout follows standard screenplay formatting on US Letter: Courier 12,
// 1.5" left margin, 1" elsewhere, per-type indents measured from the page
// edge. One vertical point unit is a single-spaced Courier line (12 pt).
type PDFOptions struct {
	TitlePage    bool
	SceneNumbers bool
}

const (
	pageW = 612.0 // US Letter, pt
	pageH = 792.0

	marginLeft   = 108.0 // 1.5"
	marginRight  = 72.0
	marginTop    = 72.0
	marginBottom = 72.0

	lineH    = 12.0
	fontSize = 12.0
)

// elementLayout is the horizontal band one block type occupies.
type elementLayout struct {
	left  float64 // from the page's left edge
	right float64 // from the page's right edge
	upper bool
	// blankBefore suppressed when the previous block was a character cue
	// or parenthetical (dialogue clusters stay tight).
	tight bool
}

var pdfLayouts = map[domain.BlockType]elementLayout{
	domain.SceneHeading:  {left: marginLeft, right: marginRight, upper: true},
	domain.Action:        {left: marginLeft, right: marginRight},
	domain.Character:     {left: 266, right: marginRight, upper: true},
	domain.Dialogue:      {left: 180, right: 180, tight: true},
	domain.Parenthetical: {left: 223, right: 223, tight: true},
	domain.Transition:    {left: marginLeft, right: marginRight, upper: true},
	domain.Shot:          {left: marginLeft, right: marginRight, upper: true},
}

// WritePDF renders the screenplay to a single PDF file at outPath.
func WritePDF(sp *domain.Screenplay, outPath string, opt PDFOptions) error {
	if sp == nil {
		return fmt.Errorf("screenplay is nil")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pageW, Ht: pageH},
		OrientationStr: "P",
	})
	pdf.SetTitle(sp.Title, true)
	if sp.Author != "" {
		pdf.SetAuthor(sp.Author, true)
	}
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Courier", "", fontSize)

	if opt.TitlePage {
		writeTitlePage(pdf, sp)
	}

	pageNo := 0
	y := pageH // force a page break before the first block
	newPage := func() {
		pdf.AddPage()
		pageNo++
		// page number top right, skipped on page 1 per convention
		if pageNo > 1 {
			pdf.SetXY(pageW-marginRight-40, marginTop-24)
			pdf.CellFormat(40, lineH, fmt.Sprintf("%d.", pageNo), "", 0, "R", false, 0, "")
		}
		y = marginTop
	}

	prevType := domain.BlockType(-1)
	for _, b := range sp.Blocks {
		lay, ok := pdfLayouts[b.Type]
		if !ok {
			lay = pdfLayouts[domain.Action]
		}
		text := b.Content
		if lay.upper {
			text = strings.ToUpper(text)
		}
		if b.Type == domain.SceneHeading && opt.SceneNumbers && b.Number > 0 {
			text = fmt.Sprintf("%d  %s", b.Number, text)
		}
		width := pageW - lay.left - lay.right
		lines := pdf.SplitText(text, width)
		if len(lines) == 0 {
			lines = []string{""}
		}

		spacing := lineH // blank line between elements
		if lay.tight && (prevType == domain.Character || prevType == domain.Parenthetical) {
			spacing = 0
		}
		needed := float64(len(lines))*lineH + spacing
		if y+needed > pageH-marginBottom {
			newPage()
			spacing = 0
		}
		y += spacing

		// A scene heading never sits alone at the bottom of a page.
		if b.Type == domain.SceneHeading && y+2*lineH > pageH-marginBottom {
			newPage()
		}

		for _, line := range lines {
			if y+lineH > pageH-marginBottom {
				newPage()
			}
			align := "L"
			x := lay.left
			if b.Type == domain.Transition {
				align = "R"
			}
			pdf.SetXY(x, y)
			pdf.CellFormat(width, lineH, line, "", 0, align, false, 0, "")
			y += lineH
		}
		prevType = b.Type
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeTitlePage(pdf *gofpdf.Fpdf, sp *domain.Screenplay) {
	pdf.AddPage()
	pdf.SetXY(marginLeft, pageH/3)
	width := pageW - marginLeft - marginRight
	pdf.CellFormat(width, lineH, strings.ToUpper(sp.Title), "", 2, "C", false, 0, "")
	if sp.Author != "" {
		pdf.CellFormat(width, lineH, "", "", 2, "C", false, 0, "")
		pdf.CellFormat(width, lineH, "written by", "", 2, "C", false, 0, "")
		pdf.CellFormat(width, lineH, "", "", 2, "C", false, 0, "")
		pdf.CellFormat(width, lineH, sp.Author, "", 2, "C", false, 0, "")
	}
}
