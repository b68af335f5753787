/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"testing"

	"goscreenwriter/internal/format"
)

func TestIncrementHeadingUsageUpserts(t *testing.T) {
	db, _ := openTestIndex(t)
	ctx := context.Background()
	key := format.HeadingKey("INT. KITCHEN - DAY")

	for i := 0; i < 3; i++ {
		if err := IncrementHeadingUsage(ctx, db, key, "INT. KITCHEN - DAY"); err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
	}
	var uses int
	if err := db.QueryRow(`SELECT uses FROM heading_usage WHERE key=?`, key).Scan(&uses); err != nil {
		t.Fatalf("read uses: %v", err)
	}
	if uses != 3 {
		t.Fatalf("uses = %d, want 3", uses)
	}

	if err := IncrementHeadingUsage(ctx, db, "", "X"); err == nil {
		t.Fatalf("empty key must be rejected")
	}
}

func TestHeadingSuggestionsOrderByUsage(t *testing.T) {
	db, _ := openTestIndex(t)
	ctx := context.Background()
	seed := map[string]int{
		"INT. KITCHEN - DAY":   3,
		"INT. KITCHEN - NIGHT": 1,
		"EXT. YARD - DAY":      5,
	}
	for h, n := range seed {
		for i := 0; i < n; i++ {
			if err := IncrementHeadingUsage(ctx, db, format.HeadingKey(h), h); err != nil {
				t.Fatalf("seed %s: %v", h, err)
			}
		}
	}

	got, err := HeadingSuggestions(ctx, db, "INT. K", 10)
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("suggestions = %+v", got)
	}
	if got[0].Heading != "INT. KITCHEN - DAY" || got[0].Uses != 3 {
		t.Fatalf("most used first: %+v", got)
	}

	all, err := HeadingSuggestions(ctx, db, "", 2)
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if len(all) != 2 || all[0].Heading != "EXT. YARD - DAY" {
		t.Fatalf("limit/order wrong: %+v", all)
	}
}
