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
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// HeadingUsage is one registry row behind the scene-heading suggestions.
type HeadingUsage struct {
	Key     string
	Heading string
	Uses    int
}

// IncrementHeadingUsage bumps the usage count for a normalized heading as a
// single atomic UPSERT. There is no read-then-write window: concurrent
// increments for the same key serialize inside SQLite.
func IncrementHeadingUsage(ctx context.Context, db *sql.DB, key, heading string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("heading key is required")
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO heading_usage (key, heading, uses) VALUES (?, ?, 1)
		ON CONFLICT(key) DO UPDATE SET uses = uses + 1, heading = excluded.heading`,
		key, heading)
	if err != nil {
		return fmt.Errorf("increment heading usage: %w", err)
	}
	return nil
}

// HeadingSuggestions returns up to limit headings matching the prefix,
// most used first, ties broken alphabetically for stable suggestion order.
func HeadingSuggestions(ctx context.Context, db *sql.DB, prefix string, limit int) ([]HeadingUsage, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := strings.ToUpper(strings.TrimSpace(prefix)) + "%"
	rows, err := db.QueryContext(ctx, `
		SELECT key, heading, uses FROM heading_usage
		WHERE heading LIKE ?
		ORDER BY uses DESC, heading ASC
		LIMIT ?`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("query heading usage: %w", err)
	}
	defer rows.Close()
	var out []HeadingUsage
	for rows.Next() {
		var h HeadingUsage
		if err := rows.Scan(&h.Key, &h.Heading, &h.Uses); err != nil {
			return nil, fmt.Errorf("scan heading usage: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
