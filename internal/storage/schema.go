/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// manifestSchema is the embedded JSON Schema the manifest is validated
// against on open. It checks structure, not content: unknown extra fields
// are allowed so newer app versions can extend the manifest.
const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title", "blocks"],
  "properties": {
    "title": {"type": "string"},
    "author": {"type": "string"},
    "blocks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "content"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {
            "type": "string",
            "enum": ["scene-heading", "action", "character", "dialogue", "parenthetical", "transition", "shot"]
          },
          "content": {"type": "string"},
          "number": {"type": "integer", "minimum": 0}
        }
      }
    }
  }
}`

var manifestSchemaLoader = gojsonschema.NewStringLoader(manifestSchema)

// validateManifest checks raw manifest bytes against the embedded schema.
func validateManifest(b []byte) error {
	res, err := gojsonschema.Validate(manifestSchemaLoader, gojsonschema.NewBytesLoader(b))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("manifest schema violation: %s", strings.Join(msgs, "; "))
}
