/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package comments

import (
	"sync"
	"time"
)

// HoverDelay is the debounce before a highlight tooltip appears.
const HoverDelay = 300 * time.Millisecond

// HoverDebouncer delays showing the tooltip for a hovered highlight range
// and hides it immediately on leave (no fade delay). StartTimer may be
// replaced in tests; the default uses time.AfterFunc.
type HoverDebouncer struct {
	Delay time.Duration // 0 means HoverDelay
	Show  func(commentIDs []string)
	Hide  func()
	// StartTimer schedules fire after d and returns a cancel func.
	StartTimer func(d time.Duration, fire func()) (cancel func())

	mu      sync.Mutex
	pending func()
}

func (h *HoverDebouncer) delay() time.Duration {
	if h.Delay > 0 {
		return h.Delay
	}
	return HoverDelay
}

func (h *HoverDebouncer) startTimer(d time.Duration, fire func()) func() {
	if h.StartTimer != nil {
		return h.StartTimer(d, fire)
	}
	t := time.AfterFunc(d, fire)
	return func() { t.Stop() }
}

// Enter (re)starts the debounce for the hovered range.
func (h *HoverDebouncer) Enter(commentIDs []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending != nil {
		h.pending()
		h.pending = nil
	}
	ids := append([]string(nil), commentIDs...)
	h.pending = h.startTimer(h.delay(), func() {
		h.mu.Lock()
		h.pending = nil
		h.mu.Unlock()
		if h.Show != nil {
			h.Show(ids)
		}
	})
}

// Leave cancels a pending show or hides an already visible tooltip.
func (h *HoverDebouncer) Leave() {
	h.mu.Lock()
	if h.pending != nil {
		h.pending()
		h.pending = nil
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()
	if h.Hide != nil {
		h.Hide()
	}
}
