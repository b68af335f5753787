/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import "time"

// RetryBudget bounds the attempts made to place focus on a freshly created
// block before its editable surface exists in the host's render tree. The
// budget is a value threaded through the focus call, never ambient state.
type RetryBudget struct {
	Attempts int
	Initial  time.Duration
}

// DefaultRetryBudget tolerates the one-frame lag between data mutation and
// surface re-render: 3 attempts at ~10/20/40ms.
func DefaultRetryBudget() RetryBudget {
	return RetryBudget{Attempts: 3, Initial: 10 * time.Millisecond}
}

// SurfaceResolver reports whether the host surface for a block exists and,
// if so, accepts the focus placement.
type SurfaceResolver func(f Focus) bool

// ApplyFocus tries to hand focus to the host surface, backing off
// exponentially within the budget. It gives up silently: a missed focus is a
// skipped visual effect, never an error. sleep may be nil (time.Sleep).
func ApplyFocus(f Focus, resolve SurfaceResolver, budget RetryBudget, sleep func(time.Duration)) bool {
	if resolve == nil || f.BlockID == "" {
		return false
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	delay := budget.Initial
	for attempt := 0; attempt < budget.Attempts; attempt++ {
		if resolve(f) {
			return true
		}
		if attempt < budget.Attempts-1 {
			sleep(delay)
			delay *= 2
		}
	}
	return false
}
