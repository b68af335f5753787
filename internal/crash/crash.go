/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report and a last-chance document
// snapshot instead of a silent process death.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/telemetry"
	"goscreenwriter/internal/version"
)

// exitFn is swapped out in tests.
var exitFn = os.Exit

// Recover is meant to be deferred at the top of main. On panic it snapshots
// the open project (if any), writes a crash report next to the backups, and
// exits with a non-zero status.
func Recover(ph *storage.ProjectHandle) {
	r := recover()
	if r == nil {
		return
	}
	logger := applog.WithComponent("crash")
	stack := debug.Stack()
	logger.Error("panic", slog.Any("value", r))

	if ph != nil {
		if path, err := storage.AutosaveCrashSnapshot(ph); err != nil {
			logger.Error("crash snapshot failed", slog.Any("err", err))
		} else {
			logger.Info("crash snapshot written", slog.String("path", path))
		}
	}

	report := buildReport(r, stack)
	if path, err := writeReport(ph, report); err != nil {
		logger.Error("crash report failed", slog.Any("err", err))
	} else {
		logger.Info("crash report written", slog.String("path", path))
	}
	telemetry.UploadCrash(report)

	exitFn(2)
}

func buildReport(r any, stack []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "Go Screenwriter Crash Report")
	fmt.Fprintf(&buf, "Time:    %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&buf, "Version: %s\n", version.String())
	fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&buf, "Panic:   %v\n\n", r)
	buf.Write(stack)
	return buf.Bytes()
}

// writeReport places the report in the project's backups directory, falling
// back to the working directory when no project is open.
func writeReport(ph *storage.ProjectHandle, report []byte) (string, error) {
	dir := "."
	if ph != nil && ph.Root != "" {
		dir = filepath.Join(ph.Root, storage.BackupsDirName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	name := fmt.Sprintf("crash-%s.log", time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, report, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
