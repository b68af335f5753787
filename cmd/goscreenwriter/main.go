/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"goscreenwriter/internal/config"
	"goscreenwriter/internal/crash"
	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/export"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/telemetry"
	"goscreenwriter/internal/version"
)

func usage() {
	fmt.Println("Go Screenwriter")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  goscreenwriter version|-v|--version               Show version")
	fmt.Println("  goscreenwriter init <dir> <title> [author]        Create a new screenplay project at <dir>")
	fmt.Println("  goscreenwriter open <dir>                          Open project at <dir> and print a summary")
	fmt.Println("  goscreenwriter save <dir>                          Re-save project at <dir> (creates a backup)")
	fmt.Println("  goscreenwriter export pdf <dir> [out.pdf]          Export the screenplay as a paginated PDF")
	fmt.Println("  goscreenwriter export fountain <dir> [out.fountain] Export the screenplay as Fountain text")
}

func main() {
	cfg, _, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", cfgErr))
	}
	tcfg := telemetry.FromEnv()
	tcfg.OptIn = tcfg.OptIn || cfg.General.TelemetryOptIn
	telemetry.NewDefault(tcfg)
	var ph *storage.ProjectHandle
	defer func() { crash.Recover(ph) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		telemetry.Event("cli_command", map[string]any{"cmd": args[1]})
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Go Screenwriter")
			fmt.Println(version.String())
			return
		case "init":
			if len(args) < 4 {
				fmt.Println("init requires <dir> and <title>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			title := args[3]
			author := ""
			if len(args) > 4 {
				author = args[4]
			}
			l.Info("init project", slog.String("root", abs), slog.String("title", title))
			sp := domain.Screenplay{
				Title:  title,
				Author: author,
				Blocks: []domain.Block{{ID: domain.NewID("blk"), Type: domain.SceneHeading, Content: ""}},
			}
			h, err := storage.InitProject(abs, sp)
			if err != nil {
				l.Error("init failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			ph = h
			fmt.Println("Created project at", abs)
			return
		case "open":
			if len(args) < 3 {
				fmt.Println("open requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			l.Info("open project", slog.String("root", abs))
			h, err := storage.Open(abs)
			if err != nil {
				l.Error("open failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			ph = h
			fmt.Printf("Opened screenplay: %s\n", h.Screenplay.Title)
			fmt.Printf("Blocks: %d  Scenes: %d\n", len(h.Screenplay.Blocks), countScenes(&h.Screenplay))
			fmt.Println("Root:", h.Root)
			return
		case "save":
			if len(args) < 3 {
				fmt.Println("save requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			l.Info("save project", slog.String("root", abs))
			h, err := storage.Open(abs)
			if err != nil {
				l.Error("open before save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			ph = h
			if err := storage.Save(h); err != nil {
				l.Error("save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Saved screenplay and backed up the previous manifest (if any).")
			return
		case "export":
			if len(args) < 4 {
				fmt.Println("export requires a format (pdf|fountain) and <dir>")
				usage()
				os.Exit(2)
			}
			runExport(l, &ph, args[2], args[3:])
			return
		}
	}

	usage()
}

func runExport(l *slog.Logger, ph **storage.ProjectHandle, kind string, args []string) {
	abs, _ := filepath.Abs(args[0])
	h, err := storage.Open(abs)
	if err != nil {
		l.Error("open before export failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	*ph = h

	switch kind {
	case "pdf":
		out := filepath.Join(abs, "exports", "screenplay.pdf")
		if len(args) > 1 {
			out = args[1]
		}
		l.Info("export pdf", slog.String("out", out))
		if err := export.WritePDF(&h.Screenplay, out, export.PDFOptions{TitlePage: true, SceneNumbers: true}); err != nil {
			l.Error("pdf export failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", out)
	case "fountain":
		out := filepath.Join(abs, "exports", "screenplay.fountain")
		if len(args) > 1 {
			out = args[1]
		}
		l.Info("export fountain", slog.String("out", out))
		if err := export.WriteFountainFile(&h.Screenplay, out); err != nil {
			l.Error("fountain export failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", out)
	default:
		fmt.Println("unknown export format:", kind)
		usage()
		os.Exit(2)
	}
}

func countScenes(sp *domain.Screenplay) int {
	n := 0
	for _, b := range sp.Blocks {
		if b.Type == domain.SceneHeading {
			n++
		}
	}
	return n
}
