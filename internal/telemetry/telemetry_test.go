/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestEventRequiresOptInAndURL(t *testing.T) {
	hits := make(chan struct{}, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- struct{}{}
	}))
	defer srv.Close()

	c := New(Config{OptIn: false, EventsURL: srv.URL, Timeout: time.Second})
	defer c.Close()
	c.Event("session_opened", nil)
	c.Flush(context.Background())

	c2 := New(Config{OptIn: true, Timeout: time.Second})
	defer c2.Close()
	c2.Event("session_opened", nil)
	c2.Flush(context.Background())

	select {
	case <-hits:
		t.Fatalf("event sent without opt-in and endpoint")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventPayload(t *testing.T) {
	got := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var m map[string]any
		_ = json.NewDecoder(r.Body).Decode(&m)
		got <- m
	}))
	defer srv.Close()

	c := New(Config{OptIn: true, EventsURL: srv.URL, Timeout: time.Second})
	defer c.Close()
	c.Event("export_pdf", map[string]any{"pages": 12})

	select {
	case m := <-got:
		if m["name"] != "export_pdf" {
			t.Fatalf("wrong event name: %v", m["name"])
		}
		for _, k := range []string{"ts", "version", "os", "arch"} {
			if _, ok := m[k]; !ok {
				t.Fatalf("payload missing %q: %v", k, m)
			}
		}
		if m["pages"] != float64(12) {
			t.Fatalf("prop not carried: %v", m["pages"])
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("event never arrived")
	}
}

func TestUploadCrash(t *testing.T) {
	got := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got <- b
	}))
	defer srv.Close()

	c := New(Config{OptIn: true, CrashURL: srv.URL, Timeout: time.Second})
	defer c.Close()
	c.UploadCrash([]byte("Go Screenwriter Crash Report\nPanic: boom"))

	select {
	case b := <-got:
		if string(b) != "Go Screenwriter Crash Report\nPanic: boom" {
			t.Fatalf("unexpected body: %q", b)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("crash report never arrived")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("GSW_TELEMETRY_OPT_IN", "")
	t.Setenv("GSW_TELEMETRY_URL", "")
	t.Setenv("GSW_TELEMETRY_TIMEOUT_MS", "")
	cfg := FromEnv()
	if cfg.OptIn {
		t.Fatalf("telemetry must be opt-in")
	}
	if cfg.Timeout != 1500*time.Millisecond {
		t.Fatalf("wrong default timeout: %v", cfg.Timeout)
	}

	t.Setenv("GSW_TELEMETRY_OPT_IN", "yes")
	t.Setenv("GSW_TELEMETRY_TIMEOUT_MS", "250")
	cfg = FromEnv()
	if !cfg.OptIn || cfg.Timeout != 250*time.Millisecond {
		t.Fatalf("env not applied: %+v", cfg)
	}
}
