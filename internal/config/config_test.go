/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"testing"
)

type fakeStore struct {
	vals map[string]string
}

func (f *fakeStore) Get(service, key string) (string, error) {
	v, ok := f.vals[service+"/"+key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}
func (f *fakeStore) Set(service, key, value string) error {
	f.vals[service+"/"+key] = value
	return nil
}
func (f *fakeStore) Delete(service, key string) error {
	delete(f.vals, service+"/"+key)
	return nil
}

func TestDefaultsAreSane(t *testing.T) {
	cfg := Defaults()
	if cfg.Editor.AutosaveIdleMs != 3000 {
		t.Fatalf("autosave idle default = %d, want 3000", cfg.Editor.AutosaveIdleMs)
	}
	if cfg.Editor.DoubleEnterMs != 500 {
		t.Fatalf("double enter default = %d, want 500", cfg.Editor.DoubleEnterMs)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestMergeIntoPrefersFileValues(t *testing.T) {
	dst := Defaults()
	src := AppConfig{
		Editor:  EditorConfig{AutosaveIdleMs: 5000},
		Backend: BackendConfig{PGDSN: "postgres://local/screenplays"},
		Logging: LoggingConfig{Level: "DEBUG"},
	}
	mergeInto(&dst, &src)
	if dst.Editor.AutosaveIdleMs != 5000 {
		t.Fatalf("autosave not merged: %d", dst.Editor.AutosaveIdleMs)
	}
	if dst.Editor.DoubleEnterMs != 500 {
		t.Fatalf("unset field should keep default, got %d", dst.Editor.DoubleEnterMs)
	}
	if dst.Backend.PGDSN != "postgres://local/screenplays" {
		t.Fatalf("pg dsn not merged: %q", dst.Backend.PGDSN)
	}
	if dst.Logging.Level != "debug" {
		t.Fatalf("level should be normalized, got %q", dst.Logging.Level)
	}
}

func TestEnvOverridesWin(t *testing.T) {
	t.Setenv(EnvAutosaveIdleMs, "1200")
	t.Setenv(EnvLogFormat, "JSON")
	cfg := Defaults()
	applyEnvOverrides(&cfg)
	if cfg.Editor.AutosaveIdleMs != 1200 {
		t.Fatalf("env override ignored: %d", cfg.Editor.AutosaveIdleMs)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("log format override ignored: %q", cfg.Logging.Format)
	}
}

func TestTokenRoundTripThroughStore(t *testing.T) {
	old := tokenStore
	defer SetTokenStore(old)
	fs := &fakeStore{vals: map[string]string{}}
	SetTokenStore(fs)

	if err := tokenStore.Set(keyringService, keyringToken, "secret"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := tokenStore.Get(keyringService, keyringToken)
	if err != nil || got != "secret" {
		t.Fatalf("get = %q, %v", got, err)
	}
	if err := tokenStore.Delete(keyringService, keyringToken); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := tokenStore.Get(keyringService, keyringToken); err == nil {
		t.Fatalf("expected missing token after delete")
	}
}
