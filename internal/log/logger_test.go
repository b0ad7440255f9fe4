// Copyright 2025 The Formic Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got %q", cfg.Level)
	}
	if cfg.Format != FormatJSON {
		t.Errorf("expected default format 'json', got %q", cfg.Format)
	}
	if cfg.Output != os.Stderr {
		t.Errorf("expected default output to be os.Stderr")
	}
	if cfg.AddSource {
		t.Errorf("expected default AddSource to be false")
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		level   string
		format  Format
		source  bool
	}{
		{
			name:    "defaults when no env vars",
			envVars: map[string]string{},
			level:   "info",
			format:  FormatJSON,
		},
		{
			name:    "LOG_LEVEL=debug",
			envVars: map[string]string{"LOG_LEVEL": "debug"},
			level:   "debug",
			format:  FormatJSON,
		},
		{
			name:    "FORMIC_LOG_LEVEL takes precedence over LOG_LEVEL",
			envVars: map[string]string{"FORMIC_LOG_LEVEL": "trace", "LOG_LEVEL": "warn"},
			level:   "trace",
			format:  FormatJSON,
		},
		{
			name:    "FORMIC_DEBUG enables debug and source",
			envVars: map[string]string{"FORMIC_DEBUG": "1", "FORMIC_LOG_LEVEL": "error"},
			level:   "debug",
			format:  FormatJSON,
			source:  true,
		},
		{
			name:    "LOG_FORMAT=text",
			envVars: map[string]string{"LOG_FORMAT": "TEXT"},
			level:   "info",
			format:  FormatText,
		},
		{
			name:    "LOG_SOURCE=1",
			envVars: map[string]string{"LOG_SOURCE": "1"},
			level:   "info",
			format:  FormatJSON,
			source:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"FORMIC_DEBUG", "FORMIC_LOG_LEVEL", "LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE"} {
				t.Setenv(key, tt.envVars[key])
			}

			cfg := FromEnv()
			if cfg.Level != tt.level {
				t.Errorf("expected level %q, got %q", tt.level, cfg.Level)
			}
			if cfg.Format != tt.format {
				t.Errorf("expected format %q, got %q", tt.format, cfg.Format)
			}
			if cfg.AddSource != tt.source {
				t.Errorf("expected AddSource %v, got %v", tt.source, cfg.AddSource)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	logger.Info("state computed", ArtifactKey, "registration", IssueCountKey, 0)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "state computed" {
		t.Errorf("expected msg 'state computed', got %v", record["msg"])
	}
	if record[ArtifactKey] != "registration" {
		t.Errorf("expected %s 'registration', got %v", ArtifactKey, record[ArtifactKey])
	}
}

func TestNew_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatText, Output: &buf})

	logger.Info("state computed")

	if !strings.Contains(buf.String(), "state computed") {
		t.Errorf("expected text output to contain message, got %q", buf.String())
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "warn", Format: FormatJSON, Output: &buf})

	logger.Debug("dropped")
	logger.Info("dropped too")
	if buf.Len() != 0 {
		t.Errorf("expected below-level records to be dropped, got %q", buf.String())
	}

	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected warn record, got %q", buf.String())
	}
}

func TestNew_TraceLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "trace", Format: FormatJSON, Output: &buf})

	logger.Log(t.Context(), LevelTrace, "cache probe", SnapshotKey, "abc")
	if !strings.Contains(buf.String(), "cache probe") {
		t.Errorf("expected trace record, got %q", buf.String())
	}
}

func TestNew_NilConfig(t *testing.T) {
	if New(nil) == nil {
		t.Fatal("expected a usable logger from nil config")
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	// Must not panic and must accept records at any level.
	logger.Error("swallowed")
	logger.Log(t.Context(), LevelTrace, "swallowed")
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	WithComponent(WithSnapshot(WithArtifact(logger, "registration"), "snap-1"), "engine").
		Info("evaluated")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unexpected output %q: %v", buf.String(), err)
	}
	if record[ArtifactKey] != "registration" {
		t.Errorf("expected artifact field, got %v", record)
	}
	if record[SnapshotKey] != "snap-1" {
		t.Errorf("expected snapshot field, got %v", record)
	}
	if record["component"] != "engine" {
		t.Errorf("expected component field, got %v", record)
	}
}
