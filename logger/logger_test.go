package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	apperrors "github.com/kbukum/greenscreen/errors"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]interface{}{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNewFromConfig(t *testing.T) {
	for _, cfg := range []Config{
		{ServiceName: "gs"},
		{ServiceName: "gs", Level: "invalid-level", Format: FormatJSON, Output: "stdout"},
		{ServiceName: "gs", Format: FormatConsole, NoColor: true, Caller: true},
	} {
		l := New(cfg)
		if l == nil || l.Service() != "gs" {
			t.Fatalf("New(%+v) = %v", cfg, l)
		}
	}
}

func TestConsoleLevelTags(t *testing.T) {
	var buf bytes.Buffer
	w := consoleWriter(Config{NoColor: true})
	w.Out = &buf
	l := &Logger{zl: zerolog.New(w).With().Str(FieldComponent, "filter").Logger()}

	l.Warn("probe failed", Fields(FieldProvider, "remote"))

	out := buf.String()
	for _, want := range []string{"WRN", "filter", "probe failed", "provider:remote"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output %q missing %q", out, want)
		}
	}
}

func TestNewWithWriterFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug", "gs").WithComponent("filter")

	l.Info("provider switched", Fields(FieldFrom, "n/a", FieldTo, "remote"))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	got := lines[0]
	if got["message"] != "provider switched" {
		t.Errorf("unexpected message %v", got["message"])
	}
	if got[FieldComponent] != "filter" || got[FieldService] != "gs" {
		t.Errorf("missing component/service fields: %v", got)
	}
	if got[FieldFrom] != "n/a" || got[FieldTo] != "remote" {
		t.Errorf("missing from/to fields: %v", got)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn", "gs")

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown")

	if n := len(decodeLines(t, &buf)); n != 2 {
		t.Errorf("expected 2 lines at warn level, got %d", n)
	}
}

func TestErrorValuesAreStrings(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug", "gs")

	l.Error("load failed", Fields(FieldError, errors.New("no device")))

	lines := decodeLines(t, &buf)
	if lines[0][FieldError] != "no device" {
		t.Errorf("expected error string, got %v", lines[0][FieldError])
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug", "gs").WithFields(Fields(FieldInstance, "cam"))

	l.Warn("x", MergeWithError(nil, errors.New("boom")))

	got := decodeLines(t, &buf)[0]
	if got[FieldInstance] != "cam" || got[FieldError] != "boom" {
		t.Errorf("unexpected fields: %v", got)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("nothing")
	l.Error("nothing", Fields("a", 1))
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	SetGlobalLogger(NewWithWriter(&buf, "debug", "global"))
	defer SetGlobalLogger(nil)

	Info("hello")
	WithComponent("x").Warn("there")

	if n := len(decodeLines(t, &buf)); n != 2 {
		t.Errorf("expected 2 lines, got %d", n)
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != FormatConsole || cfg.Output != "stderr" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: FormatJSON, Output: "stdout"}, false},
		{"bad level", Config{Level: "loud", Format: FormatJSON, Output: "stdout"}, true},
		{"bad format", Config{Level: "info", Format: "xml", Output: "stdout"}, true},
		{"bad output", Config{Level: "info", Format: FormatJSON, Output: "file"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperrors.HasCode(err, apperrors.ErrCodeInvalidConfig) {
				t.Errorf("code = %v", err)
			}
		})
	}
}

func TestRegisterAndGet(t *testing.T) {
	l := Nop()
	Register("custom", l)
	defer Register("custom", nil)

	if got := Get("custom"); got != l {
		t.Error("expected registered logger")
	}
	Register("custom", nil)
	if got := Get("custom"); got == l || got == nil {
		t.Error("expected fallback logger after unregistering")
	}
}

func TestFieldsHelpers(t *testing.T) {
	f := Fields("a", 1, "b")
	if len(f) != 1 || f["a"] != 1 {
		t.Errorf("unexpected fields %v", f)
	}
	f = Fields(42, "ignored", FieldWidth, 640)
	if len(f) != 1 || f[FieldWidth] != 640 {
		t.Errorf("non-string keys not skipped: %v", f)
	}
	m := MergeWithError(Fields(FieldTo, "remote"), errors.New("y"))
	if m[FieldError] != "y" || m[FieldTo] != "remote" {
		t.Errorf("unexpected merged fields %v", m)
	}
}
