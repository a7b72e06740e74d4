package process_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/process"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		cmd      process.Command
		stdout   string
		stderr   string
		exitCode int
		wantErr  bool
	}{
		{
			name:   "args",
			cmd:    process.Command{Binary: "echo", Args: []string{"alpha", "mask"}},
			stdout: "alpha mask",
		},
		{
			name:   "stdin",
			cmd:    process.Command{Binary: "cat", Stdin: strings.NewReader("frame")},
			stdout: "frame",
		},
		{
			name:   "env",
			cmd:    process.Command{Binary: "sh", Args: []string{"-c", "echo $GREENSCREEN_PROBE"}, Env: []string{"GREENSCREEN_PROBE=on"}},
			stdout: "on",
		},
		{
			name:   "dir",
			cmd:    process.Command{Binary: "pwd", Dir: "/"},
			stdout: "/",
		},
		{
			name:   "stderr",
			cmd:    process.Command{Binary: "sh", Args: []string{"-c", "echo no display >&2"}},
			stderr: "no display",
		},
		{
			name:     "exit code",
			cmd:      process.Command{Binary: "sh", Args: []string{"-c", "exit 42"}},
			exitCode: 42,
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := process.Run(context.Background(), tt.cmd)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.HasCode(err, errors.ErrCodeInternal) {
				t.Errorf("err = %v, want INTERNAL_ERROR", err)
			}
			if res.ExitCode != tt.exitCode {
				t.Errorf("exit code = %d, want %d", res.ExitCode, tt.exitCode)
			}
			if got := strings.TrimSpace(string(res.Stdout)); got != tt.stdout {
				t.Errorf("stdout = %q, want %q", got, tt.stdout)
			}
			if got := strings.TrimSpace(string(res.Stderr)); got != tt.stderr {
				t.Errorf("stderr = %q, want %q", got, tt.stderr)
			}
		})
	}
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := process.Run(ctx, process.Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		GracePeriod: 500 * time.Millisecond,
	})
	if err == nil || !strings.Contains(err.Error(), "killed") {
		t.Fatalf("err = %v, want killed", err)
	}
	if result.Duration < 50*time.Millisecond || result.Duration > 5*time.Second {
		t.Fatalf("duration = %v", result.Duration)
	}
}

func TestRunEmptyBinary(t *testing.T) {
	_, err := process.Run(context.Background(), process.Command{})
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestOpenerRunsLauncher(t *testing.T) {
	out := filepath.Join(t.TempDir(), "opened")
	o := &process.Opener{Command: func(url string) process.Command {
		return process.Command{Binary: "sh", Args: []string{"-c", `printf %s "$1" > "$2"`, "sh", url, out}}
	}}
	if err := o.Open("https://example.com/manual"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "https://example.com/manual" {
		t.Errorf("launcher got %q", got)
	}
}

func TestOpenerReportsLauncherFailure(t *testing.T) {
	o := &process.Opener{Command: func(string) process.Command {
		return process.Command{Binary: "sh", Args: []string{"-c", "echo no display >&2; exit 3"}}
	}}
	err := o.Open("https://example.com")
	if err == nil || !strings.Contains(err.Error(), "no display") {
		t.Errorf("err = %v", err)
	}
}

func TestBrowserCommand(t *testing.T) {
	cmd := process.BrowserCommand("https://example.com")
	if cmd.Binary == "" || cmd.Args[len(cmd.Args)-1] != "https://example.com" {
		t.Errorf("command = %+v", cmd)
	}
}
