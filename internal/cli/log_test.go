package cli

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func TestNewLoggerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, LogInfo).Info("resolving roots")

	stamp := regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `)
	if !stamp.MatchString(buf.String()) {
		t.Errorf("log line %q should start with an HH:MM:SS.cc timestamp", buf.String())
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		verbose   bool
		wantDebug bool
	}{
		{verbose: false, wantDebug: false},
		{verbose: true, wantDebug: true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := newLogger(&buf, levelFor(tt.verbose))
		logger.Debug("resolved", "root", "g:a:1", "artifacts", 4)

		if got := buf.Len() > 0; got != tt.wantDebug {
			t.Errorf("verbose=%v: debug output = %v, want %v", tt.verbose, got, tt.wantDebug)
		}
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, LogInfo))
	time.Sleep(5 * time.Millisecond)

	prog.done("Audited 3 packages from 1 roots")

	suffix := regexp.MustCompile(`Audited 3 packages from 1 roots \([0-9.]+m?s\)`)
	if !suffix.MatchString(buf.String()) {
		t.Errorf("done output %q should end with the elapsed time", buf.String())
	}
}

func TestProgressDoneQuietAtWarnLevel(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.WarnLevel)).done("Audited 0 packages from 0 roots")

	if buf.Len() != 0 {
		t.Errorf("done should log at info level, got %q at warn", buf.String())
	}
}

func TestLoggerFromContextFallback(t *testing.T) {
	if got := loggerFromContext(context.Background()); got != log.Default() {
		t.Error("a bare context should yield log.Default()")
	}
}

func TestLoggerFromContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogInfo)

	ctx := withLogger(context.Background(), logger)
	if got := loggerFromContext(ctx); got != logger {
		t.Fatal("loggerFromContext should return the attached logger")
	}

	// A nested context still carries the logger.
	child, cancel := context.WithCancel(ctx)
	defer cancel()
	if got := loggerFromContext(child); got != logger {
		t.Error("derived contexts should inherit the logger")
	}
}

func TestRootAttachesLogger(t *testing.T) {
	isolate(t)

	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.SetLogLevel(levelFor(true))
	root := c.RootCommand()
	root.AddCommand(&cobra.Command{
		Use: "noop",
		RunE: func(cmd *cobra.Command, args []string) error {
			loggerFromContext(cmd.Context()).Debug("pipeline ready", "cache", "memory")
			return nil
		},
	})
	root.SetArgs([]string{"noop"})

	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute error = %v", err)
	}
	if !strings.Contains(buf.String(), "pipeline ready") {
		t.Errorf("commands should log through the CLI logger, got %q", buf.String())
	}
}
