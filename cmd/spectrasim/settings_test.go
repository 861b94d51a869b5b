package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
)

func TestNewLogger_Filters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "info")
	if err != nil {
		t.Fatal(err)
	}
	level.Debug(logger).Log("msg", "hidden")
	level.Info(logger).Log("msg", "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug line passed an info filter")
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "level=info") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestNewLogger_Unknown(t *testing.T) {
	if _, err := newLogger(&bytes.Buffer{}, "loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("SPECTRASIM_SOLVER", "rodas3")
	t.Setenv("SPECTRASIM_DATA_DIR", "/from/env")

	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().String("data-dir", ".spectrasim", "")
	cmd.Flags().String("log-level", "warn", "")
	cmd.Flags().String("solver", "", "")
	if err := cmd.Flags().Set("data-dir", "/from/flag"); err != nil {
		t.Fatal(err)
	}

	s, err := loadSettings(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if s.DataDir != "/from/flag" {
		t.Errorf("DataDir = %q, flag should win", s.DataDir)
	}
	if s.Solver != "rodas3" {
		t.Errorf("Solver = %q, env should apply", s.Solver)
	}
	if s.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", s.LogLevel)
	}
}
