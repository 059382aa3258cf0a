package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestIngestCmd_ArgsValidation(t *testing.T) {
	err := ingestCmd.Args(ingestCmd, []string{})
	if err == nil {
		t.Fatal("Expected error for missing args")
	}
	if code := ExitCodeForError(err); code != ExitUsageError {
		t.Errorf("Expected exit code %d (usage), got %d for: %v", ExitUsageError, code, err)
	}
}

func TestIngestCmd_ArgsValidation_TooMany(t *testing.T) {
	if err := ingestCmd.Args(ingestCmd, []string{"a.csv", "b.csv"}); err == nil {
		t.Fatal("Expected error for too many args")
	}
}

func TestNoArgCommands(t *testing.T) {
	for _, cmd := range []*struct {
		name string
		args func([]string) error
	}{
		{"serve", func(a []string) error { return serveCmd.Args(serveCmd, a) }},
		{"init-db", func(a []string) error { return initDBCmd.Args(initDBCmd, a) }},
		{"count", func(a []string) error { return countCmd.Args(countCmd, a) }},
		{"reset", func(a []string) error { return resetCmd.Args(resetCmd, a) }},
	} {
		if err := cmd.args([]string{"extra"}); err == nil {
			t.Errorf("%s: expected error for unexpected argument", cmd.name)
		}
	}
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	want := []string{"ingest", "serve", "init-db", "count", "reset", "version"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestResetCmd_RequiresConfirmation(t *testing.T) {
	resetFlags.yes = false

	err := resetCmd.RunE(resetCmd, nil)
	if !errors.Is(err, errResetNotConfirmed) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
}

func TestCountCmd_InvalidConfig(t *testing.T) {
	for _, envVar := range []string{"DATABASE_URL", "DB_URL", "DB_USER", "DB_NAME"} {
		t.Setenv(envVar, "")
	}

	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	rootCmd.SetOut(&bytes.Buffer{})
	defer rootCmd.SetErr(nil)
	defer rootCmd.SetOut(nil)

	rootCmd.SetArgs([]string{"count", "--env-file", filepath.Join(t.TempDir(), "missing.env")})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if code := ExitCodeForError(err); code != ExitConfigError {
		t.Errorf("exit code = %d, want %d (%v)", code, ExitConfigError, err)
	}
	if !strings.Contains(err.Error(), "DB_USER") {
		t.Errorf("error should name the missing setting: %v", err)
	}
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)

	if !strings.HasPrefix(out.String(), "uploader dev") {
		t.Errorf("unexpected version output: %q", out.String())
	}
}
