package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "stockscan dev") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"serve", "scan", "forecast", "version"} {
		if cmd, _, err := rootCmd.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("command %s not registered", name)
		}
	}
}

func TestDebugFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("debug")
	if flag == nil || flag.Shorthand != "d" {
		t.Fatal("expected persistent --debug/-d flag")
	}
	if err := rootCmd.PersistentFlags().Set("debug", "true"); err != nil {
		t.Fatalf("setting debug: %v", err)
	}
	defer rootCmd.PersistentFlags().Set("debug", "false")
	if !debugMode {
		t.Error("expected --debug to enable debug mode")
	}
}

func TestBuildStamp(t *testing.T) {
	commit, built := buildStamp()
	if commit == "" || built == "" {
		t.Errorf("expected non-empty stamp, got %q %q", commit, built)
	}
}
