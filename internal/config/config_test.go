package config

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestParseOptionsDefaults(t *testing.T) {
	opts, err := ParseOptions([]string{"--debug", "--modpack-url", " https://packs.example.com/modpack.json "})
	if err != nil {
		t.Fatalf("ParseOptions() error = %v", err)
	}
	if !opts.Debug {
		t.Fatalf("expected debug to be set")
	}
	if opts.ModpackURL != "https://packs.example.com/modpack.json" {
		t.Fatalf("ModpackURL = %q", opts.ModpackURL)
	}
	if opts.UpdateRepo != DefaultUpdateRepo {
		t.Fatalf("UpdateRepo = %q", opts.UpdateRepo)
	}
	if opts.LogBufferSize != DefaultLogBufferSize {
		t.Fatalf("LogBufferSize = %d", opts.LogBufferSize)
	}
}

func TestParseOptionsExplicitUnboundedLog(t *testing.T) {
	opts, err := ParseOptions([]string{"--log-buffer", "0"})
	if err != nil {
		t.Fatalf("ParseOptions() error = %v", err)
	}
	if opts.LogBufferSize != 0 {
		t.Fatalf("LogBufferSize = %d, want 0", opts.LogBufferSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "defaults", opts: Options{UpdateRepo: DefaultUpdateRepo}},
		{name: "remote backend", opts: Options{UpdateRepo: DefaultUpdateRepo, BackendURL: "http://127.0.0.1:8765"}},
		{name: "serve and remote", opts: Options{UpdateRepo: DefaultUpdateRepo, BackendURL: "http://127.0.0.1:8765", ServeBackend: ":8765"}, wantErr: true},
		{name: "bad backend scheme", opts: Options{UpdateRepo: DefaultUpdateRepo, BackendURL: "ftp://example.com"}, wantErr: true},
		{name: "relative modpack url", opts: Options{UpdateRepo: DefaultUpdateRepo, ModpackURL: "modpack.json"}, wantErr: true},
		{name: "bad repo", opts: Options{UpdateRepo: "no-slash"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	got, err := NormalizeBaseURL("https://example.com/launcher/?x=1#frag")
	if err != nil {
		t.Fatalf("NormalizeBaseURL() error = %v", err)
	}
	if got != "https://example.com/launcher" {
		t.Fatalf("NormalizeBaseURL() = %q", got)
	}
}

func TestResolveGameExecutable(t *testing.T) {
	root := t.TempDir()
	if got := ResolveGameExecutable(root, ""); got != filepath.Join(root, DefaultGameExecutable()) {
		t.Fatalf("default executable = %q", got)
	}
	abs := filepath.Join(root, "custom", "game")
	if runtime.GOOS == "windows" {
		abs += ".exe"
	}
	if got := ResolveGameExecutable("/elsewhere", abs); got != abs {
		t.Fatalf("absolute executable = %q", got)
	}
}
