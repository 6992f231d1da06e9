package planfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleDoc() *Document {
	return &Document{
		Plan:    "launch",
		Summary: "ship v1",
		Items: []Item{
			{Title: "Phase 1", Description: "setup", Items: []Item{
				{Title: "Task A", Done: true},
				{Title: "Task B"},
			}},
			{Title: "Phase 2"},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, f := range []Format{FormatTOML, FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			t.Parallel()
			data, err := Encode(sampleDoc(), f)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if !strings.HasSuffix(string(data), "\n") {
				t.Error("encoded document should end with a newline")
			}
			got, err := Decode(data, f)
			if err != nil {
				t.Fatalf("Decode: %v\n%s", err, data)
			}
			if diff := cmp.Diff(sampleDoc(), got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeHandWritten(t *testing.T) {
	t.Parallel()

	tomlDoc := `
plan = "launch"

[[items]]
title = "Phase 1"

  [[items.items]]
  title = "Task A"
  done = true
`
	yamlDoc := `
plan: launch
items:
  - title: Phase 1
    items:
      - title: Task A
        done: true
`
	want := &Document{Plan: "launch", Items: []Item{
		{Title: "Phase 1", Items: []Item{{Title: "Task A", Done: true}}},
	}}
	for f, src := range map[Format]string{FormatTOML: tomlDoc, FormatYAML: yamlDoc} {
		got, err := Decode([]byte(src), f)
		if err != nil {
			t.Fatalf("Decode(%s): %v", f, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Decode(%s) mismatch (-want +got):\n%s", f, diff)
		}
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	cases := map[Format]string{
		FormatTOML: "plan = \"p\"\n[[items]]\ntitel = \"typo\"\n",
		FormatYAML: "plan: p\nitems:\n  - titel: typo\n",
	}
	for f, src := range cases {
		if _, err := Decode([]byte(src), f); !errors.Is(err, ErrInvalidDocument) {
			t.Errorf("Decode(%s) with an unknown key: got %v, want ErrInvalidDocument", f, err)
		}
	}
	if _, err := Decode([]byte("plan = 1"), Format("json")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Decode(json): got %v, want ErrUnknownFormat", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "plan.toml", want: FormatTOML},
		{path: "dir/plan.YAML", want: FormatYAML},
		{path: "plan.yml", want: FormatYAML},
		{path: "plan.json", wantErr: true},
		{path: "plan", wantErr: true},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownFormat) {
				t.Errorf("FormatFromPath(%q): got %v, want ErrUnknownFormat", tt.path, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("FormatFromPath(%q) = (%q, %v), want %q", tt.path, got, err, tt.want)
		}
	}
}

func TestWriteAndLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "launch.toml")

	if err := Write(path, sampleDoc(), false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(sampleDoc(), got); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}

	if err := Write(path, sampleDoc(), false); !errors.Is(err, ErrFileExists) {
		t.Errorf("Write over existing file: got %v, want ErrFileExists", err)
	}
	doc := sampleDoc()
	doc.Summary = "replaced"
	if err := Write(path, doc, true); err != nil {
		t.Fatalf("Write with overwrite: %v", err)
	}
	if got, _ := Load(path); got == nil || got.Summary != "replaced" {
		t.Errorf("overwrite did not replace the file: %+v", got)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load of a missing file should fail")
	}
}
