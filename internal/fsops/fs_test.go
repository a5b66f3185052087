package fsops

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		wantError bool
	}{
		{
			name:      "default workspace",
			id:        "demo-workspace",
			wantError: false,
		},
		{
			name:      "valid with underscores",
			id:        "notes_2024",
			wantError: false,
		},
		{
			name:      "valid with spaces inside",
			id:        "team notes",
			wantError: false,
		},
		{
			name:      "empty identifier",
			id:        "",
			wantError: true,
		},
		{
			name:      "whitespace only",
			id:        "   ",
			wantError: true,
		},
		{
			name:      "current directory",
			id:        ".",
			wantError: true,
		},
		{
			name:      "parent directory",
			id:        "..",
			wantError: true,
		},
		{
			name:      "path with separator",
			id:        "work/space",
			wantError: true,
		},
		{
			name:      "path with backslash",
			id:        "work\\space",
			wantError: true,
		},
		{
			name:      "control character",
			id:        "work\nspace",
			wantError: true,
		},
		{
			name:      "invalid utf-8",
			id:        "a\xffb",
			wantError: true,
		},
		{
			name:      "too long",
			id:        strings.Repeat("w", MaxIdentifierLen+1),
			wantError: true,
		},
	}

	fs := &RealFS{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fs.ValidateIdentifier(tt.id)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantError %v", tt.id, err, tt.wantError)
			}
		})
	}
}

func TestRealFS_Exists(t *testing.T) {
	fs := &RealFS{}
	tmpDir := t.TempDir()

	t.Run("existing file", func(t *testing.T) {
		testFile := filepath.Join(tmpDir, "exists.txt")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		exists, err := fs.Exists(testFile)
		if err != nil {
			t.Errorf("Exists returned error: %v", err)
		}
		if !exists {
			t.Error("Exists should return true for existing file")
		}
	})

	t.Run("non-existing file", func(t *testing.T) {
		exists, err := fs.Exists(filepath.Join(tmpDir, "does-not-exist.txt"))
		if err != nil {
			t.Errorf("Exists returned error: %v", err)
		}
		if exists {
			t.Error("Exists should return false for non-existing file")
		}
	})
}

func TestRealFS_AtomicWrite(t *testing.T) {
	fs := &RealFS{}
	tmpDir := t.TempDir()

	t.Run("write creates parent directories", func(t *testing.T) {
		testFile := filepath.Join(tmpDir, "state", "workspaces.json")
		content := []byte(`["demo-workspace"]`)

		if err := fs.AtomicWrite(testFile, content, 0644); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}

		readContent, err := fs.ReadFile(testFile)
		if err != nil {
			t.Fatalf("failed to read written file: %v", err)
		}
		if string(readContent) != string(content) {
			t.Errorf("File content mismatch: got %q, want %q", readContent, content)
		}
	})

	t.Run("overwrite leaves no temp files", func(t *testing.T) {
		testFile := filepath.Join(tmpDir, "overwrite.json")
		if err := fs.AtomicWrite(testFile, []byte("initial"), 0644); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}
		if err := fs.AtomicWrite(testFile, []byte("overwritten"), 0644); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}

		readContent, err := os.ReadFile(testFile)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if string(readContent) != "overwritten" {
			t.Errorf("File content not updated: got %q", readContent)
		}

		entries, err := os.ReadDir(tmpDir)
		if err != nil {
			t.Fatalf("failed to read dir: %v", err)
		}
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), ".blockpad-tmp-") {
				t.Errorf("temp file left behind: %s", entry.Name())
			}
		}
	})
}

func TestRealFS_Remove(t *testing.T) {
	fs := &RealFS{}
	testFile := filepath.Join(t.TempDir(), "remove-me.txt")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	if err := fs.Remove(testFile); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(testFile); !os.IsNotExist(err) {
		t.Error("File should have been removed")
	}
}

func TestMemFS(t *testing.T) {
	fs := NewMemFS()

	if _, err := fs.ReadFile("/state/workspaces.json"); !os.IsNotExist(err) {
		t.Fatalf("ReadFile on missing file: got %v, want not-exist", err)
	}

	if err := fs.AtomicWrite("/state/workspaces.json", []byte("[]"), 0644); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}
	if ok, _ := fs.Exists("/state"); !ok {
		t.Error("parent directory should exist after write")
	}

	fs.SetFailWrites(true)
	err := fs.AtomicWrite("/state/workspaces.json", []byte(`["x"]`), 0644)
	if !errors.Is(err, ErrInjected) {
		t.Fatalf("AtomicWrite with injected failure: got %v", err)
	}

	data, err := fs.ReadFile("/state/workspaces.json")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("failed write must keep prior content, got %q", data)
	}
}
