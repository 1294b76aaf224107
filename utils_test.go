package bddconv

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

// tempDir creates a temporary directory and returns it along with a cleanup function.
func tempDir(t *testing.T) (string, func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "bddconv")
	if err != nil {
		t.Fatal(err)
	}
	return dir, func() { os.RemoveAll(dir) }
}

// writeTestFile writes content to name in dir and returns the path.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFilesByExtInDir(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	for _, name := range []string{"c.json", "a.json", "b.txt"} {
		writeTestFile(t, dir, name, "{}")
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := filesByExtInDir(dir, "")
	if err != nil {
		t.Fatalf("filesByExtInDir failed: %v", err)
	}
	want := []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "c.json")}
	if len(files) != len(want) {
		t.Fatalf("Expected %v, got %v", want, files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}

	files, err = filesByExtInDir(dir, ".json")
	if err != nil {
		t.Fatalf("filesByExtInDir failed: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("Expected 2 .json files, got %v", files)
	}
}

func TestFilesByExtInDirMissing(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	if _, err := filesByExtInDir(filepath.Join(dir, "missing"), ""); err == nil {
		t.Error("Expected an error for a missing directory")
	}

	file := writeTestFile(t, dir, "a.json", "{}")
	if _, err := filesByExtInDir(file, ""); err == nil {
		t.Error("Expected an error for a regular file")
	}
}

func TestSplitPath(t *testing.T) {
	cases := []struct {
		path, dir, baseNoExt, ext string
	}{
		{filepath.Join("labels", "b1c66a42-6f7d68ca.json"), "labels", "b1c66a42-6f7d68ca", "json"},
		{filepath.Join("labels", "a.b.json"), "labels", "a.b", "json"},
		{"noext", "", "noext", ""},
	}
	for _, c := range cases {
		dir, baseNoExt, ext := splitPath(c.path)
		if dir != c.dir || baseNoExt != c.baseNoExt || ext != c.ext {
			t.Errorf("splitPath(%q) = (%q, %q, %q), want (%q, %q, %q)", c.path, dir, baseNoExt, ext,
				c.dir, c.baseNoExt, c.ext)
		}
	}
}
