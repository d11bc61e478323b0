package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_ExistsAndRead(t *testing.T) {
	fs := OSFileSystem{}

	if !fs.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}
	if fs.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}

	data, err := fs.ReadFile("filesystem.go")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty file content")
	}
}

func TestOSFileSystem_WriteAndList(t *testing.T) {
	fs := OSFileSystem{}
	dir := t.TempDir()

	if err := fs.MkdirAll(filepath.Join(dir, "exports", "timeseries"), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := fs.WriteFile(filepath.Join(dir, "exports", "timeseries", "gaze.csv"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	w, err := fs.Create(filepath.Join(dir, "exports", "world_timestamps.csv"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("y")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	w.Close()

	files, err := fs.ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}

	got, ok := FindFile(fs, dir, "gaze.csv")
	if !ok || filepath.Base(got) != "gaze.csv" {
		t.Errorf("FindFile(gaze.csv) = %q, %v", got, ok)
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	testData := []byte("hello, world")
	if err := mfs.WriteFile("/test.txt", testData, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := mfs.ReadFile("/test.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != string(testData) {
		t.Errorf("expected %q, got %q", testData, data)
	}

	// returned slice must not alias storage
	data[0] = 'H'
	again, _ := mfs.ReadFile("/test.txt")
	if again[0] != 'h' {
		t.Error("ReadFile result aliases stored data")
	}
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out/created.txt")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("abc")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if data, _ := mfs.ReadFile("/out/created.txt"); len(data) != 0 {
		t.Errorf("content visible before Close: %q", data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	data, _ := mfs.ReadFile("/out/created.txt")
	if string(data) != "abc" {
		t.Errorf("expected abc, got %q", data)
	}
}

func TestMemoryFileSystem_Open(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("/a.csv", []byte("frame\n1\n"), 0644)

	f, err := mfs.Open("/a.csv")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "frame\n1\n" {
		t.Errorf("unexpected content %q", data)
	}
	info, err := f.Stat()
	if err != nil || info.Size() != 8 || info.Name() != "a.csv" {
		t.Errorf("unexpected stat %v %v", info, err)
	}

	if _, err := mfs.Open("/missing.csv"); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestMemoryFileSystem_DirsAndList(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.MkdirAll("/data/export/sub", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, d := range []string{"/data", "/data/export", "/data/export/sub"} {
		if !mfs.Exists(d) {
			t.Errorf("expected %s to exist", d)
		}
	}

	files, err := mfs.ListFiles("/data")
	if err != nil {
		t.Fatalf("ListFiles on empty dir failed: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}

	_ = mfs.WriteFile("/data/export/sub/gaze.csv", nil, 0644)
	_ = mfs.WriteFile("/data/export/3d_eye_states.csv", nil, 0644)
	_ = mfs.WriteFile("/other/gaze.csv", nil, 0644)

	files, _ = mfs.ListFiles("/data")
	want := []string{"/data/export/3d_eye_states.csv", "/data/export/sub/gaze.csv"}
	if len(files) != len(want) || files[0] != want[0] || files[1] != want[1] {
		t.Errorf("ListFiles = %v, want %v", files, want)
	}

	if _, err := mfs.ListFiles("/nowhere"); err == nil {
		t.Error("expected error listing unknown root")
	}

	if got, ok := FindFile(mfs, "/data", "*eye_states.csv"); !ok || got != want[0] {
		t.Errorf("FindFile = %q, %v", got, ok)
	}
	if _, ok := FindFile(mfs, "/data", "*.mp4"); ok {
		t.Error("FindFile should not match")
	}
}
