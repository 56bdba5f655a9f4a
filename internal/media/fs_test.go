package media

import (
	"os"
	"path/filepath"
	"testing"
)

func tempFS(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempFS(t)
	content := []byte{0xff, 0xd8, 0xff, 0xe0} // jpeg magic
	if err := s.Write("sess1/photo.jpg", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("sess1/photo.jpg")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %x", got)
	}
}

func TestDeleteReleasesExactlyOnce(t *testing.T) {
	s := tempFS(t)
	_ = s.Write("sess1/del.jpg", []byte("bytes"))
	if err := s.Delete("sess1/del.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("sess1/del.jpg"); err == nil {
		t.Error("expected error reading deleted file")
	}
	// A second release of the same handle must fail, not silently succeed.
	if err := s.Delete("sess1/del.jpg"); err == nil {
		t.Error("expected error on double delete")
	}
}

func TestList(t *testing.T) {
	s := tempFS(t)
	_ = s.Write("s1/a.jpg", []byte("a"))
	_ = s.Write("s1/b.png", []byte("b"))
	_ = s.Write("s2/c.webp", []byte("c"))

	all, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len = %d, want 3", len(all))
	}

	one, err := s.List("s1")
	if err != nil {
		t.Fatalf("List(s1): %v", err)
	}
	if len(one) != 2 {
		t.Errorf("len = %d, want 2", len(one))
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempFS(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.jpg",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoLeftoverTemp(t *testing.T) {
	s := tempFS(t)
	_ = s.Write("atomic.jpg", []byte("original"))
	if err := s.Write("atomic.jpg", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.jpg")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.root, ".abate-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFSCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "photos")
	if _, err := NewFS(root); err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Errorf("root not created: %v", err)
	}
}
