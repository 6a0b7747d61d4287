package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dncore/swi/pkg/types"
)

func TestZipHelperMakeAndExtractRoundTrip(t *testing.T) {
	srcRoot := t.TempDir()
	if err := os.MkdirAll(filepath.Join(srcRoot, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcRoot, "hello.txt"), []byte("hello world"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcRoot, "sub", "nested.txt"), []byte("nested"), 0644); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(t.TempDir(), "out.zip")
	h := &ZipHelper{}

	var progressCalls int
	err := h.MakeArchive(context.Background(), dst, srcRoot, nil, func(p types.ArchiveProgress) {
		progressCalls++
	})
	if err != nil {
		t.Fatalf("MakeArchive: %v", err)
	}
	if progressCalls == 0 {
		t.Error("expected progress callback to be invoked")
	}

	entries, err := h.ListArchive(context.Background(), dst)
	if err != nil {
		t.Fatalf("ListArchive: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one entry")
	}

	destDir := t.TempDir()
	if err := h.ExtractArchive(context.Background(), dst, destDir, nil); err != nil {
		t.Fatalf("ExtractArchive: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(destDir, "hello.txt"))
	if err != nil {
		t.Fatalf("read extracted hello.txt: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("hello.txt = %q, want %q", got, "hello world")
	}
	got2, err := os.ReadFile(filepath.Join(destDir, "sub", "nested.txt"))
	if err != nil {
		t.Fatalf("read extracted sub/nested.txt: %v", err)
	}
	if string(got2) != "nested" {
		t.Errorf("sub/nested.txt = %q, want %q", got2, "nested")
	}
}

func TestZipHelperIsArchiveAndSuffix(t *testing.T) {
	h := &ZipHelper{}
	if h.Suffix() != "zip" {
		t.Errorf("Suffix() = %q, want zip", h.Suffix())
	}
	if !h.IsArchive("backup.zip") || h.IsArchive("backup.7z") {
		t.Error("IsArchive suffix matching is wrong")
	}
}

func TestSafeJoinRejectsEscape(t *testing.T) {
	if _, err := safeJoin("/data/dest", "../../etc/passwd"); err == nil {
		t.Error("expected escape to be rejected")
	}
	if _, err := safeJoin("/data/dest", "ok/file.txt"); err != nil {
		t.Errorf("expected normal relative path to be accepted, got %v", err)
	}
}

func TestByPreferredSuffixesSkipsUnavailable(t *testing.T) {
	h, err := ByPreferredSuffixes([]string{"7z", "zip"})
	if err != nil {
		t.Fatalf("ByPreferredSuffixes: %v", err)
	}
	// 7z is unlikely to be installed in the test sandbox; zip always is.
	if h.Suffix() != "zip" && h.Suffix() != "7z" {
		t.Errorf("unexpected helper suffix %q", h.Suffix())
	}
}

func TestDetectBySuffix(t *testing.T) {
	h, err := DetectBySuffix("foo/bar.zip")
	if err != nil {
		t.Fatalf("DetectBySuffix: %v", err)
	}
	if h.Suffix() != "zip" {
		t.Errorf("Suffix() = %q, want zip", h.Suffix())
	}
	if _, err := DetectBySuffix("foo/bar.unknown"); err == nil {
		t.Error("expected error for unknown suffix")
	}
}

func TestParseSevenZipListing(t *testing.T) {
	sample := `7-Zip [64] 16.02

Listing archive: test.7z

--
Path = test.7z
Type = 7z

----------
Path = hello.txt
Size = 11
Packed Size = 10
Modified = 2026-01-02 03:04:05
Attributes = A

Path = sub
Folder = +
Size = 0
Attributes = D

`
	entries := parseSevenZipListing(sample)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	if entries[0].Filename != "hello.txt" || entries[0].IsDir {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[0].Size == nil || *entries[0].Size != 11 {
		t.Errorf("entries[0].Size = %v, want 11", entries[0].Size)
	}
	if entries[1].Filename != "sub" || !entries[1].IsDir {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}
