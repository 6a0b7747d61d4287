package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/dncore/swi/pkg/types"
)

// ZipHelper implements Helper using stdlib archive/zip for the container
// format, with klauspost/compress's faster pure-Go DEFLATE registered as
// the compressor — archive/zip's own flate is considerably slower on
// large server worlds.
type ZipHelper struct{}

func (z *ZipHelper) Suffix() string  { return "zip" }
func (z *ZipHelper) Available() bool { return true }

func (z *ZipHelper) IsArchive(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}

func registerFastDeflate(w *zip.Writer) {
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})
}

func (z *ZipHelper) MakeArchive(ctx context.Context, dst, srcRoot string, entries []string, progress ProgressFunc) error {
	if entries == nil {
		var err error
		entries, err = walkRelative(srcRoot)
		if err != nil {
			return err
		}
	} else {
		expanded, err := expandEntries(srcRoot, entries)
		if err != nil {
			return err
		}
		entries = expanded
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	registerFastDeflate(zw)
	defer zw.Close()

	total := len(entries)
	for i, rel := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		full := filepath.Join(srcRoot, rel)
		info, err := os.Lstat(full)
		if err != nil {
			return fmt.Errorf("stat %s: %w", full, err)
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return fmt.Errorf("header for %s: %w", rel, err)
		}
		header.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			header.Name += "/"
			header.Method = zip.Store
		} else {
			header.Method = zip.Deflate
		}

		w, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("create entry %s: %w", rel, err)
		}
		if !info.IsDir() {
			if err := copyFileInto(w, full); err != nil {
				return fmt.Errorf("write entry %s: %w", rel, err)
			}
		}

		if progress != nil {
			progress(types.ArchiveProgress{Progress: float64(i+1) / float64(total)})
		}
	}
	return nil
}

func (z *ZipHelper) ExtractArchive(ctx context.Context, archivePath, destDir string, progress ProgressFunc) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", archivePath, err)
	}
	defer r.Close()

	total := len(r.File)
	for i, f := range r.File {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		targetPath, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
			return err
		}
		if err := extractZipEntry(f, targetPath); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}

		if progress != nil {
			progress(types.ArchiveProgress{Progress: float64(i+1) / float64(total)})
		}
	}
	return nil
}

func extractZipEntry(f *zip.File, targetPath string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

func (z *ZipHelper) ListArchive(ctx context.Context, archivePath string) ([]types.ArchiveFile, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", archivePath, err)
	}
	defer r.Close()

	out := make([]types.ArchiveFile, 0, len(r.File))
	for _, f := range r.File {
		size := int64(f.UncompressedSize64)
		compressed := int64(f.CompressedSize64)
		modTime := f.Modified
		out = append(out, types.ArchiveFile{
			Filename:       f.Name,
			IsDir:          f.FileInfo().IsDir(),
			Size:           &size,
			CompressedSize: &compressed,
			ModifiedAt:     &modTime,
		})
	}
	return out, nil
}

func copyFileInto(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// expandEntries turns a caller-supplied list of root-relative entries
// into the full recursive set: a directory entry is replaced by itself
// plus every path beneath it, so archiving ["world"] includes
// "world/level.dat" etc., matching how 7z/zip normally handle a
// directory argument.
func expandEntries(root string, entries []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, rel := range entries {
		full := filepath.Join(root, rel)
		info, err := os.Lstat(full)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", full, err)
		}
		if !seen[rel] {
			seen[rel] = true
			out = append(out, rel)
		}
		if !info.IsDir() {
			continue
		}
		err = filepath.Walk(full, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if path == full {
				return nil
			}
			childRel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			childRel = filepath.ToSlash(childRel)
			if !seen[childRel] {
				seen[childRel] = true
				out = append(out, childRel)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// walkRelative returns every path under root, relative to root, in
// directory-then-file order for stable archive layout.
func walkRelative(root string) ([]string, error) {
	var out []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out = append(out, rel)
		return nil
	})
	return out, err
}

// safeJoin joins destDir and name, rejecting any path that would escape
// destDir via ".." segments or an absolute path — the same escape-proofing
// internal/vfs applies to user-supplied virtual paths, needed here too
// since archive entry names are attacker-controllable.
func safeJoin(destDir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(destDir, name))
	destClean := filepath.Clean(destDir)
	if cleaned != destClean && !strings.HasPrefix(cleaned, destClean+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes destination directory", name)
	}
	return cleaned, nil
}
