package archive

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dncore/swi/pkg/types"
)

// SevenZipHelper implements Helper by shelling out to the system 7z
// binary. There is no usable pure-Go 7z encoder anywhere in the
// ecosystem, so — same as the original implementation — this format is
// only available when an operator has 7z installed.
type SevenZipHelper struct {
	binaryPath string
}

func (s *SevenZipHelper) Suffix() string { return "7z" }

// Available reports whether the 7z binary is resolvable on PATH. Looked
// up lazily (not at package init) so a 7z installed after the daemon
// started is picked up on the next call.
func (s *SevenZipHelper) Available() bool {
	path, err := exec.LookPath("7z")
	if err != nil {
		return false
	}
	s.binaryPath = path
	return true
}

func (s *SevenZipHelper) IsArchive(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".7z")
}

func (s *SevenZipHelper) binary() string {
	if s.binaryPath != "" {
		return s.binaryPath
	}
	return "7z"
}

func (s *SevenZipHelper) run(ctx context.Context, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, s.binary(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return stdout.String(), stderr.String(), fmt.Errorf("7z exited %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return stdout.String(), stderr.String(), fmt.Errorf("7z exec failed: %w", err)
	}
	return stdout.String(), stderr.String(), nil
}

func (s *SevenZipHelper) MakeArchive(ctx context.Context, dst, srcRoot string, entries []string, progress ProgressFunc) error {
	args := []string{"a", "-y", "-bd", dst}
	if len(entries) == 0 {
		args = append(args, ".")
	} else {
		args = append(args, entries...)
	}
	cmd := exec.CommandContext(ctx, s.binary(), args...)
	cmd.Dir = srcRoot

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("7z a failed: %s: %w", strings.TrimSpace(stderr.String()), err)
	}
	if progress != nil {
		progress(types.ArchiveProgress{Progress: 1})
	}
	return nil
}

func (s *SevenZipHelper) ExtractArchive(ctx context.Context, archivePath, destDir string, progress ProgressFunc) error {
	_, _, err := s.run(ctx, "x", "-y", "-bd", "-o"+destDir, archivePath)
	if err != nil {
		return err
	}
	if progress != nil {
		progress(types.ArchiveProgress{Progress: 1})
	}
	return nil
}

// ListArchive parses `7z l -slt` technical listing output, which emits
// one "Key = Value" block per entry separated by blank lines.
func (s *SevenZipHelper) ListArchive(ctx context.Context, archivePath string) ([]types.ArchiveFile, error) {
	stdout, _, err := s.run(ctx, "l", "-slt", archivePath)
	if err != nil {
		return nil, err
	}
	return parseSevenZipListing(stdout), nil
}

func parseSevenZipListing(output string) []types.ArchiveFile {
	var out []types.ArchiveFile
	var cur map[string]string

	flush := func() {
		if cur == nil || cur["Path"] == "" {
			return
		}
		isDir := cur["Attributes"] != "" && strings.Contains(cur["Attributes"], "D")
		f := types.ArchiveFile{Filename: cur["Path"], IsDir: isDir}
		if v, ok := cur["Size"]; ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				f.Size = &n
			}
		}
		if v, ok := cur["Packed Size"]; ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				f.CompressedSize = &n
			}
		}
		if v, ok := cur["Modified"]; ok {
			if t, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
				f.ModifiedAt = &t
			}
		}
		out = append(out, f)
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			cur = nil
			continue
		}
		idx := strings.Index(line, " = ")
		if idx < 0 {
			continue
		}
		if cur == nil {
			cur = map[string]string{}
		}
		cur[line[:idx]] = line[idx+3:]
	}
	flush()

	return out
}
