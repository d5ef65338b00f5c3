// Package cache stores per-commit tool results and relocated artifacts under
// the report output directory.
package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/Sumatoshi-tech/repohealth/pkg/textutil"
)

// Result codes persisted in place of a KPI string.
const (
	// CodeFailed marks a tool that failed to run or produced unreadable output.
	CodeFailed = "-1"
	// CodeArtifactMissing marks an artifact that was absent at relocation time.
	CodeArtifactMissing = "-2"
	// CodeCachedArtifactMissing marks a cached result whose relocated artifact is gone.
	CodeCachedArtifactMissing = "-3"
	// CodeReportOnly is the placeholder for tools skipped in report-only mode.
	CodeReportOnly = "0"
)

// DataDir is the directory under the output root holding per-commit data.
const DataDir = "data"

const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// ErrEmptyHash is returned when a commit hash is empty.
var ErrEmptyHash = errors.New("commit hash is required")

// Store is the on-disk cache rooted at the report output directory.
type Store struct {
	root string
}

// New returns a store rooted at outputDir.
func New(outputDir string) *Store {
	return &Store{root: outputDir}
}

// CommitDir returns the directory holding one commit's data.
func (s *Store) CommitDir(hash string) string {
	return filepath.Join(s.root, DataDir, hash)
}

// KPIPath returns the cache file for a tool's result at a commit.
func (s *Store) KPIPath(hash, toolName string) string {
	return filepath.Join(s.CommitDir(hash), hash+"-"+toolName+".txt")
}

// LogPath returns the file holding a tool's captured output at a commit.
func (s *Store) LogPath(hash, toolName string) string {
	return filepath.Join(s.CommitDir(hash), hash+"-"+toolName+".log")
}

// ArtifactPath returns where an artifact is relocated to.
func (s *Store) ArtifactPath(hash, artifact string) string {
	return filepath.Join(s.CommitDir(hash), ArtifactName(hash, artifact))
}

// ArtifactName returns the relocated file name of an artifact.
func ArtifactName(hash, artifact string) string {
	return hash + "-" + filepath.Base(artifact)
}

// ArtifactLink returns the link to a relocated artifact relative to the
// output directory, always slash-separated.
func ArtifactLink(hash, artifact string) string {
	return path.Join(DataDir, hash, ArtifactName(hash, artifact))
}

// Has reports whether a cached result exists for a tool at a commit.
func (s *Store) Has(hash, toolName string) bool {
	return fileExists(s.KPIPath(hash, toolName))
}

// HasArtifact reports whether the relocated artifact exists.
func (s *Store) HasArtifact(hash, artifact string) bool {
	return fileExists(s.ArtifactPath(hash, artifact))
}

// ArtifactSize returns the size of a relocated artifact.
func (s *Store) ArtifactSize(hash, artifact string) (int64, bool) {
	info, err := os.Stat(s.ArtifactPath(hash, artifact))
	if err != nil {
		return 0, false
	}

	return info.Size(), true
}

// ReadKPI returns the first line of the cached result.
func (s *Store) ReadKPI(hash, toolName string) (string, error) {
	return ReadFirstLine(s.KPIPath(hash, toolName))
}

// WriteKPI replaces the cached result for a tool at a commit.
func (s *Store) WriteKPI(hash, toolName, kpi string) error {
	if hash == "" {
		return ErrEmptyHash
	}

	err := os.MkdirAll(s.CommitDir(hash), dirPerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.CommitDir(hash), err)
	}

	target := s.KPIPath(hash, toolName)

	err = os.WriteFile(target, []byte(kpi+"\n"), filePerm)
	if err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}

	return nil
}

// WriteLog stores a tool's captured output.
func (s *Store) WriteLog(hash, toolName string, data []byte) error {
	if hash == "" {
		return ErrEmptyHash
	}

	err := os.MkdirAll(s.CommitDir(hash), dirPerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.CommitDir(hash), err)
	}

	return os.WriteFile(s.LogPath(hash, toolName), data, filePerm)
}

// HarvestKPI moves a KPI file produced outside the harness onto the cache file.
func (s *Store) HarvestKPI(hash, toolName, src string) error {
	err := os.MkdirAll(s.CommitDir(hash), dirPerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.CommitDir(hash), err)
	}

	return Move(src, s.KPIPath(hash, toolName))
}

// Relocate moves an artifact into the commit directory.
func (s *Store) Relocate(hash, src string) error {
	err := os.MkdirAll(s.CommitDir(hash), dirPerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.CommitDir(hash), err)
	}

	return Move(src, s.ArtifactPath(hash, src))
}

// Hashes lists the commit hashes with cached data, sorted.
func (s *Store) Hashes() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, DataDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("list cache: %w", err)
	}

	hashes := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			hashes = append(hashes, entry.Name())
		}
	}

	sort.Strings(hashes)

	return hashes, nil
}

// ReadFirstLine returns the first line of a file without its line ending.
func ReadFirstLine(name string) (string, error) {
	f, err := os.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	line, err := textutil.FirstLine(f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}

	return line, nil
}

// Move renames src to dst, copying across file systems when a rename is not possible.
func Move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	if _, statErr := os.Stat(src); statErr != nil {
		return fmt.Errorf("move %s: %w", src, statErr)
	}

	err = copyFile(src, dst)
	if err != nil {
		return err
	}

	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	_, err = io.Copy(out, in)
	if err != nil {
		out.Close()

		return fmt.Errorf("copy %s: %w", src, err)
	}

	return out.Close()
}

func fileExists(name string) bool {
	_, err := os.Stat(name)

	return err == nil
}
