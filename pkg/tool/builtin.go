package tool

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/repohealth/pkg/textutil"
)

// BuiltinLOC is the name of the in-process line counter.
const BuiltinLOC = "loc"

// BuiltinFunc runs an in-process tool against repoDir and writes the tool's
// KPI file itself. The returned bytes stand in for captured stdout.
type BuiltinFunc func(ctx context.Context, repoDir string, d Descriptor) ([]byte, error)

var builtins = map[string]BuiltinFunc{
	BuiltinLOC: LOC,
}

// LookupBuiltin returns the builtin registered under name, or nil.
func LookupBuiltin(name string) BuiltinFunc {
	return builtins[name]
}

var headerExtensions = map[string]bool{
	".h":   true,
	".hh":  true,
	".hpp": true,
	".hxx": true,
	".inl": true,
}

// skipDirs are never descended into. build holds the harness's own outputs.
var skipDirs = map[string]bool{
	".git":  true,
	"build": true,
}

// LOC counts lines of every non-vendored source file and of header files and
// writes "<all> <headers>" to the descriptor's KPI file.
func LOC(ctx context.Context, repoDir string, d Descriptor) ([]byte, error) {
	var all, headers int

	var summary bytes.Buffer

	err := filepath.WalkDir(repoDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, relErr := filepath.Rel(repoDir, path)
		if relErr != nil {
			return relErr
		}

		if entry.IsDir() {
			if rel != "." && (skipDirs[entry.Name()] || enry.IsVendor(rel+"/") || enry.IsDotFile(rel)) {
				return filepath.SkipDir
			}

			return nil
		}

		if !entry.Type().IsRegular() || !countable(rel) {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}

		if enry.GetLanguage(filepath.Base(rel), data) == "" {
			return nil
		}

		if textutil.IsBinary(data) {
			return nil
		}

		lines := textutil.CountLines(data)

		all += lines

		if headerExtensions[strings.ToLower(filepath.Ext(rel))] {
			headers += lines
		}

		fmt.Fprintf(&summary, "%8d %s\n", lines, filepath.ToSlash(rel))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("count lines in %s: %w", repoDir, err)
	}

	fmt.Fprintf(&summary, "%8d total, %d in headers\n", all, headers)

	if d.KPIPath() == "" {
		return summary.Bytes(), nil
	}

	kpiPath := filepath.Join(repoDir, d.KPIPath())

	err = os.MkdirAll(filepath.Dir(kpiPath), 0o750)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", filepath.Dir(kpiPath), err)
	}

	err = os.WriteFile(kpiPath, fmt.Appendf(nil, "%d %d\n", all, headers), 0o600)
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", kpiPath, err)
	}

	return summary.Bytes(), nil
}

func countable(rel string) bool {
	return !enry.IsVendor(rel) &&
		!enry.IsDotFile(rel) &&
		!enry.IsDocumentation(rel) &&
		!enry.IsConfiguration(rel)
}
