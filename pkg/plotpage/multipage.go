package plotpage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// IndexFileName is the dashboard entry page.
	IndexFileName = "index.html"

	dirPerm = 0o750
)

// MultiPageRenderer writes a set of standalone pages under one output directory.
type MultiPageRenderer struct {
	OutputDir string
	Title     string
	Theme     Theme
	Generated time.Time
}

// RenderPage renders sections into OutputDir/relPath. Pages in subdirectories
// get a navigation link back to the index.
func (r *MultiPageRenderer) RenderPage(relPath, title, description string, sections []Section) error {
	page := NewPage(title, description)
	page.Theme = r.Theme
	page.ProjectName = r.Title
	page.Generated = r.Generated
	page.Sections = sections

	depth := strings.Count(filepath.ToSlash(filepath.Clean(relPath)), "/")
	page.BaseHref = strings.Repeat("../", depth)

	outPath := filepath.Join(r.OutputDir, relPath)

	err := os.MkdirAll(filepath.Dir(outPath), dirPerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(outPath), err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer f.Close()

	err = page.Render(f)
	if err != nil {
		return fmt.Errorf("render %s: %w", relPath, err)
	}

	return nil
}

// RenderIndex renders sections into OutputDir/index.html.
func (r *MultiPageRenderer) RenderIndex(description string, sections []Section) error {
	return r.RenderPage(IndexFileName, r.Title, description, sections)
}
