// Package tool declares the external analysis tools run against each checkout
// and the executors that invoke them.
package tool

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Sentinel errors for descriptor validation.
var (
	// ErrEmptyName indicates a descriptor has neither an executable nor a builtin.
	ErrEmptyName = errors.New("tool name is required")
	// ErrEmptyAlias indicates a descriptor has no display alias.
	ErrEmptyAlias = errors.New("tool alias is required")
	// ErrDuplicateAlias indicates two descriptors share an alias.
	ErrDuplicateAlias = errors.New("duplicate tool alias")
	// ErrUnknownBuiltin indicates a descriptor references an unregistered builtin.
	ErrUnknownBuiltin = errors.New("unknown builtin tool")
)

// Descriptor is the static declaration of one analysis tool.
type Descriptor struct {
	// Name is the executable name, resolved against the scripts directory.
	Name string `json:"name" yaml:"name"`
	// Alias is the display name used for table columns and plots.
	Alias string `json:"alias" yaml:"alias"`
	// BasePath is the directory, relative to the repository root, that
	// Artifacts and KPIFile are declared in.
	BasePath string `json:"base_path" yaml:"base_path"`
	// Artifacts are the files the tool leaves behind, relative to BasePath.
	Artifacts []string `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	// KPIFile holds the tool's one-line KPI output, relative to BasePath.
	// Empty means the tool reports no KPI and "0" is used.
	KPIFile string `json:"kpi_file,omitempty" yaml:"kpi_file,omitempty"`
	// KPIDescriptions label the KPI columns in trend plots.
	KPIDescriptions []string `json:"kpi_descriptions,omitempty" yaml:"kpi_descriptions,omitempty"`
	// Params are extra arguments passed to the executable.
	Params []string `json:"params,omitempty" yaml:"params,omitempty"`
	// ScriptParams are files shipped next to the tool scripts. They are
	// resolved against the scripts directory and passed before Params.
	ScriptParams []string `json:"script_params,omitempty" yaml:"script_params,omitempty"`
	// Runnable is false for tools whose outputs are produced outside the harness.
	Runnable bool `json:"runnable" yaml:"runnable"`
	// NeedsBuild runs the project build script before the tool.
	NeedsBuild bool `json:"needs_build,omitempty" yaml:"needs_build,omitempty"`
	// Builtin names an in-process implementation used instead of Name.
	Builtin string `json:"builtin,omitempty" yaml:"builtin,omitempty"`
}

// KPIPath returns the KPI file path relative to the repository root, or ""
// when the tool declares no KPI file.
func (d Descriptor) KPIPath() string {
	if d.KPIFile == "" {
		return ""
	}

	return filepath.Join(d.BasePath, d.KPIFile)
}

// ArtifactPaths returns the declared artifacts relative to the repository root.
func (d Descriptor) ArtifactPaths() []string {
	paths := make([]string, 0, len(d.Artifacts))

	for _, artifact := range d.Artifacts {
		paths = append(paths, filepath.Join(d.BasePath, artifact))
	}

	return paths
}

// Validate checks the descriptor invariants.
func (d Descriptor) Validate() error {
	if d.Name == "" && d.Builtin == "" {
		return ErrEmptyName
	}

	if d.Alias == "" {
		return fmt.Errorf("%w: %s", ErrEmptyAlias, d.Name)
	}

	if d.Builtin != "" && LookupBuiltin(d.Builtin) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownBuiltin, d.Builtin)
	}

	return nil
}

// ValidateSet validates every descriptor and checks alias uniqueness.
func ValidateSet(tools []Descriptor) error {
	seen := make(map[string]bool, len(tools))

	for _, t := range tools {
		err := t.Validate()
		if err != nil {
			return err
		}

		if seen[t.Alias] {
			return fmt.Errorf("%w: %s", ErrDuplicateAlias, t.Alias)
		}

		seen[t.Alias] = true
	}

	return nil
}

// Aliases returns the display aliases in declaration order.
func Aliases(tools []Descriptor) []string {
	aliases := make([]string, len(tools))

	for i, t := range tools {
		aliases[i] = t.Alias
	}

	return aliases
}
