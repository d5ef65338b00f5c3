package tool

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidManifest is returned when a manifest fails schema validation.
var ErrInvalidManifest = errors.New("invalid tool manifest")

//go:embed manifest.schema.json
var manifestSchema []byte

// ManifestSchema returns the JSON schema tool manifests are validated against.
func ManifestSchema() []byte {
	return manifestSchema
}

type manifestFile struct {
	Tools []manifestTool `yaml:"tools"`
}

type manifestTool struct {
	Name            string   `yaml:"name"`
	Alias           string   `yaml:"alias"`
	BasePath        string   `yaml:"base_path"`
	Artifacts       []string `yaml:"artifacts"`
	KPIFile         string   `yaml:"kpi_file"`
	KPIDescriptions []string `yaml:"kpi_descriptions"`
	Params          []string `yaml:"params"`
	ScriptParams    []string `yaml:"script_params"`
	Runnable        *bool    `yaml:"runnable"`
	NeedsBuild      bool     `yaml:"needs_build"`
	Builtin         string   `yaml:"builtin"`
}

func (m manifestTool) descriptor() Descriptor {
	d := Descriptor{
		Name:            m.Name,
		Alias:           m.Alias,
		BasePath:        m.BasePath,
		Artifacts:       m.Artifacts,
		KPIFile:         m.KPIFile,
		KPIDescriptions: m.KPIDescriptions,
		Params:          m.Params,
		ScriptParams:    m.ScriptParams,
		Runnable:        true,
		NeedsBuild:      m.NeedsBuild,
		Builtin:         m.Builtin,
	}

	if m.Runnable != nil {
		d.Runnable = *m.Runnable
	}

	if d.BasePath == "" {
		d.BasePath = "."
	}

	if d.Name == "" {
		d.Name = d.Builtin
	}

	return d
}

// LoadManifest reads a YAML tool manifest from path.
func LoadManifest(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	tools, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return tools, nil
}

// ParseManifest decodes and validates a YAML tool manifest.
func ParseManifest(data []byte) ([]Descriptor, error) {
	err := ValidateManifest(data)
	if err != nil {
		return nil, err
	}

	var file manifestFile

	err = yaml.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	tools := make([]Descriptor, 0, len(file.Tools))
	for _, mt := range file.Tools {
		tools = append(tools, mt.descriptor())
	}

	err = ValidateSet(tools)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	return tools, nil
}

// ValidateManifest checks a YAML manifest against the embedded schema.
func ValidateManifest(data []byte) error {
	var doc any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return fmt.Errorf("decode manifest: %w", err)
	}

	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidManifest)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(manifestSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("validate manifest: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		msgs = append(msgs, resultErr.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidManifest, strings.Join(msgs, "; "))
}
