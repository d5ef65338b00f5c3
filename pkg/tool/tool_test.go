package tool_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repohealth/pkg/tool"
)

func TestCatalog_Production_MatchesDeclaredOrder(t *testing.T) {
	t.Parallel()

	tools, err := tool.Catalog(tool.ProfileProduction)
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"valgrind", "tidyCXX", "tidyC", "loc", "cbta", "iwyu", "doxygen", "failing"},
		tool.Aliases(tools))
	require.NoError(t, tool.ValidateSet(tools))
}

func TestCatalog_Testing_MatchesDeclaredOrder(t *testing.T) {
	t.Parallel()

	tools, err := tool.Catalog(tool.ProfileTesting)
	require.NoError(t, err)

	assert.Equal(t, []string{"loc", "doxygen", "files", "failing"}, tool.Aliases(tools))
}

func TestCatalog_Unknown_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := tool.Catalog("staging")
	assert.ErrorIs(t, err, tool.ErrUnknownProfile)
}

func TestCatalog_CBTA_IsHarvestOnly(t *testing.T) {
	t.Parallel()

	tools, err := tool.Catalog(tool.ProfileProduction)
	require.NoError(t, err)

	for _, d := range tools {
		if d.Alias == "cbta" {
			assert.False(t, d.Runnable)
			assert.Equal(t, []string{"T parsing", "T codegen"}, d.KPIDescriptions)

			return
		}
	}

	t.Fatal("cbta not in production catalog")
}

func TestDescriptor_Paths_JoinBasePath(t *testing.T) {
	t.Parallel()

	d := tool.Descriptor{
		Name:      "doxygen.sh",
		Alias:     "doxygen",
		BasePath:  "build/doxygen",
		Artifacts: []string{"doxygen.tar.xz"},
		KPIFile:   "kpis.txt",
	}

	assert.Equal(t, filepath.Join("build", "doxygen", "kpis.txt"), d.KPIPath())
	assert.Equal(t, []string{filepath.Join("build", "doxygen", "doxygen.tar.xz")}, d.ArtifactPaths())
}

func TestDescriptor_NoKPIFile_EmptyPath(t *testing.T) {
	t.Parallel()

	d := tool.Descriptor{Name: "files.sh", Alias: "files", BasePath: "build"}
	assert.Empty(t, d.KPIPath())
}

func TestValidateSet_DuplicateAlias_ReturnsError(t *testing.T) {
	t.Parallel()

	tools := []tool.Descriptor{
		{Name: "a.sh", Alias: "x"},
		{Name: "b.sh", Alias: "x"},
	}

	assert.ErrorIs(t, tool.ValidateSet(tools), tool.ErrDuplicateAlias)
}

func TestValidate_UnknownBuiltin_ReturnsError(t *testing.T) {
	t.Parallel()

	d := tool.Descriptor{Alias: "x", Builtin: "nope"}
	assert.ErrorIs(t, d.Validate(), tool.ErrUnknownBuiltin)
}

func TestParseManifest_Valid_Defaults(t *testing.T) {
	t.Parallel()

	data := []byte(`
tools:
  - name: doxygen.sh
    alias: doxygen
    base_path: build/doxygen
    artifacts: [doxygen.tar.xz]
    kpi_file: kpis.txt
  - builtin: loc
    alias: loc
    kpi_file: kpis.txt
    kpi_descriptions: [Everything, Headers only]
  - name: harvest.sh
    alias: harvest
    runnable: false
`)

	tools, err := tool.ParseManifest(data)
	require.NoError(t, err)
	require.Len(t, tools, 3)

	assert.True(t, tools[0].Runnable)
	assert.Equal(t, "loc", tools[1].Name)
	assert.Equal(t, ".", tools[1].BasePath)
	assert.False(t, tools[2].Runnable)
}

func TestParseManifest_SchemaViolation_ReturnsError(t *testing.T) {
	t.Parallel()

	data := []byte(`
tools:
  - name: doxygen.sh
    colour: blue
`)

	_, err := tool.ParseManifest(data)
	assert.ErrorIs(t, err, tool.ErrInvalidManifest)
}

func TestParseManifest_DuplicateAlias_ReturnsError(t *testing.T) {
	t.Parallel()

	data := []byte(`
tools:
  - {name: a.sh, alias: same}
  - {name: b.sh, alias: same}
`)

	_, err := tool.ParseManifest(data)
	require.ErrorIs(t, err, tool.ErrInvalidManifest)
	assert.ErrorIs(t, err, tool.ErrDuplicateAlias)
}

func TestLoadManifest_MissingFile_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := tool.LoadManifest(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestShellExecutor_CapturesStdoutAndExitCode(t *testing.T) {
	t.Parallel()

	outcome, err := tool.ShellExecutor{}.Run(context.Background(), tool.Invocation{
		Path: "sh",
		Args: []string{"-c", "echo hello; exit 3"},
		Dir:  t.TempDir(),
	})

	require.ErrorIs(t, err, tool.ErrNonZeroExit)
	assert.Equal(t, 3, outcome.ExitCode)
	assert.Equal(t, "hello\n", string(outcome.Stdout))
}

func TestShellExecutor_Success(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	outcome, err := tool.ShellExecutor{}.Run(context.Background(), tool.Invocation{
		Path: "sh",
		Args: []string{"-c", "pwd"},
		Dir:  dir,
		Env:  []string{"REPOHEALTH_TEST=1"},
	})

	require.NoError(t, err)
	assert.Zero(t, outcome.ExitCode)
	assert.NotEmpty(t, outcome.Stdout)
}

func TestShellExecutor_MissingBinary_NotNonZeroExit(t *testing.T) {
	t.Parallel()

	_, err := tool.ShellExecutor{}.Run(context.Background(), tool.Invocation{
		Path: filepath.Join(t.TempDir(), "does-not-exist.sh"),
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, tool.ErrNonZeroExit)
}

func TestInvocationFor_ResolvesScriptsDir(t *testing.T) {
	t.Parallel()

	d := tool.Descriptor{Name: "valgrind-tests.sh", Params: []string{"list.txt"}}
	inv := tool.InvocationFor(d, "/opt/scripts", "/src/repo")

	assert.Equal(t, filepath.Join("/opt/scripts", "valgrind-tests.sh"), inv.Path)
	assert.Equal(t, []string{"list.txt"}, inv.Args)
	assert.Equal(t, "/src/repo", inv.Dir)
	assert.Equal(t, "/bin/tool", tool.ScriptPath("/opt/scripts", "/bin/tool"))

	withList := tool.Descriptor{Name: "x.sh", ScriptParams: []string{"list.txt"}, Params: []string{"-v"}}
	inv = tool.InvocationFor(withList, "/opt/scripts", "/src/repo")
	assert.Equal(t, []string{filepath.Join("/opt/scripts", "list.txt"), "-v"}, inv.Args)
}

func TestInvocationFor_Valgrind_ListResolvedAgainstScriptsDir(t *testing.T) {
	t.Parallel()

	tools, err := tool.Catalog(tool.ProfileProduction)
	require.NoError(t, err)

	var valgrind tool.Descriptor

	for _, d := range tools {
		if d.Alias == "valgrind" {
			valgrind = d
		}
	}

	require.Equal(t, "valgrind-tests.sh", valgrind.Name)

	inv := tool.InvocationFor(valgrind, "/repo/utils/health", "/repo")

	assert.Equal(t, "/repo/utils/health/valgrind-tests.sh", inv.Path)
	assert.Equal(t, []string{"/repo/utils/health/valgrind-executable-list.txt"}, inv.Args)
	assert.Equal(t, "/repo", inv.Dir)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()

	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLOC_CountsSourcesAndHeaders(t *testing.T) {
	t.Parallel()

	repo := t.TempDir()
	writeFile(t, repo, "src/main.c", "#include \"util.h\"\nint main(void) {\n  return 0;\n}\n")
	writeFile(t, repo, "src/util.h", "#pragma once\nint util(void);")
	writeFile(t, repo, "vendor/lib.c", "int lib(void) { return 1; }\n")
	writeFile(t, repo, "build/generated.c", "int gen;\n")
	writeFile(t, repo, ".hidden/x.c", "int x;\n")

	d := tool.Descriptor{Name: "loc", Alias: "loc", BasePath: "build/loc", KPIFile: "kpis.txt", Builtin: tool.BuiltinLOC}

	out, err := tool.LOC(context.Background(), repo, d)
	require.NoError(t, err)
	assert.Contains(t, string(out), "6 total, 2 in headers")

	kpis, err := os.ReadFile(filepath.Join(repo, "build", "loc", "kpis.txt"))
	require.NoError(t, err)
	assert.Equal(t, "6 2\n", string(kpis))
}

func TestLOC_Cancelled_ReturnsError(t *testing.T) {
	t.Parallel()

	repo := t.TempDir()
	writeFile(t, repo, "main.c", "int main;\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tool.LOC(ctx, repo, tool.Descriptor{Alias: "loc", Builtin: tool.BuiltinLOC})
	assert.ErrorIs(t, err, context.Canceled)
}
