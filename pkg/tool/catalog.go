package tool

import (
	"errors"
	"fmt"
)

// Tool profiles.
const (
	ProfileProduction = "production"
	ProfileTesting    = "testing"
)

// ErrUnknownProfile is returned for a profile with no built-in catalog.
var ErrUnknownProfile = errors.New("unknown tool profile")

const kpisFile = "kpis.txt"

// Catalog returns the built-in tool list for the given profile.
func Catalog(profile string) ([]Descriptor, error) {
	switch profile {
	case ProfileProduction, "":
		return []Descriptor{
			valgrind(), tidyCXX(), tidyC(), loc(), cbta(), iwyu(), doxygen(), failing(),
		}, nil
	case ProfileTesting:
		return []Descriptor{loc(), doxygen(), files(), failing()}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, profile)
	}
}

func loc() Descriptor {
	return Descriptor{
		Name:            "loc",
		Alias:           "loc",
		BasePath:        "build/loc",
		KPIFile:         kpisFile,
		KPIDescriptions: []string{"Everything", "Headers only"},
		Runnable:        true,
		Builtin:         BuiltinLOC,
	}
}

func files() Descriptor {
	return Descriptor{
		Name:      "files.sh",
		Alias:     "files",
		BasePath:  "build",
		Artifacts: []string{"files.txt", "files2.txt"},
		Runnable:  true,
	}
}

func failing() Descriptor {
	return Descriptor{
		Name:     "failing.sh",
		Alias:    "failing",
		BasePath: ".",
		KPIFile:  kpisFile,
		Runnable: true,
	}
}

// cbta harvests clang build-time analyzer output produced by the build itself.
func cbta() Descriptor {
	return Descriptor{
		Name:            "clang-build-time-analyzer-run.sh",
		Alias:           "cbta",
		BasePath:        "build/clang-build-analyser",
		Artifacts:       []string{"cba-result.txt", "cba-trace.txt.txz"},
		KPIFile:         kpisFile,
		KPIDescriptions: []string{"T parsing", "T codegen"},
		Runnable:        false,
	}
}

func tidyC() Descriptor {
	return Descriptor{
		Name:            "clang-tidy-run-cc.sh",
		Alias:           "tidyC",
		BasePath:        "build/clang-tidy-C",
		Artifacts:       []string{"clang-tidy-result-C.txt.txz"},
		KPIFile:         kpisFile,
		KPIDescriptions: []string{"Lines of warnings"},
		Runnable:        true,
	}
}

func tidyCXX() Descriptor {
	return Descriptor{
		Name:            "clang-tidy-run-cpp.sh",
		Alias:           "tidyCXX",
		BasePath:        "build/clang-tidy-CXX",
		Artifacts:       []string{"clang-tidy-result-CXX.txt.txz"},
		KPIFile:         kpisFile,
		KPIDescriptions: []string{"Lines of warnings"},
		Runnable:        true,
	}
}

func iwyu() Descriptor {
	return Descriptor{
		Name:            "clang-include-what-you-use-run.sh",
		Alias:           "iwyu",
		BasePath:        "build/clang-iwyu",
		Artifacts:       []string{"iwyu-result.txt.txz"},
		KPIFile:         kpisFile,
		KPIDescriptions: []string{"lines of warnings"},
		Runnable:        true,
	}
}

func doxygen() Descriptor {
	return Descriptor{
		Name:      "doxygen.sh",
		Alias:     "doxygen",
		BasePath:  "build/doxygen",
		Artifacts: []string{"doxygen.tar.xz"},
		KPIFile:   kpisFile,
		Runnable:  true,
	}
}

func valgrind() Descriptor {
	return Descriptor{
		Name:            "valgrind-tests.sh",
		Alias:           "valgrind",
		BasePath:        "build/valgrind-output",
		Artifacts:       []string{"valgrind-output.txz"},
		KPIFile:         kpisFile,
		KPIDescriptions: []string{"time taken"},
		ScriptParams:    []string{"valgrind-executable-list.txt"},
		Runnable:        true,
		NeedsBuild:      true,
	}
}
