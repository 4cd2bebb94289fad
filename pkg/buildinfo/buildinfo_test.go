package buildinfo

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/kiln-shell/kiln/pkg/prog/progtest"
)

func TestProgram(t *testing.T) {
	progtest.Test(t, Program{},
		progtest.ThatKiln("-version").
			WritesStdout(Version+VersionSuffix+"\n"),
		progtest.ThatKiln("-buildinfo").
			WritesStdout(fmt.Sprintf(
				"Version: %v\nGo version: %v\nReproducible build: %v\n",
				Version+VersionSuffix, runtime.Version(), Reproducible)),
		progtest.ThatKiln("-buildinfo", "-json").
			WritesStdout(fmt.Sprintf(
				`{"version":"%v","goversion":"%v","reproducible":%v}`+"\n",
				Version+VersionSuffix, runtime.Version(), Reproducible)),
	)
}

func TestProgram_NotSuitableWithoutFlags(t *testing.T) {
	progtest.Test(t, Program{},
		progtest.ThatKiln().
			ExitsWith(2).
			WritesStderrContaining("internal error: no suitable subprogram"),
	)
}
