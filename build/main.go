package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/curioswitch/go-build"
	"github.com/goyek/goyek/v2"
	"github.com/goyek/x/boot"
	"github.com/goyek/x/cmd"
)

const verBenchstat = "v0.0.0-20240919172216-0e2e5d5f3a58"

func main() {
	build.RegisterTestTask(goyek.Define(goyek.Task{
		Name:  "test-go",
		Usage: "Runs Go tests.",
		Action: func(a *goyek.A) {
			race := "-race"
			if os.Getenv("TEST_NORACE") != "" {
				race = ""
			}
			cmd.Exec(a, fmt.Sprintf("go test -v -timeout=20m %s ./...", race))
			cmd.Exec(a, fmt.Sprintf("go build -o %s ./internal/e2e", filepath.Join("out", "test.wasm")), cmd.Env("GOOS", "wasip1"), cmd.Env("GOARCH", "wasm"))
			// Could invoke wazero directly but the CLI has a simpler entry point.
			cmd.Exec(a, "go run github.com/tetratelabs/wazero/cmd/wazero@v1.9.0 run "+filepath.Join("out", "test.wasm"))
		},
	}))

	goyek.Define(goyek.Task{
		Name:  "serve",
		Usage: "Runs the matching API on the configured address.",
		Action: func(a *goyek.A) {
			cmd.Exec(a, "go run ./cmd/rx --verbose serve")
		},
	})

	defineBenchTasks("bench", "./...")
	defineBenchTasks("bench-set", "./experimental")

	build.DefineTasks(
		build.ExcludeTasks("test-go"),
	)

	boot.Main()
}

func benchArgs(pkg string, count int, filter string) string {
	args := []string{"test", "-bench=" + filter, "-run=^$", "-v", "-timeout=60m"}
	if count > 0 {
		args = append(args, fmt.Sprintf("-count=%d", count))
	}
	args = append(args, pkg)

	return strings.Join(args, " ")
}

// defineBenchTasks defines a task running the benchmarks of pkg once, and one that runs
// them repeatedly and compares the backends and engines with benchstat. Sub-benchmarks
// are named after the configuration they run, so benchstat can put them in columns.
func defineBenchTasks(name string, pkg string) {
	goyek.Define(goyek.Task{
		Name:  name,
		Usage: "Runs benchmarks once for every backend and engine.",
		Action: func(a *goyek.A) {
			cmd.Exec(a, "go "+benchArgs(pkg, 1, "."))
		},
	})

	goyek.Define(goyek.Task{
		Name:  name + "-all",
		Usage: "Runs benchmarks repeatedly and compares backends and engines with benchstat.",
		Action: func(a *goyek.A) {
			if err := os.MkdirAll("out", 0o750); err != nil {
				a.Errorf("create out directory: %v", err)
			}

			var stdout bytes.Buffer
			cmd.Exec(a, "go "+benchArgs(pkg, 5, "."), cmd.Stdout(&stdout))
			out := filepath.Join("out", name+".txt")
			if err := os.WriteFile(out, stdout.Bytes(), 0o600); err != nil {
				a.Errorf("write %s: %v", out, err)
			}

			cmd.Exec(a, fmt.Sprintf("go run golang.org/x/perf/cmd/benchstat@%s -col /config %s", verBenchstat, out))
		},
	})
}
