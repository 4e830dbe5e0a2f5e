// Command xpuimport imports a native program into the interop layer through
// the wasm-backed simulated driver and shows how each device was reconciled.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/backend"
	"github.com/wippyai/xpu-interop/importer"
	"github.com/wippyai/xpu-interop/plugins/wasmdev"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to program wasm file (default: built-in add kernel)")
		backendName = flag.String("backend", "opencl", "Backend family (opencl, level_zero, cuda, hip, native_cpu)")
		stateName   = flag.String("state", "executable", "Requested bundle state (input, object, executable)")
		initial     = flag.String("initial", "", "Initial binary types per device (none,object,library,executable)")
		devices     = flag.Int("devices", 2, "Number of simulated devices")
		keep        = flag.Bool("keep", false, "Keep ownership of the native program")
		legacy      = flag.Bool("legacy", false, "Disable per-device entry points")
		cleanupName = flag.String("cleanup", "release", "Program cleanup on failure (release, none)")
		buildOpts   = flag.String("options", "", "Compile/build/link options")
		kernel      = flag.String("kernel", "", "Kernel to run after import (e.g. add)")
		kernelArgs  = flag.String("args", "", "Kernel arguments (comma-separated)")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		importer.SetLogger(logger.Named("importer"))
		wasmdev.SetLogger(logger.Named("wasmdev"))
	}

	opts, err := parseOptions(*wasmFile, *backendName, *stateName, *initial, *cleanupName, *kernelArgs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Usage: xpuimport [-wasm file.wasm] [-backend name] [-state name] [-initial t,t] [-kernel name -args a,b]")
		fmt.Fprintln(os.Stderr, "       xpuimport -i  (interactive mode)")
		os.Exit(1)
	}
	opts.devices = *devices
	opts.keep = *keep
	opts.legacy = *legacy
	opts.buildOptions = *buildOpts
	opts.kernel = *kernel

	if *interactive {
		if err := runInteractive(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	rep, err := runImport(context.Background(), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(renderReport(rep, term.IsTerminal(int(os.Stdout.Fd()))))
	if rep.err != nil {
		os.Exit(2)
	}
}

func parseOptions(wasmFile, backendName, stateName, initial, cleanupName, kernelArgs string) (options, error) {
	opts := options{source: "add.wasm", binary: wasmdev.AddModule}
	if wasmFile != "" {
		data, err := os.ReadFile(wasmFile)
		if err != nil {
			return opts, fmt.Errorf("read file: %w", err)
		}
		opts.source = wasmFile
		opts.binary = data
	}

	kind, err := backend.ParseKind(backendName)
	if err != nil {
		return opts, err
	}
	opts.kind = kind

	if opts.state, err = xpuinterop.ParseBundleState(stateName); err != nil {
		return opts, err
	}
	if opts.initial, err = parseBinaryTypes(initial); err != nil {
		return opts, err
	}
	if opts.args, err = parseArgs(kernelArgs); err != nil {
		return opts, err
	}

	switch cleanupName {
	case "release":
		opts.cleanup = importer.CleanupRelease
	case "none":
		opts.cleanup = importer.CleanupNone
	default:
		return opts, fmt.Errorf("unknown cleanup policy %q", cleanupName)
	}
	return opts, nil
}
