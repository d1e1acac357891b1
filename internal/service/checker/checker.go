package checker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/oshokin/cuda-installer/internal/config"
	"github.com/oshokin/cuda-installer/internal/logger"
	"github.com/oshokin/cuda-installer/internal/service/command"
	"github.com/oshokin/cuda-installer/internal/service/console"
)

var (
	// errCheckFailed is returned when at least one component is missing.
	errCheckFailed = errors.New("environment check failed")
	// errUnrecognizedOutput is returned when a tool answered with unexpected text.
	errUnrecognizedOutput = errors.New("unrecognized output")
	// errHeaderIncomplete is returned when a cuDNN version macro is missing.
	errHeaderIncomplete = errors.New("cudnn version macros not found")
)

var (
	driverPattern = regexp.MustCompile(`Driver Version:\s*([0-9.]+)`)
	cudaPattern   = regexp.MustCompile(`CUDA Version:\s*([0-9.]+)`)
	nvccPattern   = regexp.MustCompile(`release\s+([0-9.]+),\s*V([0-9.]+)`)
	definePattern = regexp.MustCompile(`^#define\s+(CUDNN_MAJOR|CUDNN_MINOR|CUDNN_PATCHLEVEL)\s+(\d+)`)
)

// nvccFallback is where the cuda package installs nvcc when it is not on PATH.
const nvccFallback = "/opt/cuda/bin/nvcc"

// Options controls the environment check.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Stdout receives the report; os.Stdout when nil.
	Stdout *os.File
}

// Result is the state of one component.
type Result struct {
	// Component names what was checked.
	Component string
	// Version is the detected version, empty on failure.
	Version string
	// Err is set when the component is missing or unreadable.
	Err error
}

// Checker inspects the host toolchain.
type Checker struct {
	runner      command.Runner
	cudnnHeader string
	readFile    func(string) ([]byte, error)
}

// New creates a Checker that reads the cuDNN version from cudnnHeader.
func New(runner command.Runner, cudnnHeader string) *Checker {
	return &Checker{
		runner:      runner,
		cudnnHeader: cudnnHeader,
		readFile:    os.ReadFile,
	}
}

// Run checks the environment and prints the report.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "cuda-installer-check")

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	out := console.NewTerminal(stdout)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		err = fmt.Errorf("load configuration: %w", err)
		out.Error("%v", err)

		return err
	}

	results := New(command.NewExec(), cfg.CudnnHeader).Check(ctx)

	return Report(out, results)
}

// Reporter prints status lines.
type Reporter interface {
	Success(format string, args ...any)
	Error(format string, args ...any)
}

// Report prints every result and returns an error if any component failed.
func Report(out Reporter, results []Result) error {
	failed := 0

	for _, r := range results {
		if r.Err != nil {
			failed++

			out.Error("%s not found: %v", r.Component, r.Err)

			continue
		}

		out.Success("%s: %s", r.Component, r.Version)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d components missing", errCheckFailed, failed, len(results))
	}

	return nil
}

// Check inspects every component in a fixed order.
func (c *Checker) Check(ctx context.Context) []Result {
	probes := []struct {
		component string
		probe     func() (string, error)
	}{
		{component: "GPU driver", probe: func() (string, error) { return c.Driver(ctx) }},
		{component: "CUDA", probe: func() (string, error) { return c.CUDA(ctx) }},
		{component: "cuDNN", probe: c.CUDNN},
		{component: "gcc", probe: func() (string, error) { return c.GCC(ctx) }},
	}

	results := make([]Result, 0, len(probes))

	for _, p := range probes {
		version, err := p.probe()
		if err != nil {
			logger.DebugKV(ctx, "Component check failed", "component", p.component, "error", err)
		}

		results = append(results, Result{Component: p.component, Version: version, Err: err})
	}

	return results
}

// Driver returns the driver version and the highest CUDA version it supports.
func (c *Checker) Driver(ctx context.Context) (string, error) {
	output, err := c.runner.Capture(ctx, "nvidia-smi")
	if err != nil {
		return "", err
	}

	driver := driverPattern.FindStringSubmatch(output)
	if driver == nil {
		return "", fmt.Errorf("nvidia-smi: %w", errUnrecognizedOutput)
	}

	if cuda := cudaPattern.FindStringSubmatch(output); cuda != nil {
		return fmt.Sprintf("%s (CUDA %s)", driver[1], cuda[1]), nil
	}

	return driver[1], nil
}

// CUDA returns the nvcc release, looking in the default install prefix when nvcc is not on PATH.
func (c *Checker) CUDA(ctx context.Context) (string, error) {
	output, err := c.runner.Capture(ctx, "nvcc", "--version")
	if err != nil {
		var fallbackErr error

		output, fallbackErr = c.runner.Capture(ctx, nvccFallback, "--version")
		if fallbackErr != nil {
			return "", err
		}
	}

	match := nvccPattern.FindStringSubmatch(output)
	if match == nil {
		return "", fmt.Errorf("nvcc: %w", errUnrecognizedOutput)
	}

	return match[2], nil
}

// CUDNN returns MAJOR.MINOR.PATCHLEVEL from the cuDNN version header.
func (c *Checker) CUDNN() (string, error) {
	data, err := c.readFile(filepath.Clean(c.cudnnHeader))
	if err != nil {
		return "", err
	}

	return parseCudnnHeader(string(data))
}

// GCC returns the first line of gcc --version.
func (c *Checker) GCC(ctx context.Context) (string, error) {
	output, err := c.runner.Capture(ctx, "gcc", "--version")
	if err != nil {
		return "", err
	}

	line, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	if line == "" {
		return "", fmt.Errorf("gcc: %w", errUnrecognizedOutput)
	}

	return line, nil
}

func parseCudnnHeader(header string) (string, error) {
	values := make(map[string]string, 3)

	scanner := bufio.NewScanner(strings.NewReader(header))
	for scanner.Scan() {
		if m := definePattern.FindStringSubmatch(strings.TrimSpace(scanner.Text())); m != nil {
			values[m[1]] = m[2]
		}
	}

	major, minor, patch := values["CUDNN_MAJOR"], values["CUDNN_MINOR"], values["CUDNN_PATCHLEVEL"]
	if major == "" || minor == "" || patch == "" {
		return "", errHeaderIncomplete
	}

	return major + "." + minor + "." + patch, nil
}
