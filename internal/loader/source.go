package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sdpower/ctxgw-report/internal/logger"
	"github.com/sdpower/ctxgw-report/internal/types"
)

const (
	// DefaultRequestPath and DefaultCompressionPath are the log locations inside the gateway container.
	DefaultRequestPath     = "/app/logs/telemetry.jsonl"
	DefaultCompressionPath = "/app/logs/compression.jsonl"

	// DefaultService is the docker compose service name of the gateway.
	DefaultService = "context-gateway"

	compressionFileName = "compression.jsonl"
)

// Source provides the raw text of both gateway logs.
type Source interface {
	RequestLog(ctx context.Context) ([]byte, error)
	CompressionLog(ctx context.Context) ([]byte, error)
	Describe() string
}

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the command with os/exec. Stderr is folded into the error.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// FileSource reads a local request log. The compression log is expected next
// to it as compression.jsonl and may be missing.
type FileSource struct {
	RequestPath string
}

func (s FileSource) RequestLog(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.RequestPath)
	if err != nil {
		return nil, types.LoaderError{Path: s.RequestPath, Err: err}
	}
	return data, nil
}

func (s FileSource) CompressionLog(ctx context.Context) ([]byte, error) {
	path := s.CompressionPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("no compression log next to request log", "path", path)
			return nil, nil
		}
		return nil, types.LoaderError{Path: path, Err: err}
	}
	return data, nil
}

// CompressionPath returns the expected location of the compression log.
func (s FileSource) CompressionPath() string {
	return filepath.Join(filepath.Dir(s.RequestPath), compressionFileName)
}

func (s FileSource) Describe() string {
	return "file " + s.RequestPath
}

// ContainerSource reads both logs out of a running gateway container.
type ContainerSource struct {
	Container       string
	RequestPath     string
	CompressionPath string
	Runner          Runner
}

func (s ContainerSource) RequestLog(ctx context.Context) ([]byte, error) {
	data, err := s.cat(ctx, s.RequestPath)
	if err != nil {
		return nil, types.LoaderError{Path: s.Container + ":" + s.RequestPath, Err: err}
	}
	return data, nil
}

// CompressionLog returns an empty log when the file cannot be read; older
// gateways do not write it.
func (s ContainerSource) CompressionLog(ctx context.Context) ([]byte, error) {
	data, err := s.cat(ctx, s.CompressionPath)
	if err != nil {
		logger.Warn("compression log unavailable, size analysis skipped",
			"container", s.Container, "path", s.CompressionPath, "error", err)
		return nil, nil
	}
	return data, nil
}

func (s ContainerSource) Describe() string {
	return "container " + s.Container
}

func (s ContainerSource) cat(ctx context.Context, path string) ([]byte, error) {
	run := s.Runner
	if run == nil {
		run = ExecRunner
	}
	return run(ctx, "docker", "exec", s.Container, "cat", path)
}

// FindContainer returns the id of the running compose container for service.
func FindContainer(ctx context.Context, run Runner, service string) (string, error) {
	if run == nil {
		run = ExecRunner
	}

	out, err := run(ctx, "docker", "compose", "ps", "-q", service)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrNoContainer, err)
	}

	// One id per line when the service is scaled; the first is enough.
	for _, line := range strings.Split(string(out), "\n") {
		if id := strings.TrimSpace(line); id != "" {
			return id, nil
		}
	}
	return "", types.ErrNoContainer
}

// ResolveOptions controls how Resolve picks a log source.
type ResolveOptions struct {
	Service         string
	RequestPath     string
	CompressionPath string
	Runner          Runner
}

// Resolve picks a Source for arg: an existing file is read locally, anything
// else names a container. With no arg the compose service container is used.
func Resolve(ctx context.Context, arg string, opts ResolveOptions) (Source, error) {
	if arg != "" {
		if info, err := os.Stat(arg); err == nil && !info.IsDir() {
			return FileSource{RequestPath: arg}, nil
		}
	}

	if opts.RequestPath == "" {
		opts.RequestPath = DefaultRequestPath
	}
	if opts.CompressionPath == "" {
		opts.CompressionPath = DefaultCompressionPath
	}
	if opts.Service == "" {
		opts.Service = DefaultService
	}

	container := arg
	if container == "" {
		id, err := FindContainer(ctx, opts.Runner, opts.Service)
		if err != nil {
			return nil, fmt.Errorf("%w\nUsage: ctxgw-report report [telemetry.jsonl | container]: %w", types.ErrNoLogSource, err)
		}
		container = id
	}

	return ContainerSource{
		Container:       container,
		RequestPath:     opts.RequestPath,
		CompressionPath: opts.CompressionPath,
		Runner:          opts.Runner,
	}, nil
}
