// Package latex runs latexmk against a source file in a working directory.
package latex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Defaults mirror the reference deployment.
const (
	DefaultBinary         = "latexmk"
	DefaultEngine         = "pdflatex"
	DefaultTimeout        = 120 * time.Second
	DefaultMaxOutputBytes = 64 * 1024
)

var (
	// ErrTimeout means the compiler was killed after its time budget.
	ErrTimeout = errors.New("latex: compiler timed out")

	// ErrMissingOutput means the compiler exited 0 without the expected PDF.
	ErrMissingOutput = errors.New("latex: expected output missing")
)

// ExitError reports a non-zero compiler exit.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("latex: compiler exited with status %d", e.Code)
}

// Job describes one compilation.
type Job struct {
	// Dir is the working directory; the PDF is written there.
	Dir string

	// Source is the .tex file name relative to Dir.
	Source string

	// Name is the job name; the output is Dir/Name.pdf.
	Name string
}

// OutputPath is where a successful job leaves its PDF.
func (j Job) OutputPath() string {
	return filepath.Join(j.Dir, j.Name+".pdf")
}

// Result is the diagnostic record of a compiler run.
type Result struct {
	ExitCode  int
	Stdout    string
	Stderr    string
	Duration  time.Duration
	TimedOut  bool
	Truncated bool
	Output    string
}

// Compiler invokes latexmk with a bounded run time.
type Compiler struct {
	// Binary is the latexmk executable.
	Binary string

	// Engine is the pdflatex-compatible engine latexmk drives.
	Engine string

	// Timeout bounds a single run.
	Timeout time.Duration

	// MaxOutputBytes caps captured stdout and stderr each.
	MaxOutputBytes int64

	// Command builds the process. Defaults to exec.CommandContext.
	Command func(ctx context.Context, name string, args ...string) *exec.Cmd

	Logger *zap.Logger
}

// Args returns the latexmk argument list for job.
func (c *Compiler) Args(job Job) []string {
	engine := c.Engine
	if engine == "" {
		engine = DefaultEngine
	}
	return []string{
		"-pdf",
		fmt.Sprintf("-pdflatex=%s -interaction=nonstopmode -jobname=%s %%O %%S", engine, job.Name),
		job.Source,
	}
}

// Compile runs the compiler for job. The returned Result is non-nil whenever
// the process was started, including on failure, so callers can log it.
func (c *Compiler) Compile(ctx context.Context, job Job) (*Result, error) {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	binary := c.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxOutput := c.MaxOutputBytes
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputBytes
	}
	command := c.Command
	if command == nil {
		command = exec.CommandContext
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := command(execCtx, binary, c.Args(job)...)
	cmd.Dir = job.Dir
	cmd.WaitDelay = time.Second

	var stdoutBuf, stderrBuf bytes.Buffer
	stdout := &limitedWriter{w: &stdoutBuf, max: maxOutput}
	stderr := &limitedWriter{w: &stderrBuf, max: maxOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logger.Debug("starting compiler",
		zap.String("binary", binary),
		zap.String("dir", job.Dir),
		zap.String("job", job.Name),
		zap.Duration("timeout", timeout))

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		ExitCode:  -1,
		Stdout:    stdoutBuf.String(),
		Stderr:    stderrBuf.String(),
		Duration:  time.Since(start),
		Truncated: stdout.truncated || stderr.truncated,
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(execCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			result.TimedOut = true
			return result, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		case ctx.Err() != nil:
			return result, ctx.Err()
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
			return result, &ExitError{Code: result.ExitCode}
		default:
			return result, fmt.Errorf("latex: run %s: %w", binary, err)
		}
	}
	result.ExitCode = 0

	out := job.OutputPath()
	info, err := os.Stat(out)
	if err != nil || info.IsDir() {
		return result, fmt.Errorf("%w: %s", ErrMissingOutput, out)
	}
	result.Output = out

	logger.Debug("compiler finished",
		zap.String("job", job.Name),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// limitedWriter is an io.Writer that limits total bytes kept.
type limitedWriter struct {
	w         *bytes.Buffer
	max       int64
	written   int64
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.written >= lw.max {
		lw.truncated = true
		return n, nil
	}
	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		p = p[:remaining]
	}
	written, err := lw.w.Write(p)
	lw.written += int64(written)
	if err != nil {
		return written, err
	}
	// Report the full length so the process never sees a short write.
	return n, nil
}
