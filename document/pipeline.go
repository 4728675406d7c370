// Package document turns a completed questionnaire into a numbered contract
// PDF.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creastat/contractbot"
	"github.com/creastat/contractbot/latex"
	"github.com/creastat/contractbot/render"
	"github.com/creastat/contractbot/sequence"
)

const (
	DefaultJobName    = "dogovor"
	DefaultSourceName = "dogovor.tex"
)

// Compiler turns a source file into a PDF.
type Compiler interface {
	Compile(ctx context.Context, job latex.Job) (*latex.Result, error)
}

// Artifact is a compiled contract on durable storage. The caller owns the
// file and must delete it once it has been delivered.
type Artifact struct {
	Path       string
	Number     int
	ContractID string
	IssuedAt   time.Time
}

// Config holds pipeline settings.
type Config struct {
	// TemplatePath is the contract template, read on every attempt.
	TemplatePath string

	// LeftDelim and RightDelim are the template action delimiters.
	LeftDelim  string
	RightDelim string

	// OutputDir receives dogovor_{N}.pdf.
	OutputDir string

	// WorkDir is where per-attempt temporary workspaces are created.
	// Empty means the OS temp dir.
	WorkDir string

	// JobName is the compiler job name; SourceName the rendered file name.
	JobName    string
	SourceName string

	// MaxLogBytes caps compiler output included in failure logs.
	MaxLogBytes int
}

// Pipeline renders, compiles and numbers contracts.
type Pipeline struct {
	cfg      Config
	compiler Compiler
	counter  sequence.Counter
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the generation date source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPipeline creates a pipeline.
func NewPipeline(cfg Config, compiler Compiler, counter sequence.Counter, opts ...Option) *Pipeline {
	if cfg.JobName == "" {
		cfg.JobName = DefaultJobName
	}
	if cfg.SourceName == "" {
		cfg.SourceName = DefaultSourceName
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.MaxLogBytes <= 0 {
		cfg.MaxLogBytes = 4096
	}
	p := &Pipeline{
		cfg:      cfg,
		compiler: compiler,
		counter:  counter,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FileName is the final artifact name for a contract number.
func FileName(number int) string {
	return fmt.Sprintf("dogovor_%d.pdf", number)
}

// Generate produces the contract for answers. The contract number is
// consumed only when the returned error is nil. No temporary files survive
// the call on any path.
func (p *Pipeline) Generate(ctx context.Context, answers map[string]string) (*Artifact, error) {
	logger := p.logger.With(zap.String("attempt", uuid.NewString()))

	tmpl, err := render.LoadTemplate(p.cfg.TemplatePath, p.cfg.LeftDelim, p.cfg.RightDelim)
	if err != nil {
		logger.Error("template load failed", zap.String("path", p.cfg.TemplatePath), zap.Error(err))
		return nil, err
	}

	reservation, err := p.counter.Reserve(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserve contract number: %w", err)
	}
	defer reservation.Release()
	logger = logger.With(zap.Int("contract_number", reservation.Number))

	now := p.now()
	rc := render.Build(answers, reservation.Number, now)
	source, err := tmpl.Execute(rc)
	if err != nil {
		logger.Error("template render failed", zap.Error(err))
		return nil, err
	}

	workspace, err := os.MkdirTemp(p.cfg.WorkDir, "contract-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create workspace: %v", contractbot.ErrCompile, err)
	}
	defer func() {
		if err := os.RemoveAll(workspace); err != nil {
			logger.Warn("workspace cleanup failed", zap.String("dir", workspace), zap.Error(err))
		}
	}()

	if err := os.WriteFile(filepath.Join(workspace, p.cfg.SourceName), []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("%w: write source: %v", contractbot.ErrCompile, err)
	}

	job := latex.Job{Dir: workspace, Source: p.cfg.SourceName, Name: p.cfg.JobName}
	res, err := p.compiler.Compile(ctx, job)
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if res != nil {
			fields = append(fields,
				zap.Int("exit_code", res.ExitCode),
				zap.Bool("timed_out", res.TimedOut),
				zap.Duration("duration", res.Duration),
				zap.String("stdout", tail(res.Stdout, p.cfg.MaxLogBytes)),
				zap.String("stderr", tail(res.Stderr, p.cfg.MaxLogBytes)))
		}
		logger.Error("contract compilation failed", fields...)
		return nil, fmt.Errorf("%w: %w", contractbot.ErrCompile, err)
	}

	final, err := filepath.Abs(filepath.Join(p.cfg.OutputDir, FileName(reservation.Number)))
	if err != nil {
		return nil, fmt.Errorf("%w: resolve output path: %v", contractbot.ErrCompile, err)
	}
	if err := copyFile(job.OutputPath(), final); err != nil {
		_ = os.Remove(final)
		logger.Error("artifact copy failed", zap.String("path", final), zap.Error(err))
		return nil, fmt.Errorf("%w: copy artifact: %v", contractbot.ErrCompile, err)
	}

	if err := reservation.Commit(); err != nil {
		_ = os.Remove(final)
		logger.Error("contract number commit failed", zap.Error(err))
		return nil, fmt.Errorf("commit contract number: %w", err)
	}

	logger.Info("contract generated",
		zap.String("path", final),
		zap.String("contract_id", rc[render.KeyNumber]),
		zap.Duration("compile", res.Duration))

	return &Artifact{
		Path:       final,
		Number:     reservation.Number,
		ContractID: rc[render.KeyNumber],
		IssuedAt:   now,
	}, nil
}

// copyFile copies src to dst and syncs dst to disk.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// tail keeps the last n bytes of s, where latexmk prints the actual error.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

// IsPipelineFailure reports whether err belongs to the document failure
// taxonomy rather than an infrastructure problem such as a canceled context.
func IsPipelineFailure(err error) bool {
	return errors.Is(err, contractbot.ErrTemplateLoad) ||
		errors.Is(err, contractbot.ErrRender) ||
		errors.Is(err, contractbot.ErrCompile)
}
