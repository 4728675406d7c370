package document

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/creastat/contractbot"
	"github.com/creastat/contractbot/form"
	"github.com/creastat/contractbot/latex"
	"github.com/creastat/contractbot/latex/latextest"
	"github.com/creastat/contractbot/sequence"
)

// TestHelperProcess isn't a real test. It's the fake latexmk.
func TestHelperProcess(t *testing.T) {
	latextest.HelperMain()
}

var fixedNow = time.Date(2026, time.October, 15, 9, 30, 0, 0, time.UTC)

func answers() map[string]string {
	return map[string]string{
		form.CustomerFullName:        "Иванов Иван Иванович",
		form.StudentName:             "Иванов Пётр Иванович",
		form.Target:                  "Подготовка к олимпиаде",
		form.EmailAddress:            "ivan@example.com",
		form.Telegram:                "@ivan_petrov",
		form.PassportSeriesAndNumber: "1234 567890",
		form.PassportIssue:           "ОВД района",
		form.PassportIssueDate:       "01.01.2020",
		form.PassportDeptCode:        "123-456",
		form.RegistrationAddress:     "г. Казань, ул. Баумана, д. 2",
	}
}

type fixture struct {
	pipeline *Pipeline
	counter  *sequence.Memory
	workDir  string
	outDir   string
}

func newFixture(t *testing.T, mode latextest.Mode, template string) *fixture {
	t.Helper()
	root := t.TempDir()
	workDir := filepath.Join(root, "work")
	outDir := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(workDir, 0o755))

	tmplPath := filepath.Join(root, "template.tex")
	if template != "" {
		require.NoError(t, os.WriteFile(tmplPath, []byte(template), 0o644))
	}

	compiler := &latex.Compiler{
		Command: latextest.Command(mode),
		Timeout: 300 * time.Millisecond,
		Logger:  zaptest.NewLogger(t),
	}
	counter := sequence.NewMemory(1)
	p := NewPipeline(Config{
		TemplatePath: tmplPath,
		OutputDir:    outDir,
		WorkDir:      workDir,
	}, compiler, counter, WithLogger(zaptest.NewLogger(t)), WithClock(func() time.Time { return fixedNow }))

	return &fixture{pipeline: p, counter: counter, workDir: workDir, outDir: outDir}
}

const simpleTemplate = `\documentclass{article}
\begin{document}
Договор [[ .number_dogovor ]] от [[ .data_dogovor ]], [[ .telegram ]]
\end{document}
`

func (f *fixture) assertNoWorkspaces(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.workDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary workspaces left behind")
}

func (f *fixture) next(t *testing.T) int {
	t.Helper()
	n, err := f.counter.Next(context.Background())
	require.NoError(t, err)
	return n
}

func TestGenerateSuccess(t *testing.T) {
	f := newFixture(t, latextest.Succeed, simpleTemplate)

	art, err := f.pipeline.Generate(context.Background(), answers())
	require.NoError(t, err)

	assert.Equal(t, 1, art.Number)
	assert.Equal(t, "1/10-2026", art.ContractID)
	assert.Equal(t, fixedNow, art.IssuedAt)
	assert.Equal(t, filepath.Join(f.outDir, "dogovor_1.pdf"), art.Path)
	assert.FileExists(t, art.Path)
	assert.Equal(t, 2, f.next(t))
	f.assertNoWorkspaces(t)

	art2, err := f.pipeline.Generate(context.Background(), answers())
	require.NoError(t, err)
	assert.Equal(t, 2, art2.Number)
	assert.Equal(t, filepath.Join(f.outDir, "dogovor_2.pdf"), art2.Path)
}

func TestGenerateCompileFailuresKeepNumber(t *testing.T) {
	modes := []latextest.Mode{latextest.Fail, latextest.NoOutput, latextest.Hang}
	for _, mode := range modes {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t, mode, simpleTemplate)

			art, err := f.pipeline.Generate(context.Background(), answers())
			assert.Nil(t, art)
			assert.ErrorIs(t, err, contractbot.ErrCompile)
			assert.True(t, IsPipelineFailure(err))

			assert.Equal(t, 1, f.next(t))
			f.assertNoWorkspaces(t)
			assert.NoFileExists(t, filepath.Join(f.outDir, FileName(1)))
		})
	}
}

func TestGenerateTimeoutIsReported(t *testing.T) {
	f := newFixture(t, latextest.Hang, simpleTemplate)

	_, err := f.pipeline.Generate(context.Background(), answers())
	assert.ErrorIs(t, err, latex.ErrTimeout)
}

func TestGenerateMissingTemplate(t *testing.T) {
	f := newFixture(t, latextest.Succeed, "")

	_, err := f.pipeline.Generate(context.Background(), answers())
	assert.ErrorIs(t, err, contractbot.ErrTemplateLoad)
	assert.Equal(t, 1, f.next(t))
	f.assertNoWorkspaces(t)
}

func TestGenerateRenderFailure(t *testing.T) {
	f := newFixture(t, latextest.Succeed, `[[ .no_such_key ]]`)

	_, err := f.pipeline.Generate(context.Background(), answers())
	assert.ErrorIs(t, err, contractbot.ErrRender)
	assert.Equal(t, 1, f.next(t))
	f.assertNoWorkspaces(t)
}

func TestFailedAttemptNumberIsReused(t *testing.T) {
	root := t.TempDir()
	tmplPath := filepath.Join(root, "template.tex")
	require.NoError(t, os.WriteFile(tmplPath, []byte(simpleTemplate), 0o644))

	counter := sequence.NewMemory(1)
	cfg := Config{TemplatePath: tmplPath, OutputDir: root, WorkDir: root}

	failing := NewPipeline(cfg, &latex.Compiler{Command: latextest.Command(latextest.Fail)}, counter)
	_, err := failing.Generate(context.Background(), answers())
	require.Error(t, err)

	working := NewPipeline(cfg, &latex.Compiler{Command: latextest.Command(latextest.Succeed)}, counter)
	art, err := working.Generate(context.Background(), answers())
	require.NoError(t, err)
	assert.Equal(t, 1, art.Number)
}

func TestShippedTemplateCompiles(t *testing.T) {
	root := t.TempDir()
	p := NewPipeline(Config{
		TemplatePath: filepath.Join("..", "templates", "contract.tex"),
		OutputDir:    root,
		WorkDir:      root,
	}, &latex.Compiler{Command: latextest.Command(latextest.Succeed)}, sequence.NewMemory(41))

	art, err := p.Generate(context.Background(), answers())
	require.NoError(t, err)
	assert.Equal(t, 41, art.Number)
	assert.Equal(t, "dogovor_41.pdf", filepath.Base(art.Path))
}

func TestTail(t *testing.T) {
	assert.Equal(t, "abc", tail("abc", 5))
	assert.Equal(t, "...de", tail("abcde", 2))
}
