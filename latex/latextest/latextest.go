// Package latextest provides a fake latexmk for tests, built on the
// re-executed test binary pattern.
//
// A test package wires it up with:
//
//	func TestHelperProcess(t *testing.T) { latextest.HelperMain() }
//
// and points latex.Compiler.Command at latextest.Command(mode).
package latextest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"time"
)

const (
	envWant = "GO_WANT_HELPER_PROCESS"
	envMode = "FAKE_LATEX_MODE"
)

// Mode selects how the fake compiler behaves.
type Mode string

const (
	Succeed  Mode = "succeed"
	Fail     Mode = "fail"
	NoOutput Mode = "no-output"
	Hang     Mode = "hang"
)

// FailureExitCode is the status a Fail run exits with.
const FailureExitCode = 12

var jobNamePattern = regexp.MustCompile(`-jobname=(\S+)`)

// Command returns a latex.Compiler.Command that re-executes the running
// test binary as a fake latexmk.
func Command(mode Mode) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), envWant+"=1", envMode+"="+string(mode))
		return cmd
	}
}

// HelperMain emulates latexmk when the process was started by Command and
// returns immediately otherwise.
func HelperMain() {
	if os.Getenv(envWant) != "1" {
		return
	}

	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}

	job := "texput"
	var source string
	for _, arg := range args {
		if m := jobNamePattern.FindStringSubmatch(arg); m != nil {
			job = m[1]
		}
		if filepath.Ext(arg) == ".tex" {
			source = arg
		}
	}

	switch Mode(os.Getenv(envMode)) {
	case Succeed:
		src, err := os.ReadFile(source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot read source %q: %v\n", source, err)
			os.Exit(2)
		}
		pdf := fmt.Sprintf("%%PDF-1.4\n%% fake render of %d bytes\n", len(src))
		if err := os.WriteFile(job+".pdf", []byte(pdf), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "cannot write output: %v\n", err)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stdout, "Latexmk: All targets are up-to-date")
		os.Exit(0)
	case Fail:
		fmt.Fprintln(os.Stdout, "! Undefined control sequence.")
		fmt.Fprintln(os.Stderr, "Latexmk: Errors, so I did not complete making targets")
		os.Exit(FailureExitCode)
	case NoOutput:
		fmt.Fprintln(os.Stdout, "Latexmk: Nothing to do")
		os.Exit(0)
	case Hang:
		time.Sleep(time.Minute)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", os.Getenv(envMode))
		os.Exit(2)
	}
}
