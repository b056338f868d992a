/*
* Handles invoking external tools as subprocesses.
*
* Everything git-voodoo learns, it learns by running git (or one of the other
* patch-workflow tools) and reading the output. We never link libgit2 or
* reimplement any plumbing ourselves.
 */
package run

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"os/exec"
	"strings"
)

// SubprocessErr reports a child process that exited nonzero, carrying
// whatever it wrote to stderr.
type SubprocessErr struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (err SubprocessErr) Error() string {
	if err.Stderr == "" {
		return fmt.Sprintf(
			"%s subprocess exited with code %d",
			err.Command,
			err.ExitCode,
		)
	}

	return fmt.Sprintf(
		"%s subprocess exited with code %d. Error output:\n%s",
		err.Command,
		err.ExitCode,
		err.Stderr,
	)
}

func (err SubprocessErr) Unwrap() error {
	return err.Err
}

// Subprocess is a started child process with its output piped back to us.
// Read everything you need from stdout, then call Wait.
type Subprocess struct {
	cmd    *exec.Cmd
	name   string
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
}

func (s Subprocess) StdinWriter() (_ *bufio.Writer, closer func() error) {
	return bufio.NewWriter(s.stdin), func() error {
		return s.stdin.Close()
	}
}

// StdoutText reads all of stdout as one whitespace-trimmed string.
func (s Subprocess) StdoutText() (string, error) {
	b, err := io.ReadAll(s.stdout)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}

// scan returns a single-use iterator over tokens scanned from stdout, plus a
// finish() function that reports any scan error once iteration is over. A
// nil split scans lines; a non-nil clean is applied to every token.
func (s Subprocess) scan(
	split bufio.SplitFunc,
	clean func(string) string,
) (iter.Seq[string], func() error) {
	var scanErr error

	tokens := func(yield func(string) bool) {
		scanner := bufio.NewScanner(s.stdout)
		if split != nil {
			scanner.Split(split)
		}

		for scanner.Scan() {
			token := scanner.Text()
			if clean != nil {
				token = clean(token)
			}

			if !yield(token) {
				return
			}
		}

		scanErr = scanner.Err()
	}

	finish := func() error {
		if scanErr != nil {
			return fmt.Errorf("error scanning subprocess output: %w", scanErr)
		}

		return nil
	}

	return tokens, finish
}

// StdoutLines iterates over the output of the command, line by line.
func (s Subprocess) StdoutLines() (iter.Seq[string], func() error) {
	return s.scan(nil, nil)
}

// splitNul is a bufio.SplitFunc that cuts the input at NUL bytes.
func splitNul(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.IndexByte(data, '\x00'); i >= 0 {
		return i + 1, data[:i], nil
	}

	if atEOF {
		return 0, data, bufio.ErrFinalToken
	}

	return 0, nil, nil
}

// StdoutTokens iterates over NUL-separated tokens, the format we ask git log
// for. git log -z leaves a newline between the message terminator and any
// --numstat block; that newline is stripped so tokens arrive clean.
func (s Subprocess) StdoutTokens() (iter.Seq[string], func() error) {
	clean := func(token string) string {
		return strings.TrimPrefix(token, "\n")
	}

	return s.scan(splitNul, clean)
}

// Wait drains stderr and reaps the child. Call once, after reading stdout.
func (s Subprocess) Wait() error {
	logger().Debug("waiting for subprocess...")

	stderr, err := io.ReadAll(s.stderr)
	if err != nil {
		return fmt.Errorf("could not read stderr: %w", err)
	}

	err = s.cmd.Wait()
	code := s.cmd.ProcessState.ExitCode()
	logger().Debug("subprocess exited", "code", code)

	if err != nil {
		return SubprocessErr{
			Command:  s.name,
			ExitCode: code,
			Stderr:   strings.TrimSpace(string(stderr)),
			Err:      err,
		}
	}

	return nil
}

// Starts a subprocess with its output piped back to us.
//
// The dir argument sets the working directory of the child; an empty string
// means we inherit our own.
func Start(
	ctx context.Context,
	dir string,
	exe string,
	args []string,
	needStdin bool,
) (*Subprocess, error) {
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = dir
	logger().Debug("running subprocess", "cmd", cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	var stdin io.WriteCloser
	if needStdin {
		stdin, err = cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("failed to open stdin pipe: %w", err)
		}
	}

	err = cmd.Start()
	if err != nil {
		return nil, fmt.Errorf("failed to start subprocess: %w", err)
	}

	return &Subprocess{
		cmd:    cmd,
		name:   exe,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// Runs a subprocess connected to our own stdin, stdout, and stderr.
//
// This is for children like git send-email that talk to the user themselves.
// Blocks until the child exits.
func Attached(
	ctx context.Context,
	dir string,
	extraEnv []string,
	exe string,
	args ...string,
) error {
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	logger().Debug("running attached subprocess", "cmd", cmd)

	err := cmd.Run()
	if err != nil {
		code := -1
		if cmd.ProcessState != nil { // Nil when the child never started
			code = cmd.ProcessState.ExitCode()
		}

		return SubprocessErr{
			Command:  exe,
			ExitCode: code,
			Err:      err,
		}
	}

	logger().Debug(
		"attached subprocess exited",
		"code",
		cmd.ProcessState.ExitCode(),
	)

	return nil
}
