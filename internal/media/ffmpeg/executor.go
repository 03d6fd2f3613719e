package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// ErrStop is returned by a PipeHandler to terminate the child early once the
// handler has everything it needs. Run treats it as success.
var ErrStop = errors.New("ffmpeg: stop requested")

// PipeHandler consumes one of the child's output pipes. Each handler runs on
// its own goroutine; returning a non-nil error (including ErrStop) kills the
// child. After the handler returns, the pipe is drained so the child never
// blocks on unread output.
type PipeHandler func(r io.Reader) error

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stdout, stderr PipeHandler) error
}

// CommandExecutor runs real child processes.
type CommandExecutor struct{}

// Run starts binary with args and feeds both pipes to the handlers. It always
// reaps the child before returning, on every path.
func (CommandExecutor) Run(ctx context.Context, binary string, args []string, stdout, stderr PipeHandler) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", filepath.Base(binary), err)
	}

	var killOnce sync.Once
	kill := func() {
		killOnce.Do(func() {
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		})
	}

	var wg sync.WaitGroup
	var outErr, errErr error
	consume := func(handler PipeHandler, pipe io.Reader, dst *error) {
		defer wg.Done()
		if handler != nil {
			*dst = handler(pipe)
			if *dst != nil {
				kill()
			}
		}
		_, _ = io.Copy(io.Discard, pipe)
	}

	wg.Add(2)
	go consume(stdout, outPipe, &outErr)
	go consume(stderr, errPipe, &errErr)
	wg.Wait()

	waitErr := cmd.Wait()

	if errors.Is(outErr, ErrStop) || errors.Is(errErr, ErrStop) {
		return nil
	}
	if outErr != nil {
		return outErr
	}
	if errErr != nil {
		return errErr
	}
	if waitErr != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", filepath.Base(binary), ctx.Err())
		}
		return fmt.Errorf("%s: %w", filepath.Base(binary), waitErr)
	}
	return nil
}

// ScanLines adapts a per-line callback into a PipeHandler.
func ScanLines(fn func(line string)) PipeHandler {
	return func(r io.Reader) error {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			fn(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("scan output: %w", err)
		}
		return nil
	}
}

// Tail retains the last few lines fed to it. Decoders point a stderr
// ScanLines at one so decode failures carry ffmpeg's own diagnostics.
type Tail struct {
	mu    sync.Mutex
	limit int
	lines []string
}

// NewTail returns a Tail keeping at most limit lines.
func NewTail(limit int) *Tail {
	if limit <= 0 {
		limit = 5
	}
	return &Tail{limit: limit}
}

// Add appends a line, discarding the oldest over the limit. Blank lines are
// ignored.
func (t *Tail) Add(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, trimmed)
	if len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

// String joins the retained lines for inclusion in an error message.
func (t *Tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "; ")
}
