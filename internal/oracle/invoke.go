package oracle

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// defaultTimeout bounds a single tool invocation when the manifest does not
// set one.
const defaultTimeout = 5 * time.Second

// Tool invokes an external executable, feeding the source text on stdin. A
// run past the timeout is killed and reported as timed out; the classifier
// treats that as a panic-class failure.
type Tool struct {
	Argv    []string
	Timeout time.Duration
}

// NewTool builds an Invoker for the given argv.
func NewTool(argv []string, timeout time.Duration) (*Tool, error) {
	if len(argv) == 0 {
		return nil, errors.New("oracle: tool command is empty")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Tool{Argv: argv, Timeout: timeout}, nil
}

// Invoke runs the tool once. The process is always reaped before returning.
func (t *Tool) Invoke(ctx context.Context, source string) Result {
	cctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	// #nosec G204 -- argv comes from the harness manifest, not fuzz data
	cmd := exec.CommandContext(cctx, t.Argv[0], t.Argv[1:]...)
	cmd.Stdin = strings.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		OK:      err == nil,
		Output:  stdout.String(),
		ErrText: stderr.String(),
	}
	if errors.Is(cctx.Err(), context.DeadlineExceeded) {
		res.OK = false
		res.TimedOut = true
	}
	if err != nil && res.ErrText == "" && !res.TimedOut {
		// No stderr: surface the exec error itself (e.g. exit status).
		res.ErrText = err.Error()
	}
	return res
}
