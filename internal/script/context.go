package script

import (
	"context"
	"net/http"
	"strings"

	"go.starlark.net/starlark"

	"github.com/flemzord/sandscript/internal/sandbox"
)

// execContext is the isolated runtime for exactly one call. It is created
// fresh per execution, holds the call's capability grant, and is destroyed
// unconditionally when the call returns — it must never outlive its
// invocation or be shared between calls.
type execContext struct {
	ctx      context.Context
	thread   *starlark.Thread
	grant    *sandbox.Grant
	client   *http.Client
	maxBytes int

	printBuf strings.Builder

	// denied records the first capability refusal so the engine can surface
	// it even if the script swallows or rewraps the builtin error.
	denied error
}

// newExecContext builds the context for one invocation. All script I/O goes
// through the predeclared builtins, each of which consults the grant at the
// moment of the access attempt.
func newExecContext(ctx context.Context, name string, grant *sandbox.Grant, maxBytes int) *execContext {
	ec := &execContext{
		ctx:      ctx,
		grant:    grant,
		client:   &http.Client{},
		maxBytes: maxBytes,
	}
	ec.thread = &starlark.Thread{
		Name: "exec:" + name,
		Print: func(_ *starlark.Thread, msg string) {
			if ec.printBuf.Len() < ec.maxBytes {
				ec.printBuf.WriteString(msg)
				ec.printBuf.WriteByte('\n')
			}
		},
	}
	ec.thread.SetLocal(execContextKey, ec)
	return ec
}

// deny records the first refusal and passes the error through.
func (ec *execContext) deny(err error) error {
	if ec.denied == nil {
		ec.denied = err
	}
	return err
}

// close releases the context's resources. Called on every exit path.
func (ec *execContext) close() {
	ec.client.CloseIdleConnections()
}
