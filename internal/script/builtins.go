package script

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.starlark.net/starlark"
)

// execContextKey is the thread-local slot holding the call's execContext.
// The builtin names must be predeclared at load time for identifier
// resolution, but the context behind them exists only during a call, so every
// builtin dispatches through the thread local.
const execContextKey = "sandscript.exec"

// ioBuiltins returns the gated I/O builtins shared by every script. Each one
// resolves the current execContext from the thread and consults the grant at
// the moment of the access attempt. Outside a call (module load) they fail.
func ioBuiltins() starlark.StringDict {
	return starlark.StringDict{
		"read_file":  starlark.NewBuiltin("read_file", readFile),
		"write_file": starlark.NewBuiltin("write_file", writeFile),
		"list_dir":   starlark.NewBuiltin("list_dir", listDir),
		"http_get":   starlark.NewBuiltin("http_get", httpGet),
		"http_post":  starlark.NewBuiltin("http_post", httpPost),
		"env":        starlark.NewBuiltin("env", envLookup),
	}
}

// currentExec returns the execContext of the running call, or an error when
// the builtin is invoked at module load time where no capability exists.
func currentExec(thread *starlark.Thread, name string) (*execContext, error) {
	ec, ok := thread.Local(execContextKey).(*execContext)
	if !ok {
		return nil, fmt.Errorf("%s: not available at module load time", name)
	}
	return ec, nil
}

// readFile returns the contents of a path matched by the read allow-list.
func readFile(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	ec, err := currentExec(thread, b.Name())
	if err != nil {
		return nil, err
	}
	var path string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "path", &path); err != nil {
		return nil, err
	}

	resolved, err := ec.grant.CheckRead(path)
	if err != nil {
		return nil, ec.deny(err)
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("read_file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(ec.maxBytes)+1))
	if err != nil {
		return nil, fmt.Errorf("read_file: %w", err)
	}
	if len(data) > ec.maxBytes {
		return nil, fmt.Errorf("read_file: %s exceeds the %d byte limit", path, ec.maxBytes)
	}

	return starlark.String(data), nil
}

// writeFile writes data to a path matched by the write allow-list.
// Write access does not imply read access.
func writeFile(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	ec, err := currentExec(thread, b.Name())
	if err != nil {
		return nil, err
	}
	var path, data string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "path", &path, "data", &data); err != nil {
		return nil, err
	}

	resolved, err := ec.grant.CheckWrite(path)
	if err != nil {
		return nil, ec.deny(err)
	}

	if err := os.WriteFile(resolved, []byte(data), 0o644); err != nil {
		return nil, fmt.Errorf("write_file: %w", err)
	}
	return starlark.None, nil
}

// listDir lists the entries of a directory matched by the read allow-list.
func listDir(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	ec, err := currentExec(thread, b.Name())
	if err != nil {
		return nil, err
	}
	var path string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "path", &path); err != nil {
		return nil, err
	}

	resolved, err := ec.grant.CheckRead(path)
	if err != nil {
		return nil, ec.deny(err)
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, fmt.Errorf("list_dir: %w", err)
	}

	names := make([]starlark.Value, 0, len(entries))
	for _, entry := range entries {
		names = append(names, starlark.String(entry.Name()))
	}
	return starlark.NewList(names), nil
}

// httpGet performs a GET request when the network capability is granted.
func httpGet(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	ec, err := currentExec(thread, b.Name())
	if err != nil {
		return nil, err
	}
	var url string
	var headers *starlark.Dict
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "url", &url, "headers?", &headers); err != nil {
		return nil, err
	}
	return ec.doRequest(http.MethodGet, url, "", headers)
}

// httpPost performs a POST request when the network capability is granted.
func httpPost(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	ec, err := currentExec(thread, b.Name())
	if err != nil {
		return nil, err
	}
	var url, body string
	var headers *starlark.Dict
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "url", &url, "body", &body, "headers?", &headers); err != nil {
		return nil, err
	}
	return ec.doRequest(http.MethodPost, url, body, headers)
}

// doRequest is the shared gated HTTP path. The request inherits the call's
// context, so the engine's deadline also bounds network waits.
func (ec *execContext) doRequest(method, url, body string, headers *starlark.Dict) (starlark.Value, error) {
	if err := ec.grant.CheckNetwork(url); err != nil {
		return nil, ec.deny(err)
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ec.ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", strings.ToLower(method), err)
	}

	if headers != nil {
		for _, item := range headers.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				return nil, fmt.Errorf("headers: key %s is not a string", item[0].String())
			}
			value, ok := starlark.AsString(item[1])
			if !ok {
				return nil, fmt.Errorf("headers: value for %q is not a string", key)
			}
			req.Header.Set(key, value)
		}
	}

	resp, err := ec.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", strings.ToLower(method), url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(ec.maxBytes)))
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading body: %w", strings.ToLower(method), url, err)
	}

	result := starlark.NewDict(2)
	_ = result.SetKey(starlark.String("status"), starlark.MakeInt(resp.StatusCode))
	_ = result.SetKey(starlark.String("body"), starlark.String(data))
	return result, nil
}

// envLookup looks up an environment variable when the env capability is
// granted. Absent variables return the default (None unless given).
func envLookup(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	ec, err := currentExec(thread, b.Name())
	if err != nil {
		return nil, err
	}
	var name string
	var fallback starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "default?", &fallback); err != nil {
		return nil, err
	}

	value, ok, err := ec.grant.Env(name)
	if err != nil {
		return nil, ec.deny(err)
	}
	if !ok {
		return fallback, nil
	}
	return starlark.String(value), nil
}
