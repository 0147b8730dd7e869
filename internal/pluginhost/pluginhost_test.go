package pluginhost

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsavage/relocore/internal/corefail"
)

// fakeCapability stands in for a dispensed go-plugin CapabilityPlugin so
// Process.Call can be exercised without spawning a real subprocess.
type fakeCapability struct {
	invoke func(method string, params json.RawMessage) (json.RawMessage, error)
}

func (f *fakeCapability) Invoke(method string, params json.RawMessage) (json.RawMessage, error) {
	return f.invoke(method, params)
}

func newTestProcess(timeout time.Duration, cap CapabilityPlugin) *Process {
	return &Process{name: "testlang", cap: cap, timeout: timeout}
}

func TestCallReturnsResultOnSuccess(t *testing.T) {
	cap := &fakeCapability{invoke: func(method string, params json.RawMessage) (json.RawMessage, error) {
		assert.Equal(t, "RewriteImportsForMove", method)
		return json.RawMessage(`{"new_content":"ok"}`), nil
	}}
	p := newTestProcess(time.Second, cap)

	resp, err := p.Call(context.Background(), "RewriteImportsForMove", map[string]string{"old_path": "a.rs"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"new_content":"ok"}`, string(resp))
}

func TestCallWrapsPluginErrorAsInternalCause(t *testing.T) {
	cap := &fakeCapability{invoke: func(method string, params json.RawMessage) (json.RawMessage, error) {
		return nil, assertError{"boom"}
	}}
	p := newTestProcess(time.Second, cap)

	_, err := p.Call(context.Background(), "Parse", nil)
	require.Error(t, err)
	assert.True(t, corefail.IsKind(err, corefail.PluginCallFailed))
	var cerr *corefail.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, corefail.InternalCause, cerr.Cause)
}

func TestCallTimesOutWhenPluginNeverResponds(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	cap := &fakeCapability{invoke: func(method string, params json.RawMessage) (json.RawMessage, error) {
		<-block
		return json.RawMessage(`{}`), nil
	}}
	p := newTestProcess(10*time.Millisecond, cap)

	_, err := p.Call(context.Background(), "Parse", nil)
	require.Error(t, err)
	assert.True(t, corefail.IsKind(err, corefail.PluginCallFailed))
	var cerr *corefail.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, corefail.TimeoutCause, cerr.Cause)
}

func TestCallFailsImmediatelyWhenContextAlreadyCancelled(t *testing.T) {
	cap := &fakeCapability{invoke: func(method string, params json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`{}`), nil
	}}
	p := newTestProcess(time.Second, cap)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Call(ctx, "Parse", nil)
	require.Error(t, err)
	assert.True(t, corefail.IsKind(err, corefail.Cancelled))
}

func TestSpawnRejectsEmptyCommand(t *testing.T) {
	_, err := Spawn("testlang", nil, Options{})
	require.Error(t, err)
	assert.True(t, corefail.IsKind(err, corefail.InvalidRequest))
}

func TestManagerRegisterIsIdempotentByName(t *testing.T) {
	m := NewManager()
	p := newTestProcess(time.Second, &fakeCapability{})
	m.processes["testlang"] = p

	got, err := m.Register("testlang", nil, Options{})
	require.NoError(t, err)
	assert.Same(t, p, got)
}

func TestManagerShutdownClearsProcesses(t *testing.T) {
	m := NewManager()
	m.processes["testlang"] = newTestProcess(time.Second, &fakeCapability{})

	m.Shutdown()

	_, ok := m.Get("testlang")
	assert.False(t, ok)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
