// Package pluginhost implements the Out-of-process Plugin Host (spec.md
// §4.I): it spawns a subprocess per out-of-process language plugin
// definition, completes a handshake over stdio, and forwards capability
// calls to it, failing calls that exceed a configurable timeout and
// calls made after the subprocess exits.
//
// Grounded on
// _examples/original_source/crates/cb-plugins/src/process_manager.rs's
// PluginProcess/PluginProcessManager: spawn-on-first-use registration
// keyed by plugin name, a single in-flight call returning a result or a
// timeout/channel-closed error, and a dedicated stderr-reading task that
// surfaces every line as a log record tagged with the plugin's name.
// This package reproduces that shape using
// github.com/hashicorp/go-plugin's net/rpc transport (already a direct,
// previously-unwired dependency in the teacher's go.mod) instead of
// hand-rolling the line-delimited JSON-RPC framing, request-ID counter,
// and pending-request map process_manager.rs implements itself: a
// *rpc.Client already owns that exact bookkeeping, and go-plugin's
// Logger option already drains the subprocess's stderr, so there is
// nothing left here to reimplement for either concern.
package pluginhost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/rpc"
	"os/exec"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"

	"github.com/nsavage/relocore/internal/corefail"
)

// Handshake is the magic-cookie handshake every relocore plugin binary
// and the host must agree on before any capability call is accepted.
var Handshake = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "RELOCORE_PLUGIN",
	MagicCookieValue: "capability-host",
}

// DefaultTimeout is spec.md §4.I's default out-of-process call deadline.
const DefaultTimeout = 30 * time.Second

// pluginMapKey is the single entry relocore registers in go-plugin's
// Plugins map; one subprocess hosts exactly one language plugin.
const pluginMapKey = "capability"

// InvokeArgs is the net/rpc request envelope: a capability method name
// (matching the langplugin.Plugin method it stands in for, e.g.
// "RewriteImportsForMove") and its JSON-encoded parameters.
type InvokeArgs struct {
	Method string
	Params json.RawMessage
}

// CapabilityPlugin is the interface an out-of-process plugin binary
// implements. A single Invoke dispatches by method name rather than
// exposing one net/rpc method per langplugin.Plugin capability, mirroring
// process_manager.rs's generic `call(method, params: Value)`.
type CapabilityPlugin interface {
	Invoke(method string, params json.RawMessage) (json.RawMessage, error)
}

// rpcClient adapts a *rpc.Client to CapabilityPlugin for the host side.
type rpcClient struct{ client *rpc.Client }

func (c *rpcClient) Invoke(method string, params json.RawMessage) (json.RawMessage, error) {
	var resp json.RawMessage
	err := c.client.Call("Plugin.Invoke", InvokeArgs{Method: method, Params: params}, &resp)
	return resp, err
}

// rpcServer adapts a CapabilityPlugin implementation to a net/rpc service
// for the plugin-subprocess side.
type rpcServer struct{ Impl CapabilityPlugin }

func (s *rpcServer) Invoke(args InvokeArgs, resp *json.RawMessage) error {
	result, err := s.Impl.Invoke(args.Method, args.Params)
	if err != nil {
		return err
	}
	*resp = result
	return nil
}

// GoPlugin is the go-plugin plugin.Plugin implementation shared by both
// the host process (Client side) and an out-of-process plugin binary
// (Server side, constructed with Impl set).
type GoPlugin struct{ Impl CapabilityPlugin }

func (p *GoPlugin) Server(*goplugin.MuxBroker) (interface{}, error) {
	return &rpcServer{Impl: p.Impl}, nil
}

func (p *GoPlugin) Client(_ *goplugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &rpcClient{client: c}, nil
}

// Options configures a single plugin registration.
type Options struct {
	// Timeout bounds a single Call; zero uses DefaultTimeout.
	Timeout time.Duration
	// Logger receives the subprocess's stderr, tagged with the plugin
	// name, the way process_manager.rs's stderr task logs every line
	// through tracing::warn. Defaults to an hclog.Logger named after the
	// plugin at Warn level.
	Logger hclog.Logger
}

// Process is a running out-of-process plugin: a spawned subprocess
// reachable as a CapabilityPlugin over go-plugin's net/rpc transport.
type Process struct {
	name    string
	client  *goplugin.Client
	cap     CapabilityPlugin
	timeout time.Duration
}

// Spawn starts command as a plugin subprocess and completes the
// go-plugin handshake.
func Spawn(name string, command []string, opts Options) (*Process, error) {
	if len(command) == 0 {
		return nil, corefail.New(corefail.InvalidRequest, "plugin %s: command cannot be empty", name)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.New(&hclog.LoggerOptions{Name: name, Level: hclog.Warn})
	}

	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig:  Handshake,
		Plugins:          map[string]goplugin.Plugin{pluginMapKey: &GoPlugin{}},
		Cmd:              exec.Command(command[0], command[1:]...),
		AllowedProtocols: []goplugin.Protocol{goplugin.ProtocolNetRPC},
		Logger:           logger,
	})

	protocol, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, corefail.PluginFailure(corefail.InternalCause, name, err).WithPlugin(name)
	}
	raw, err := protocol.Dispense(pluginMapKey)
	if err != nil {
		client.Kill()
		return nil, corefail.PluginFailure(corefail.InternalCause, name, err).WithPlugin(name)
	}
	cap, ok := raw.(CapabilityPlugin)
	if !ok {
		client.Kill()
		return nil, corefail.New(corefail.Internal, "plugin %s: dispensed type does not implement CapabilityPlugin", name)
	}

	return &Process{name: name, client: client, cap: cap, timeout: timeout}, nil
}

// Call invokes method on the plugin subprocess, marshaling params to
// JSON first. It blocks for at most the configured timeout (spec.md
// §4.I: "a configurable timeout (default 30 seconds) rejects calls whose
// response never arrives"); cancelling ctx fails the call with
// corefail.Cancelled instead.
func (p *Process) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, corefail.Wrap(corefail.Cancelled, err, "calling %s.%s", p.name, method)
	}
	if p.exited() {
		return nil, corefail.PluginFailure(corefail.ChannelClosedCause, p.name, fmt.Errorf("plugin process has exited")).WithPlugin(p.name)
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, corefail.Wrap(corefail.InvalidRequest, err, "marshaling params for %s.%s", p.name, method)
	}

	type callResult struct {
		resp json.RawMessage
		err  error
	}
	done := make(chan callResult, 1)
	go func() {
		resp, err := p.cap.Invoke(method, paramsJSON)
		done <- callResult{resp: resp, err: err}
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			if p.exited() {
				return nil, corefail.PluginFailure(corefail.ChannelClosedCause, p.name, r.err).WithPlugin(p.name)
			}
			return nil, corefail.PluginFailure(corefail.InternalCause, p.name, r.err).WithPlugin(p.name)
		}
		return r.resp, nil
	case <-timer.C:
		return nil, corefail.PluginFailure(corefail.TimeoutCause, p.name, fmt.Errorf("call to %s timed out after %s", method, p.timeout)).WithPlugin(p.name)
	case <-ctx.Done():
		return nil, corefail.Wrap(corefail.Cancelled, ctx.Err(), "calling %s.%s", p.name, method)
	}
}

// Name returns the plugin name Process was spawned with.
func (p *Process) Name() string { return p.name }

// exited reports whether the underlying go-plugin client process has
// exited. A Process built directly (as test fixtures do, bypassing
// Spawn) has a nil client and is treated as still running.
func (p *Process) exited() bool {
	return p.client != nil && p.client.Exited()
}

// Kill terminates the plugin subprocess. A Call already in flight fails
// with a ChannelClosedCause error once its Invoke goroutine notices, or
// on its own timeout if it never returns.
func (p *Process) Kill() {
	if p.client != nil {
		p.client.Kill()
	}
}

// Manager owns every out-of-process plugin process for one session,
// spawned lazily on first use and reaped together on Shutdown (spec.md
// §4.D: "out-of-process: spawned on first use, reaped on session
// shutdown"). Grounded on process_manager.rs's PluginProcessManager.
type Manager struct {
	mu        sync.Mutex
	processes map[string]*Process
}

// NewManager builds an empty Manager.
func NewManager() *Manager {
	return &Manager{processes: make(map[string]*Process)}
}

// Register spawns name's plugin process if it is not already running,
// matching process_manager.rs's register_plugin no-op-if-present check.
func (m *Manager) Register(name string, command []string, opts Options) (*Process, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.processes[name]; ok {
		return p, nil
	}
	p, err := Spawn(name, command, opts)
	if err != nil {
		return nil, err
	}
	m.processes[name] = p
	return p, nil
}

// Get returns a previously registered plugin process.
func (m *Manager) Get(name string) (*Process, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.processes[name]
	return p, ok
}

// Shutdown kills every running plugin process, spec.md §4.D's "reaped on
// session shutdown".
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.processes {
		p.Kill()
	}
	m.processes = make(map[string]*Process)
}
