package router

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/notionmux/notionmux/internal/localbackend"
	"github.com/notionmux/notionmux/internal/logging"
	"github.com/notionmux/notionmux/internal/mcptypes"
	"github.com/notionmux/notionmux/internal/tokencache"
)

// LocalBackend is the C4 surface the router dispatches FAST_ONLY and
// FAST_THEN_OFFICIAL_SAME_NAME calls to.
type LocalBackend interface {
	ListTools() []mcptypes.ToolDescriptor
	HasTool(name string) bool
	CallTool(ctx context.Context, name string, args json.RawMessage, cctx localbackend.CallContext) (*mcptypes.CallResult, error)
}

// RemoteBackend is the C5 surface the router dispatches OFFICIAL calls to,
// plus the lifecycle operations the state machine drives.
type RemoteBackend interface {
	ListTools(ctx context.Context) ([]mcptypes.ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args json.RawMessage) (*mcptypes.CallResult, error)
	Connect(ctx context.Context) error
	Reconnect(ctx context.Context) error
	Reauth(ctx context.Context) (*tokencache.Summary, error)
	Connected() bool
}

// MetaReauthToolName is always exposed regardless of route table contents
// or connection state, so a caller stuck behind a stale credential always
// has a way out (§4.6).
const MetaReauthToolName = "notionmux_reauth"

// Router is C6: the merged route table plus the connection state machine
// that decides which backends it's built from.
type Router struct {
	local   LocalBackend
	remote  RemoteBackend
	callCtx localbackend.CallContext

	table atomic.Pointer[RouteTable]
	state stateHolder
	log   *logging.Logger
}

// New constructs a Router in StateInit. Call Start to bring it up.
func New(local LocalBackend, remote RemoteBackend, callCtx localbackend.CallContext) *Router {
	r := &Router{local: local, remote: remote, callCtx: callCtx, log: logging.For("router")}
	r.table.Store(BuildRouteTable(local.ListTools(), nil))
	return r
}

// State reports the router's current connection state.
func (r *Router) State() State { return r.state.Load() }

// Start attempts to connect the remote backend and builds the initial
// route table, landing in Ready, DegradedReadOnly, or Dead per §4.6.
func (r *Router) Start(ctx context.Context) error {
	r.state.Store(StateConnecting)

	if err := r.remote.Connect(ctx); err != nil {
		r.log.Warn("remote backend connect failed, evaluating degraded mode", "err", err)
		return r.enterDegradedOrDead()
	}

	if err := r.rebuildTable(ctx); err != nil {
		r.log.Warn("route table build failed after connect", "err", err)
		return r.enterDegradedOrDead()
	}

	r.state.Store(StateReady)
	return nil
}

func (r *Router) enterDegradedOrDead() error {
	local := r.local.ListTools()
	if len(local) == 0 {
		r.state.Store(StateDead)
		r.table.Store(BuildRouteTable(nil, nil))
		return errors.New("router: neither backend is usable")
	}
	r.table.Store(BuildRouteTable(local, nil))
	r.state.Store(StateDegradedReadOnly)
	return nil
}

func (r *Router) rebuildTable(ctx context.Context) error {
	officialTools, err := r.remote.ListTools(ctx)
	if err != nil {
		return err
	}
	r.table.Store(BuildRouteTable(r.local.ListTools(), officialTools))
	return nil
}

// ListTools returns every dispatchable tool, plus the always-present
// reauth meta-tool.
func (r *Router) ListTools() []mcptypes.ToolDescriptor {
	snapshot := r.table.Load()
	out := append([]mcptypes.ToolDescriptor{}, snapshot.Descriptors()...)
	out = append(out, mcptypes.ToolDescriptor{
		Name:         MetaReauthToolName,
		Description:  "Evict cached OAuth tokens and force the remote backend to reauthenticate.",
		ReadOnlyHint: false,
	})
	return out
}

// CallTool dispatches one call_tool invocation against a single consistent
// route-table snapshot taken at entry (§4.6): a concurrent rebuild
// triggered by this call or another never changes the routing decision
// made for this call.
func (r *Router) CallTool(ctx context.Context, name string, args json.RawMessage) (*mcptypes.CallResult, error) {
	if name == MetaReauthToolName {
		return r.handleReauth(ctx)
	}

	snapshot := r.table.Load()
	entry, ok := snapshot.Lookup(name)
	if !ok {
		return mcptypes.ErrorResult("unknown tool: \"" + name + "\""), nil
	}

	if r.state.Load() == StateDegradedReadOnly && !isReadOnlyName(name) {
		return mcptypes.ErrorResult("this server is running in degraded read-only mode; \"" + name + "\" looks like a write and has been blocked"), nil
	}

	switch entry.Mode {
	case mcptypes.RouteFastOnly:
		return r.local.CallTool(ctx, name, args, r.callCtx)
	case mcptypes.RouteOfficial:
		return r.callOfficialWithRetry(ctx, name, args)
	case mcptypes.RouteOfficialWithFastBoost:
		return r.callOfficialWithBoost(ctx, name, args)
	case mcptypes.RouteFastThenOfficialSameName:
		return r.callFastThenOfficial(ctx, name, args)
	default:
		return mcptypes.ErrorResult("unroutable tool: \"" + name + "\""), nil
	}
}

// callOfficialWithRetry performs exactly one reconnect-and-retry when the
// remote call fails transiently; the router never retries more than once
// (§4.5's hard invariant).
func (r *Router) callOfficialWithRetry(ctx context.Context, name string, args json.RawMessage) (*mcptypes.CallResult, error) {
	result, err := r.remote.CallTool(ctx, name, args)
	if err == nil {
		return result, nil
	}
	var coreErr mcptypes.CoreError
	if !errors.As(err, &coreErr) || coreErr.Kind() != mcptypes.KindTransientBackend {
		return mcptypes.ErrorResult(withAuthHint(err.Error())), nil
	}

	if reconnectErr := r.remote.Reconnect(ctx); reconnectErr != nil {
		return mcptypes.ErrorResult(withAuthHint("remote backend unreachable: " + err.Error())), nil
	}
	result, err = r.remote.CallTool(ctx, name, args)
	if err != nil {
		return mcptypes.ErrorResult(withAuthHint(err.Error())), nil
	}
	return result, nil
}

// callOfficialWithBoost tries the fast equivalent of the boostable read
// first (§4.6): search -> post-search, get-users -> get-user/get-users, and
// fetch -> the retrieve-a-page/-database/-data-source/-block/-comment chain
// with UUID extraction. A non-error, non-empty boost result is returned as
// the answer outright; only when none of the fast attempts succeed does the
// call fall through to the official backend.
func (r *Router) callOfficialWithBoost(ctx context.Context, name string, args json.RawMessage) (*mcptypes.CallResult, error) {
	if boosted, ok := r.tryFastBoost(ctx, name, args); ok {
		return boosted, nil
	}
	return r.callOfficialWithRetry(ctx, name, args)
}

// tryFastBoost attempts the fast equivalent(s) of a boostable official-only
// read. It returns ok=false when no local attempt produced a usable result,
// signaling the caller to fall through to the official backend.
func (r *Router) tryFastBoost(ctx context.Context, name string, args json.RawMessage) (*mcptypes.CallResult, bool) {
	var argsMap map[string]any
	if len(args) > 0 {
		_ = json.Unmarshal(args, &argsMap)
	}

	switch stripNotionPrefix(name) {
	case "search":
		return r.tryLocalBoostCall(ctx, "post-search", args)

	case "get-users":
		if userID, ok := argsMap["user_id"].(string); ok && userID != "" {
			return r.tryLocalBoostCall(ctx, "get-user", args)
		}
		return r.tryLocalBoostCall(ctx, "get-users", args)

	case "fetch":
		if len(argsMap) != 1 {
			return nil, false // precondition: fetch boost only applies to a bare {id:...} call
		}
		idRaw, ok := argsMap["id"].(string)
		if !ok {
			return nil, false
		}
		id := idRaw
		if strings.HasPrefix(id, "collection://") {
			id = strings.TrimPrefix(id, "collection://")
		} else {
			id = extractUUID(id)
		}
		for _, step := range fetchBoostSteps {
			stepArgs, err := json.Marshal(map[string]any{step.field: id})
			if err != nil {
				continue
			}
			if result, ok := r.tryLocalBoostCall(ctx, step.tool, stepArgs); ok {
				return result, true
			}
		}
		return nil, false

	default:
		return nil, false
	}
}

// tryLocalBoostCall invokes one local operation and reports whether its
// result is usable as a boosted answer: no dispatch error, not IsError, and
// not an empty-read result.
func (r *Router) tryLocalBoostCall(ctx context.Context, toolName string, args json.RawMessage) (*mcptypes.CallResult, bool) {
	if !r.local.HasTool(toolName) {
		return nil, false
	}
	result, err := r.local.CallTool(ctx, toolName, args, r.callCtx)
	if err != nil || result == nil || result.IsError || len(result.Content) == 0 {
		return nil, false
	}
	if looksLikeEmptyRead(result.Content[0].Text) {
		return nil, false
	}
	return result, true
}

// callFastThenOfficial tries the fast path first; an error or an
// empty-looking read falls through to the official backend (§4.6).
func (r *Router) callFastThenOfficial(ctx context.Context, name string, args json.RawMessage) (*mcptypes.CallResult, error) {
	fastResult, err := r.local.CallTool(ctx, name, args, r.callCtx)
	if err == nil && fastResult != nil && !fastResult.IsError && len(fastResult.Content) > 0 && !looksLikeEmptyRead(fastResult.Content[0].Text) {
		return fastResult, nil
	}
	return r.callOfficialWithRetry(ctx, name, args)
}

func (r *Router) handleReauth(ctx context.Context) (*mcptypes.CallResult, error) {
	summary, err := r.remote.Reauth(ctx)
	if err != nil {
		return mcptypes.ErrorResult("reauth failed: " + err.Error()), nil
	}
	if rebuildErr := r.rebuildTable(ctx); rebuildErr == nil {
		r.state.Store(StateReady)
	}
	data, _ := json.Marshal(summary)
	return mcptypes.TextResult(string(data)), nil
}
