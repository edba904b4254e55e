// Package remotebackend implements C5: the OAuth-capable remote backend,
// reached by shelling out to an `mcp-remote`-style stdio subprocess and
// speaking MCP to it over stdin/stdout via mark3labs/mcp-go's client
// package, the same library the teacher uses for its own tool types.
package remotebackend

import (
	"context"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/notionmux/notionmux/internal/logging"
	"github.com/notionmux/notionmux/internal/tokencache"
)

const (
	connectDeadline  = 30 * time.Second
	reconnectDeadline = 10 * time.Second
	reauthDeadline    = 120 * time.Second
)

// Config describes how to launch and manage the subprocess.
type Config struct {
	Command         string
	Args            []string
	Env             []string // allowlisted subset only; see BuildEnv
	TokenCacheDir   string
	RemoteURL       string // extracted from Args for token-cache eviction
	AllowNpxFallback bool
}

// EnvAllowlist is the fixed set of environment variables forwarded to the
// subprocess; anything else in the parent's environment is never leaked to
// it (§6). Beyond the basics (HOME/PATH/TMPDIR) this carries the proxy and
// TLS-trust variables a Node-based launcher commonly needs to reach the
// remote server through a corporate proxy or a custom CA bundle.
var EnvAllowlist = []string{
	"HOME", "PATH", "TMPDIR", "npm_config_cache",
	"HTTP_PROXY", "HTTPS_PROXY", "NO_PROXY",
	"http_proxy", "https_proxy", "no_proxy",
	"NODE_EXTRA_CA_CERTS", "SSL_CERT_FILE", "SSL_CERT_DIR",
}

// BuildEnv filters the parent process environment down to EnvAllowlist and
// appends the caller-supplied extra entries; the result is what Config.Env
// holds.
func BuildEnv(extra []string) []string {
	out := make([]string, 0, len(EnvAllowlist)+len(extra))
	for _, key := range EnvAllowlist {
		if v, ok := os.LookupEnv(key); ok {
			out = append(out, key+"="+v)
		}
	}
	out = append(out, extra...)
	return out
}

// ExtractRemoteURL finds the remote server URL per §4.5's command-conditioned
// rule: for "node", it's argv[1]; for "npx", it's the argument immediately
// following "mcp-remote"; for anything else, the launcher's argv carries no
// discoverable URL and defaultURL (the configured fallback) is used instead.
func ExtractRemoteURL(command string, args []string, defaultURL string) string {
	switch command {
	case "node":
		if len(args) > 0 {
			return args[0]
		}
	case "npx":
		for i, a := range args {
			if a == "mcp-remote" && i+1 < len(args) {
				return args[i+1]
			}
		}
	}
	return defaultURL
}

// Backend owns one subprocess connection's full lifecycle: connect,
// single-retry reconnect, and reauth-with-token-eviction.
type Backend struct {
	cfg Config
	log *logging.Logger

	client *client.Client
}

// New constructs a Backend without connecting; call Connect to bring the
// subprocess up.
func New(cfg Config) *Backend {
	return &Backend{cfg: cfg, log: logging.For("remotebackend")}
}

// Connect launches the subprocess and initializes the MCP session within
// connectDeadline (§4.5).
func (b *Backend) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectDeadline)
	defer cancel()
	return b.connectLocked(ctx)
}

// connectLocked does the actual spawn-and-initialize work against whatever
// deadline the caller already installed on ctx. It takes no timeout of its
// own so that Connect/Reconnect/Reauth each get one independent wall-clock
// budget instead of nesting context.WithTimeout calls, which would let the
// innermost (shortest) deadline silently win over an outer, longer one.
func (b *Backend) connectLocked(ctx context.Context) error {
	c, err := client.NewStdioMCPClient(b.cfg.Command, b.cfg.Env, b.cfg.Args...)
	if err != nil {
		return err
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "notionmux", Version: "1.0.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return err
	}

	b.client = c
	return nil
}

// teardown closes the current transport, if any, ignoring close errors
// per §4.5's "ignore close errors" step of the reconnect sequence.
func (b *Backend) teardown() {
	if b.client != nil {
		_ = b.client.Close()
		b.client = nil
	}
}

// Reconnect performs exactly one reconnect attempt within reconnectDeadline.
// It is the router's job to enforce that this is called at most once per
// failure; Backend itself does not loop.
func (b *Backend) Reconnect(ctx context.Context) error {
	b.teardown()
	ctx, cancel := context.WithTimeout(ctx, reconnectDeadline)
	defer cancel()
	return b.connectLocked(ctx)
}

// Reauth evicts the cached OAuth tokens for this server's URL and then
// reconnects within reauthDeadline, forcing the subprocess through its own
// browser-based OAuth flow again. It builds its own connect path rather
// than calling Reconnect so the 120s interactive-OAuth budget isn't capped
// by Reconnect's much shorter 10s deadline.
func (b *Backend) Reauth(ctx context.Context) (*tokencache.Summary, error) {
	summary, err := tokencache.EvictForURL(ctx, b.cfg.TokenCacheDir, b.cfg.RemoteURL)
	if err != nil {
		return nil, err
	}

	b.teardown()
	ctx, cancel := context.WithTimeout(ctx, reauthDeadline)
	defer cancel()
	if err := b.connectLocked(ctx); err != nil {
		return summary, err
	}
	return summary, nil
}

// Close tears down the subprocess connection, if any.
func (b *Backend) Close() error {
	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}

// Connected reports whether a live session exists.
func (b *Backend) Connected() bool {
	return b.client != nil
}
