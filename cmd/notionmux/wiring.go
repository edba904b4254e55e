package main

import (
	"golang.org/x/sync/errgroup"

	"github.com/notionmux/notionmux/internal/config"
	"github.com/notionmux/notionmux/internal/fastpath"
	"github.com/notionmux/notionmux/internal/localbackend"
	"github.com/notionmux/notionmux/internal/logging"
	"github.com/notionmux/notionmux/internal/remotebackend"
	"github.com/notionmux/notionmux/internal/respcache"
	"github.com/notionmux/notionmux/internal/router"
)

// buildLocalBackend assembles C1+C2+C3+C4 from cfg. The OpenAPI document
// load, fast-path SQLite open, and response cache file load touch three
// unrelated filesystem locations, so they run concurrently rather than in
// sequence.
func buildLocalBackend(cfg *config.Config) (*localbackend.Backend, error) {
	var ops []localbackend.OperationEntry
	allIDs := map[string]bool{}
	var store *fastpath.Store
	var builtCache *respcache.Cache[localbackend.CachedResult]

	g := &errgroup.Group{}
	g.Go(func() error {
		if cfg.OpenAPISpecPath == "" {
			return nil
		}
		var err error
		ops, allIDs, err = localbackend.LoadOperations(cfg.OpenAPISpecPath)
		if err != nil {
			log.Warn("failed to load OpenAPI document, local backend will expose no tools", "err", err)
		}
		return nil
	})
	g.Go(func() error {
		store = fastpath.Open(fastpath.Config{
			Enabled:      cfg.FastPathEnabled,
			TrustEnabled: cfg.FastPathTrustEnabled,
			DBPath:       cfg.FastPathDBPath,
			MaxPageSize:  cfg.FastPathMaxPageSize,
		}, logging.For("fastpath"))
		return nil
	})
	g.Go(func() error {
		if !cfg.ResponseCacheEnabled {
			return nil
		}
		var err error
		builtCache, err = localbackend.NewCache(respcache.Options{
			TTLMillis:  cfg.ResponseCacheTTLMillis,
			MaxEntries: cfg.ResponseCacheMaxEntries,
			FilePath:   cfg.ResponseCacheFilePath,
		})
		if err != nil {
			return err
		}
		if loadErr := builtCache.Load(); loadErr != nil {
			log.Warn("failed to load response cache file", "err", loadErr)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	allowlist := localbackend.DefaultReadOnlyAllowlist(ops)
	catalog := localbackend.BuildCatalog(ops, allowlist, allIDs)
	httpClient := localbackend.NewRetryableForwarder()
	return localbackend.New(catalog, builtCache, store, httpClient), nil
}

// buildRemoteBackend assembles C5 from cfg.
func buildRemoteBackend(cfg *config.Config) *remotebackend.Backend {
	remoteURL := remotebackend.ExtractRemoteURL(cfg.RemoteCommand, cfg.RemoteArgs, cfg.RemoteDefaultURL)
	rc := remotebackend.Config{
		Command:          cfg.RemoteCommand,
		Args:             cfg.RemoteArgs,
		Env:              remotebackend.BuildEnv(nil),
		TokenCacheDir:    cfg.TokenCacheDir,
		RemoteURL:        remoteURL,
		AllowNpxFallback: cfg.AllowNpxFallback,
	}
	return remotebackend.New(rc)
}

// buildCallContext derives the per-call auth/base-url context every local
// backend call is fingerprinted against (§4.1).
func buildCallContext(cfg *config.Config) localbackend.CallContext {
	return localbackend.CallContext{
		Authorization: bearerFrom(cfg.NotionToken),
		APIVersion:    cfg.NotionAPIVersion,
		BaseURL:       cfg.LocalBaseURL,
	}
}

func bearerFrom(token string) string {
	if token == "" {
		return ""
	}
	return "Bearer " + token
}

// buildRouter wires C6 from the two backends.
func buildRouter(cfg *config.Config, local *localbackend.Backend, remote *remotebackend.Backend) *router.Router {
	return router.New(local, remote, buildCallContext(cfg))
}
