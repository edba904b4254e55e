// Package tokencache locates and evicts the on-disk OAuth token artifacts
// that mcp-remote-style launchers leave behind, keyed by an MD5 hash of the
// remote server URL (§3's token-cache artifact, §4.5's reauth flow).
package tokencache

import (
	"context"
	"crypto/md5" //nolint:gosec // fingerprinting a public URL, not hashing secrets
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/notionmux/notionmux/internal/logging"
)

var log = logging.For("tokencache")

// Summary is the structured result of an eviction sweep.
type Summary struct {
	Status        string   `json:"status"`
	DeletedFiles  []string `json:"deleted_files"`
	SearchedDirs  []string `json:"searched_dirs"`
	Message       string   `json:"message"`
}

// urlHash reproduces the mcp-remote convention of naming a server's token
// artifacts after md5(url): a top-level "<hash>" directory, or a "<hash>"
// directory or "<hash>_"-prefixed files inside "mcp-remote-<version>"
// directories.
func urlHash(remoteURL string) string {
	sum := md5.Sum([]byte(remoteURL)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// isVersionDir reports whether name is an mcp-remote launcher version
// directory, e.g. "mcp-remote-1.0" (§3, §4.5's reauth layout).
func isVersionDir(name string) bool {
	return strings.HasPrefix(name, "mcp-remote-")
}

// isHashArtifact reports whether a name found inside a version directory is
// one of the documented per-hash artifacts: a bare "<hash>" directory
// (holding "tokens.json") or a "<hash>_tokens.json" / "<hash>_client_info.json"
// / "<hash>_code_verifier.txt" file.
func isHashArtifact(name, hash string) bool {
	return name == hash || strings.HasPrefix(name, hash+"_")
}

// EvictForURL deletes every on-disk artifact tied to remoteURL, matching the
// two shapes the launcher actually writes (§3, §4.5): a top-level "<hash>"
// directory containing "tokens.json", and hash-prefixed files (or a nested
// "<hash>" directory) sitting inside a "mcp-remote-<version>" directory.
// Everything else, including non-matching siblings inside a version
// directory, is left untouched.
func EvictForURL(ctx context.Context, cacheDir, remoteURL string) (*Summary, error) {
	hash := urlHash(remoteURL)
	summary := &Summary{Status: "ok", SearchedDirs: []string{cacheDir}}

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			summary.Status = "no_cache_dir"
			summary.Message = fmt.Sprintf("token cache directory %q does not exist", cacheDir)
			return summary, nil
		}
		return nil, err
	}

	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(cacheDir, name)

		switch {
		case name == hash:
			if err := deleteRecordingErrors(full, summary); err != nil {
				log.Warn("failed to delete token cache artifact", "path", full, "err", err)
			}

		case entry.IsDir() && isVersionDir(name):
			summary.SearchedDirs = append(summary.SearchedDirs, full)
			if err := evictWithinVersionDir(full, hash, summary); err != nil {
				log.Warn("failed to read mcp-remote version directory", "path", full, "err", err)
			}
		}
	}

	if len(summary.DeletedFiles) == 0 {
		summary.Status = "not_found"
		summary.Message = fmt.Sprintf("no token cache artifacts found for this server under %s", cacheDir)
		return summary, nil
	}

	summary.Message = fmt.Sprintf("deleted %d token cache artifact(s)", len(summary.DeletedFiles))
	return summary, nil
}

// evictWithinVersionDir deletes every hash-prefixed child of a
// "mcp-remote-<version>" directory, leaving non-matching siblings (a
// different server's cached tokens) in place.
func evictWithinVersionDir(dir, hash string, summary *Summary) error {
	children, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, c := range children {
		if !isHashArtifact(c.Name(), hash) {
			continue
		}
		full := filepath.Join(dir, c.Name())
		if err := deleteRecordingErrors(full, summary); err != nil {
			log.Warn("failed to delete token cache artifact", "path", full, "err", err)
		}
	}
	return nil
}

func deleteRecordingErrors(path string, summary *Summary) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if err := os.Remove(path); err != nil {
			return err
		}
		summary.DeletedFiles = append(summary.DeletedFiles, path)
		return nil
	}

	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		summary.DeletedFiles = append(summary.DeletedFiles, p)
		return nil
	})
	if err != nil {
		return err
	}
	return os.RemoveAll(path)
}
