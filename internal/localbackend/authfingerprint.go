package localbackend

import (
	"crypto/sha256"
	"encoding/hex"
)

// authFingerprint hashes the credential material the cache key must be
// sensitive to without ever storing the credential itself (§4.1).
func authFingerprint(cctx CallContext) string {
	sum := sha256.Sum256([]byte(cctx.Authorization + "|" + cctx.APIVersion))
	return hex.EncodeToString(sum[:])
}
