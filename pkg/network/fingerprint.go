package network

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint identifies one connection in logs and the status API.
// It is a truncated BLAKE2b-256 digest over a random nonce, both
// endpoint addresses and the negotiated encoding, so it is unique per
// connection but meaningless to the peer.
func Fingerprint(localAddr, remoteAddr, encoding string) string {
	nonce := make([]byte, 8)
	// rand.Read never fails on supported platforms
	_, _ = rand.Read(nonce)

	hash, err := blake2b.New256(nil)
	if err != nil {
		return hex.EncodeToString(nonce)
	}

	hash.Write(nonce)
	hash.Write([]byte(localAddr))
	hash.Write([]byte(remoteAddr))
	hash.Write([]byte(encoding))

	return hex.EncodeToString(hash.Sum(nil))[:16]
}
