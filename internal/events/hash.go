package events

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes. The version suffix allows the encoding to change.
const (
	DomainEvent  = "multivault/event/v1"
	DomainConfig = "multivault/config/v1"
)

// hashWithDomain returns hex(SHA256(domain || 0x00 || data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ConfigDigest returns the digest of a canonical configuration rendering.
func ConfigDigest(canonical map[string]any) (string, error) {
	data, err := MarshalCanonical(canonical)
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainConfig, data), nil
}
