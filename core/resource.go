package core

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// namespacePrefix is the on-chain object id prefix namespaces carry.
const namespacePrefix = "0x"

// ResourceIDFromNamespace derives the identifier entitlement checks are
// scoped to. Derivation strips the object-id prefix so the key-server policy
// receives raw hex; content within one namespace shares a resource id, making
// entitlement namespace-scoped rather than per-file.
func ResourceIDFromNamespace(namespaceID string) (string, error) {
	if !strings.HasPrefix(namespaceID, namespacePrefix) {
		return "", fmt.Errorf("%w: namespace %q lacks %s prefix", ErrInvalidResourceID, namespaceID, namespacePrefix)
	}
	id := strings.ToLower(strings.TrimPrefix(namespaceID, namespacePrefix))
	if err := ValidateResourceID(id); err != nil {
		return "", err
	}
	return id, nil
}

// ValidateResourceID checks that id is a non-empty, non-placeholder hex
// identifier. Callers must validate before building proofs; the key-server
// network refuses release for mismatched or malformed ids.
func ValidateResourceID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidResourceID)
	}
	raw, err := hex.DecodeString(id)
	if err != nil {
		return fmt.Errorf("%w: %q is not hex", ErrInvalidResourceID, id)
	}
	for _, b := range raw {
		if b != 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: placeholder id", ErrInvalidResourceID)
}
