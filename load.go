package veilstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/veilstream/veilstream/core"
	"github.com/veilstream/veilstream/internal/contentcache"
)

// LoadContent resolves one content item to a consumable representation.
//
// Public content is downloaded directly; access-gated content is decrypted
// through the entitlement pipeline. Loads are guarded per (blobID,
// resourceID, role): duplicate requests triggered by re-render or
// re-subscription join the in-flight call or return the memoized decoded
// result, never a second network round trip. A failed load clears the guard
// so the caller may retry.
//
// On failure the returned result carries StatusFailed and the error wraps
// one of the package sentinels, never a raw transport error.
func (c *Client) LoadContent(ctx context.Context, req ContentRequest) (*ContentResult, error) {
	key := contentcache.Key{BlobID: req.BlobID, ResourceID: req.ResourceID, Role: req.Role}

	res, err := c.loads.Load(ctx, key, func(ctx context.Context) (*core.ContentResult, error) {
		return c.loadOnce(ctx, req)
	})
	if err != nil {
		c.logger.Debug("content load failed", "blobId", req.BlobID, "role", req.Role, "error", err)
		return &ContentResult{Status: StatusFailed, ContentType: req.ContentType}, err
	}
	return res, nil
}

// loadOnce performs one load attempt. All entitlement preconditions are
// checked before any network call.
func (c *Client) loadOnce(ctx context.Context, req ContentRequest) (*core.ContentResult, error) {
	if !req.Locked {
		return c.loadPublic(ctx, req)
	}

	if c.signer == nil {
		return nil, core.ErrWalletRequired
	}
	if err := core.ValidateResourceID(req.ResourceID); err != nil {
		return nil, err
	}
	if req.AuthID == "" {
		if req.Role == RoleCreator {
			return nil, core.ErrOwnershipProofMissing
		}
		return nil, core.ErrSubscriptionProofMissing
	}

	data, err := c.store.Download(ctx, req.BlobID)
	if err != nil {
		return nil, err
	}
	var env core.EncryptedEnvelope
	if err := json.Unmarshal(data, &env); err != nil || env.DEMAlgorithm == "" {
		return nil, fmt.Errorf("%w: blob %s", core.ErrInvalidEnvelope, req.BlobID)
	}
	if env.ResourceID != req.ResourceID {
		return nil, fmt.Errorf("%w: envelope is scoped to resource %s",
			core.ErrInvalidResourceID, env.ResourceID)
	}

	// The two roles build different proof variants: the on-chain policy
	// check for an owner bypasses the payment and expiry checks a
	// subscriber's proof must satisfy.
	var proof core.Proof
	switch req.Role {
	case RoleCreator:
		proof, err = c.proofs.BuildOwnershipProof(req.ResourceID, env.NamespaceID, req.AuthID)
	default:
		proof, err = c.proofs.BuildSubscriptionProof(req.ResourceID, env.NamespaceID, req.AuthID)
	}
	if err != nil {
		return nil, err
	}

	key, err := c.sessionKey(ctx, env.NamespaceID)
	if err != nil {
		return nil, err
	}
	if err := c.ensureInit(ctx); err != nil {
		return nil, err
	}

	plaintext, err := c.crypt.Decrypt(ctx, &env, proof, key)
	if err != nil {
		return nil, err
	}
	plaintext, err = maybeDecompress(plaintext)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("content decoded", "blobId", req.BlobID, "role", req.Role, "size", len(plaintext))
	return decodedResult(req.ContentType, plaintext, true), nil
}

// loadPublic downloads and decodes unlocked content. No session key, proof,
// or key-server traffic is involved.
func (c *Client) loadPublic(ctx context.Context, req ContentRequest) (*core.ContentResult, error) {
	data, err := c.store.Download(ctx, req.BlobID)
	if err != nil {
		return nil, err
	}
	data, err = maybeDecompress(data)
	if err != nil {
		return nil, err
	}
	return decodedResult(req.ContentType, data, false), nil
}

// decodedResult wraps plaintext as text or a binary handle per the declared
// content type.
func decodedResult(contentType string, data []byte, encrypted bool) *core.ContentResult {
	res := &core.ContentResult{
		Status:      core.StatusDecoded,
		ContentType: contentType,
		Encrypted:   encrypted,
	}
	if core.IsTextual(contentType) {
		res.Text = string(data)
	} else {
		res.Data = data
	}
	return res
}
