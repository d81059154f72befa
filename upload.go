package veilstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/veilstream/veilstream/core"
	"github.com/veilstream/veilstream/internal/progress"
	"github.com/veilstream/veilstream/internal/storage"
)

// UploadContent stores content for the namespace and returns its receipt.
//
// When encryption is requested the plaintext is sealed to the namespace
// before it leaves the client; if no key servers are configured the upload
// fails with ErrEncryptionUnavailable rather than silently storing
// plaintext. WithPlaintextFallback opts in to the degraded mode, and the
// receipt then reports Encrypted=false so the content can be labeled.
func (c *Client) UploadContent(ctx context.Context, src io.Reader, namespaceID string, opts ...UploadOption) (*UploadReceipt, error) {
	cfg := &uploadConfig{epochs: storage.DefaultEpochs}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.progress != nil {
		src = progress.NewReader(src, -1, func(transferred, total int64) {
			cfg.progress(ProgressEvent{
				Operation:        "upload",
				BytesTransferred: transferred,
				TotalBytes:       total,
			})
		})
	}

	plaintext, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}

	receipt := &UploadReceipt{}
	payload := plaintext

	if cfg.compress {
		payload, err = compressContent(payload)
		if err != nil {
			return nil, fmt.Errorf("compressing content: %w", err)
		}
		receipt.Compressed = true
	}

	if cfg.encrypt {
		payload, err = c.encryptPayload(ctx, namespaceID, payload, receipt)
		if err != nil {
			return nil, err
		}
	}

	ref, err := c.store.Upload(ctx, payload, cfg.epochs)
	if err != nil {
		return nil, err
	}
	receipt.Blob = ref

	c.logger.Debug("content uploaded", "blobId", ref.BlobID,
		"namespace", namespaceID, "encrypted", receipt.Encrypted, "size", len(payload))
	return receipt, nil
}

// encryptPayload seals payload to the namespace, honoring the fail-closed
// default when the threshold client is unavailable.
func (c *Client) encryptPayload(ctx context.Context, namespaceID string, payload []byte, receipt *UploadReceipt) ([]byte, error) {
	resourceID, err := core.ResourceIDFromNamespace(namespaceID)
	if err != nil {
		return nil, err
	}

	if err := c.ensureInit(ctx); err != nil {
		if !c.plaintextFallback {
			return nil, fmt.Errorf("%w: refusing to store plaintext", err)
		}
		c.logger.Warn("encryption unavailable, storing plaintext",
			"namespace", namespaceID, "error", err)
		return payload, nil
	}

	env, err := c.crypt.Encrypt(namespaceID, resourceID, payload, []byte(namespaceID))
	if err != nil {
		if !c.plaintextFallback {
			return nil, err
		}
		c.logger.Warn("encryption failed, storing plaintext",
			"namespace", namespaceID, "error", err)
		return payload, nil
	}

	out, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	receipt.Encrypted = true
	receipt.ResourceID = resourceID
	return out, nil
}
