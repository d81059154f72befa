package localsigner

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

// Key file parameters. The seed is sealed with AES-256-GCM under a
// PBKDF2-derived key when a passphrase is supplied.
const (
	keyFileVersion   = 1
	pbkdf2Iterations = 600_000
	saltLen          = 16
	nonceLen         = 12
)

var errBadPassphrase = errors.New("localsigner: wrong passphrase or corrupt key file")

// keyFile is the on-disk format.
type keyFile struct {
	Version    int    `json:"v"`
	Encrypted  bool   `json:"encrypted"`
	Salt       []byte `json:"salt,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
	Nonce      []byte `json:"nonce,omitempty"`
	Seed       []byte `json:"seed"`
}

// Save writes the signer's seed to path, sealed under passphrase when one
// is given. The file is created with owner-only permissions.
func (s *Signer) Save(path, passphrase string) error {
	seed := s.priv.Seed()
	kf := keyFile{Version: keyFileVersion, Seed: seed}

	if passphrase != "" {
		salt := make([]byte, saltLen)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("generate salt: %w", err)
		}
		aead, err := passphraseAEAD(passphrase, salt, pbkdf2Iterations)
		if err != nil {
			return err
		}
		nonce := make([]byte, nonceLen)
		if _, err := rand.Read(nonce); err != nil {
			return fmt.Errorf("generate nonce: %w", err)
		}
		kf = keyFile{
			Version:    keyFileVersion,
			Encrypted:  true,
			Salt:       salt,
			Iterations: pbkdf2Iterations,
			Nonce:      nonce,
			Seed:       aead.Seal(nil, nonce, seed, nil),
		}
	}

	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Load reads a signer from a key file written by Save.
func Load(path, passphrase string) (*Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse key file: %w", err)
	}
	if kf.Version != keyFileVersion {
		return nil, fmt.Errorf("unsupported key file version %d", kf.Version)
	}

	seed := kf.Seed
	if kf.Encrypted {
		if passphrase == "" {
			return nil, errors.New("localsigner: key file is passphrase protected")
		}
		aead, err := passphraseAEAD(passphrase, kf.Salt, kf.Iterations)
		if err != nil {
			return nil, err
		}
		seed, err = aead.Open(nil, kf.Nonce, kf.Seed, nil)
		if err != nil {
			return nil, errBadPassphrase
		}
	}
	if len(seed) != ed25519.SeedSize {
		return nil, errors.New("localsigner: bad seed length")
	}
	return fromKey(ed25519.NewKeyFromSeed(seed))
}

func passphraseAEAD(passphrase string, salt []byte, iterations int) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, iterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
