// Package keyserver provides an in-process fake key server for tests.
//
// The fake implements the identity probe and share recovery endpoints of a
// real key server: it holds an X25519 wrapping key, evaluates entitlement
// proofs with a pluggable policy, and unwraps and returns its share bundle
// when the policy passes. Tests across the module use it to exercise the
// threshold client and the orchestrator without network access.
package keyserver

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"github.com/veilstream/veilstream/core"
	"github.com/veilstream/veilstream/internal/threshold"
)

// Policy decides whether a proof earns share release.
type Policy func(kind string, txBytes []byte) bool

// AllowAll releases shares for any non-empty proof.
func AllowAll(_ string, txBytes []byte) bool { return len(txBytes) > 0 }

// DenyAll rejects every proof.
func DenyAll(string, []byte) bool { return false }

// Server is a fake key server.
type Server struct {
	ID     string
	Weight int

	priv   *ecdh.PrivateKey
	http   *httptest.Server
	policy atomic.Value // Policy

	// DecryptCalls counts share recovery requests, including rejected ones.
	DecryptCalls atomic.Int64

	// Unavailable makes the decrypt endpoint return 503.
	Unavailable atomic.Bool
}

// New starts a fake key server with the given identity and weight.
// Callers must Close it.
func New(id string, weight int, policy Policy) (*Server, error) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	s := &Server{ID: id, Weight: weight, priv: priv}
	s.policy.Store(policy)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/service", s.handleService)
	mux.HandleFunc("POST /v1/decrypt", s.handleDecrypt)
	s.http = httptest.NewServer(mux)
	return s, nil
}

// Close shuts the server down.
func (s *Server) Close() { s.http.Close() }

// URL returns the server's base address.
func (s *Server) URL() string { return s.http.URL }

// SetPolicy swaps the proof evaluation policy.
func (s *Server) SetPolicy(p Policy) { s.policy.Store(p) }

// Config returns the key-server config entry clients use.
func (s *Server) Config() core.KeyServerConfig {
	return core.KeyServerConfig{
		ServerID:  s.ID,
		Weight:    s.Weight,
		URL:       s.http.URL,
		PublicKey: s.priv.PublicKey().Bytes(),
	}
}

func (s *Server) handleService(w http.ResponseWriter, _ *http.Request) {
	json.NewEncoder(w).Encode(map[string]any{
		"serverId":  s.ID,
		"publicKey": s.priv.PublicKey().Bytes(),
	})
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	s.DecryptCalls.Add(1)

	if s.Unavailable.Load() {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		ResourceID  string `json:"resourceId"`
		NamespaceID string `json:"namespaceId"`
		Proof       struct {
			Kind    string `json:"kind"`
			TxBytes []byte `json:"txBytes"`
		} `json:"proof"`
		SessionKey struct {
			Signature []byte `json:"signature"`
		} `json:"sessionKey"`
		Share struct {
			ServerID string `json:"serverId"`
			Payload  []byte `json:"payload"`
		} `json:"share"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.SessionKey.Signature) == 0 {
		http.Error(w, "unsigned session key", http.StatusUnauthorized)
		return
	}
	if !s.policy.Load().(Policy)(req.Proof.Kind, req.Proof.TxBytes) {
		http.Error(w, "entitlement verification failed", http.StatusForbidden)
		return
	}

	raw, err := threshold.UnwrapFromServer(s.priv, s.ID, req.NamespaceID, req.ResourceID, req.Share.Payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var bundle struct {
		Shares []threshold.Share `json:"shares"`
	}
	if err := json.Unmarshal(raw, &bundle); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"shares": bundle.Shares})
}
