package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"dao-governance/internal/core/domain"
	"dao-governance/internal/core/ports"
)

// ErrChainBroken is returned when the stored event log does not verify.
var ErrChainBroken = errors.New("ledger event chain broken")

// HMACSignatureService implements ports.SignatureService using HMAC-SHA256.
type HMACSignatureService struct{}

// NewHMACSignatureService creates a new HMAC-SHA256 signature service.
func NewHMACSignatureService() *HMACSignatureService {
	return &HMACSignatureService{}
}

// Sign computes HMAC-SHA256 of payload using secretKey.
// Returns lowercase hex-encoded signature.
func (s *HMACSignatureService) Sign(secretKey string, payload string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks if signature matches HMAC-SHA256(secretKey, payload).
// Uses constant-time comparison.
func (s *HMACSignatureService) Verify(secretKey string, payload string, signature string) bool {
	expected := s.Sign(secretKey, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// EventChain seals ledger events into a hash chain and verifies it.
// The first event's PrevHash is empty.
type EventChain struct {
	signer ports.SignatureService
	key    string
}

// NewEventChain creates a chain keyed by key.
func NewEventChain(signer ports.SignatureService, key string) *EventChain {
	return &EventChain{signer: signer, key: key}
}

// Seal links e to prevHash and computes its hash.
func (c *EventChain) Seal(e *domain.LedgerEvent, prevHash string) {
	e.PrevHash = prevHash
	e.Hash = c.signer.Sign(c.key, e.CanonicalString())
}

// VerifyChain checks that events, ordered by sequence, link back to genesis
// without gaps and that every hash matches its content. It returns the head hash.
func (c *EventChain) VerifyChain(events []domain.LedgerEvent) (string, error) {
	prev := ""
	for i := range events {
		e := &events[i]
		if e.Sequence != uint64(i)+1 {
			return "", fmt.Errorf("%w: expected sequence %d, got %d", ErrChainBroken, i+1, e.Sequence)
		}
		if e.PrevHash != prev {
			return "", fmt.Errorf("%w: sequence %d does not link to its predecessor", ErrChainBroken, e.Sequence)
		}
		if !c.signer.Verify(c.key, e.CanonicalString(), e.Hash) {
			return "", fmt.Errorf("%w: sequence %d hash mismatch", ErrChainBroken, e.Sequence)
		}
		prev = e.Hash
	}
	return prev, nil
}
