// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package rest

import (
	"context"
	"time"

	"github.com/jeremyhahn/go-passkey/pkg/metrics"
	"github.com/jeremyhahn/go-passkey/pkg/webauthn"
)

// Stores provides the storage implementations for the REST server. It wraps
// the in-memory stores from the webauthn package; production deployments can
// substitute persistent implementations through the individual accessors.
type Stores struct {
	accounts    webauthn.AccountStore
	challenges  webauthn.ChallengeStore
	credentials webauthn.CredentialStore
}

// NewStores creates new in-memory stores for the REST server. These are
// suitable for development, testing and single-instance deployments; the
// challenge store enforces TTLs itself, so expired entries are unusable even
// before the cleanup routine sweeps them.
func NewStores() *Stores {
	return &Stores{
		accounts:    webauthn.NewMemoryAccountStore(),
		challenges:  webauthn.NewMemoryChallengeStore(),
		credentials: webauthn.NewMemoryCredentialStore(),
	}
}

// AccountStore returns the account store.
func (s *Stores) AccountStore() webauthn.AccountStore {
	return s.accounts
}

// ChallengeStore returns the challenge store.
func (s *Stores) ChallengeStore() webauthn.ChallengeStore {
	return s.challenges
}

// CredentialStore returns the credential store.
func (s *Stores) CredentialStore() webauthn.CredentialStore {
	return s.credentials
}

// CleanupChallenges removes expired challenges and returns the count removed.
func (s *Stores) CleanupChallenges() int {
	if memStore, ok := s.challenges.(*webauthn.MemoryChallengeStore); ok {
		return memStore.Cleanup()
	}
	return 0
}

// StartCleanupRoutine starts a background goroutine that periodically sweeps
// expired challenges. Call the returned cancel function to stop the routine.
func (s *Stores) StartCleanupRoutine(ctx context.Context, interval time.Duration) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.CleanupChallenges(); removed > 0 {
					metrics.RecordChallengesExpired(float64(removed))
				}
			}
		}
	}()

	return cancel
}

// Clear clears all stores (useful for testing).
func (s *Stores) Clear() {
	if memStore, ok := s.accounts.(*webauthn.MemoryAccountStore); ok {
		memStore.Clear()
	}
	if memStore, ok := s.challenges.(*webauthn.MemoryChallengeStore); ok {
		memStore.Clear()
	}
	if memStore, ok := s.credentials.(*webauthn.MemoryCredentialStore); ok {
		memStore.Clear()
	}
}
