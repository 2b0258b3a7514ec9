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

package webauthn

import (
	"context"
	"encoding/hex"
	"sync"
	"time"
)

// MemoryAccountStore is an in-memory implementation of AccountStore.
// This is intended for development and testing only.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	byID     map[string]*Account
	byName   map[string]*Account
	idToName map[string]string
}

// NewMemoryAccountStore creates a new in-memory account store.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		byID:     make(map[string]*Account),
		byName:   make(map[string]*Account),
		idToName: make(map[string]string),
	}
}

// GetByID retrieves an account by its opaque ID.
func (s *MemoryAccountStore) GetByID(ctx context.Context, accountID []byte) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := hex.EncodeToString(accountID)
	account, ok := s.byID[key]
	if !ok {
		return nil, ErrAccountNotFound
	}
	clone := *account
	return &clone, nil
}

// GetByName retrieves an account by its name.
func (s *MemoryAccountStore) GetByName(ctx context.Context, name string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.byName[name]
	if !ok {
		return nil, ErrAccountNotFound
	}
	clone := *account
	return &clone, nil
}

// Create creates a new account with the given name and display name.
func (s *MemoryAccountStore) Create(ctx context.Context, name, displayName string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[name]; ok {
		return nil, ErrAccountExists
	}

	account := &Account{
		ID:          GenerateAccountID(name),
		Name:        name,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
	key := hex.EncodeToString(account.ID)

	s.byID[key] = account
	s.byName[name] = account
	s.idToName[key] = name

	clone := *account
	return &clone, nil
}

// Delete removes an account by its ID.
func (s *MemoryAccountStore) Delete(ctx context.Context, accountID []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := hex.EncodeToString(accountID)
	name, ok := s.idToName[key]
	if !ok {
		return ErrAccountNotFound
	}

	delete(s.byID, key)
	delete(s.byName, name)
	delete(s.idToName, key)

	return nil
}

// Count returns the number of accounts in the store.
func (s *MemoryAccountStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Clear removes all accounts from the store.
func (s *MemoryAccountStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]*Account)
	s.byName = make(map[string]*Account)
	s.idToName = make(map[string]string)
}

// MemoryChallengeStore is an in-memory implementation of ChallengeStore.
// This is intended for development and testing only.
type MemoryChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]*Challenge
	clock      Clock
}

// NewMemoryChallengeStore creates a new in-memory challenge store using the
// system clock.
func NewMemoryChallengeStore() *MemoryChallengeStore {
	return NewMemoryChallengeStoreWithClock(SystemClock)
}

// NewMemoryChallengeStoreWithClock creates a new in-memory challenge store
// with an injected clock, so expiry can be tested without sleeping.
func NewMemoryChallengeStoreWithClock(clock Clock) *MemoryChallengeStore {
	return &MemoryChallengeStore{
		challenges: make(map[string]*Challenge),
		clock:      clock,
	}
}

// Put stores an issued challenge.
func (s *MemoryChallengeStore) Put(ctx context.Context, challenge *Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *challenge
	s.challenges[hex.EncodeToString(challenge.Value)] = &clone
	return nil
}

// Consume atomically removes and returns the challenge with the given value.
// The lookup and delete happen under one lock: a replayed response observes
// the challenge as absent no matter how closely it trails the original.
func (s *MemoryChallengeStore) Consume(ctx context.Context, value []byte) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := hex.EncodeToString(value)
	challenge, ok := s.challenges[key]
	if !ok {
		return nil, ErrChallengeNotFound
	}
	delete(s.challenges, key)

	if challenge.Expired(s.clock.Now()) {
		return nil, ErrChallengeNotFound
	}
	return challenge, nil
}

// Count returns the number of outstanding challenges in the store.
func (s *MemoryChallengeStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.challenges)
}

// Clear removes all challenges from the store.
func (s *MemoryChallengeStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges = make(map[string]*Challenge)
}

// Cleanup removes expired challenges and returns how many were dropped.
// Expiry is already enforced on Consume; this just bounds memory growth
// from ceremonies that never finish.
func (s *MemoryChallengeStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for key, challenge := range s.challenges {
		if challenge.Expired(now) {
			delete(s.challenges, key)
			removed++
		}
	}
	return removed
}

// MemoryCredentialStore is an in-memory implementation of CredentialStore.
// This is intended for development and testing only.
type MemoryCredentialStore struct {
	mu          sync.RWMutex
	byID        map[string]*Credential
	byAccountID map[string][]*Credential
	idToAccount map[string]string
}

// NewMemoryCredentialStore creates a new in-memory credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		byID:        make(map[string]*Credential),
		byAccountID: make(map[string][]*Credential),
		idToAccount: make(map[string]string),
	}
}

// Save stores a new credential.
func (s *MemoryCredentialStore) Save(ctx context.Context, cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credKey := hex.EncodeToString(cred.ID)
	accountKey := hex.EncodeToString(cred.AccountID)

	if _, ok := s.byID[credKey]; ok {
		return ErrCredentialExists
	}

	clone := *cred
	s.byID[credKey] = &clone
	s.byAccountID[accountKey] = append(s.byAccountID[accountKey], &clone)
	s.idToAccount[credKey] = accountKey

	return nil
}

// GetByAccountID retrieves all credentials for an account in registration
// order. Returned values are copies; mutations go through the Update
// methods so the compare-and-set discipline cannot be bypassed.
func (s *MemoryCredentialStore) GetByAccountID(ctx context.Context, accountID []byte) ([]*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := hex.EncodeToString(accountID)
	creds, ok := s.byAccountID[key]
	if !ok {
		return []*Credential{}, nil
	}

	result := make([]*Credential, len(creds))
	for i, c := range creds {
		clone := *c
		result[i] = &clone
	}
	return result, nil
}

// GetByCredentialID retrieves a credential by its ID. The returned value is
// a copy.
func (s *MemoryCredentialStore) GetByCredentialID(ctx context.Context, credID []byte) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := hex.EncodeToString(credID)
	cred, ok := s.byID[key]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	clone := *cred
	return &clone, nil
}

// UpdateCounter performs an atomic compare-and-set of the signature counter.
// The comparison and the write happen under one lock; a caller whose
// oldCount no longer matches gets ErrCounterRollback, exactly as if the
// counter comparison itself had failed.
func (s *MemoryCredentialStore) UpdateCounter(ctx context.Context, credID []byte, oldCount, newCount uint32, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.byID[hex.EncodeToString(credID)]
	if !ok || !cred.Active {
		return ErrCredentialNotFound
	}
	if cred.SignCount != oldCount {
		return ErrCounterRollback
	}

	cred.SignCount = newCount
	cred.LastUsedAt = usedAt
	return nil
}

// UpdateLabel replaces the credential's label.
func (s *MemoryCredentialStore) UpdateLabel(ctx context.Context, credID []byte, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.byID[hex.EncodeToString(credID)]
	if !ok {
		return ErrCredentialNotFound
	}

	cred.Label = label
	return nil
}

// Deactivate marks the credential inactive. The record and its history are
// retained; only the active flag changes.
func (s *MemoryCredentialStore) Deactivate(ctx context.Context, credID []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.byID[hex.EncodeToString(credID)]
	if !ok {
		return ErrCredentialNotFound
	}

	cred.Active = false
	return nil
}

// Count returns the total number of credentials in the store.
func (s *MemoryCredentialStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Clear removes all credentials from the store.
func (s *MemoryCredentialStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]*Credential)
	s.byAccountID = make(map[string][]*Credential)
	s.idToAccount = make(map[string]string)
}
