package auth

import "sync"

// Store holds the process-wide credential. It is written only by the
// authentication gate and read by every downstream API call. The
// credential is not persisted; a restart always starts
// unauthenticated.
type Store struct {
	mu   sync.RWMutex
	cred Credential
}

// NewStore creates an empty credential store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current credential and whether it is valid.
func (s *Store) Get() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred, s.cred.Valid()
}

// Token returns the current bearer token, or "" when unauthenticated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.Token
}

// Set replaces the stored credential.
func (s *Store) Set(cred Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cred
}

// Clear removes the stored credential.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = Credential{}
}
