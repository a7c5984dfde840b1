package auth

import (
	"fmt"
	"sync"
)

// ClientStore holds the configured API clients.
//
// Thread Safety: All methods are safe for concurrent use. The store is
// read-only after construction.
type ClientStore struct {
	clients map[string]Client

	dummyOnce sync.Once
	dummyHash string
}

// NewClientStore validates clients and builds a store.
func NewClientStore(clients []Client) (*ClientStore, error) {
	s := &ClientStore{clients: make(map[string]Client, len(clients))}
	for _, c := range clients {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: client with empty id", ErrInvalidClient)
		}
		if _, dup := s.clients[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate client id %q", ErrInvalidClient, c.ID)
		}
		if !IsValidRole(c.Role) {
			return nil, fmt.Errorf("%w: client %q has unknown role %q", ErrInvalidClient, c.ID, c.Role)
		}
		if _, _, _, err := decodePHC(c.SecretHash); err != nil {
			return nil, fmt.Errorf("%w: client %q secret hash: %w", ErrInvalidClient, c.ID, err)
		}
		s.clients[c.ID] = c
	}
	return s, nil
}

// Len returns the number of configured clients.
func (s *ClientStore) Len() int {
	return len(s.clients)
}

// Authenticate checks id and secret and returns the matching client.
// Unknown IDs cost the same hash work as a wrong secret.
func (s *ClientStore) Authenticate(id, secret string) (Client, error) {
	c, ok := s.clients[id]
	if !ok {
		s.burnHash(secret)
		return Client{}, ErrInvalidCredentials
	}

	match, err := VerifySecret(secret, c.SecretHash)
	if err != nil {
		return Client{}, fmt.Errorf("verifying client %q: %w", id, err)
	}
	if !match {
		return Client{}, ErrInvalidCredentials
	}
	return c, nil
}

func (s *ClientStore) burnHash(secret string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = HashSecret("graylogic-shades-dummy") //nolint:errcheck // falls back to no work
	})
	if s.dummyHash != "" {
		_, _ = VerifySecret(secret, s.dummyHash)
	}
}
