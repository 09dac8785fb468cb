package credstore

// Repo defines the interface for durable per-account credential storage.
// Tokens are opaque serialized session strings owned by the network client.
type Repo interface {
	// GetAll returns the full sessionID -> token table
	GetAll() (map[string]string, error)

	// Get retrieves the token for a session, ErrNotFound when absent
	Get(sessionID string) (string, error)

	// Put creates or overwrites the token for a session
	Put(sessionID, token string) error
}
