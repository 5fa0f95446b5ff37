package auth

// APIKeyAuth provides a simple API key gate for the websocket endpoint
type APIKeyAuth struct {
	validKeys map[string]struct{}
}

// NewAPIKeyAuth creates a new API key authentication middleware. With no
// keys configured the gate is open, which is the local-development default.
func NewAPIKeyAuth(keys []string) *APIKeyAuth {
	validKeys := make(map[string]struct{})
	for _, key := range keys {
		validKeys[key] = struct{}{}
	}

	return &APIKeyAuth{
		validKeys: validKeys,
	}
}

// AddKey adds a new valid API key
func (a *APIKeyAuth) AddKey(key string) {
	a.validKeys[key] = struct{}{}
}

// RemoveKey removes a valid API key
func (a *APIKeyAuth) RemoveKey(key string) {
	delete(a.validKeys, key)
}

// IsValidKey checks if a key is valid
func (a *APIKeyAuth) IsValidKey(key string) bool {
	if len(a.validKeys) == 0 {
		return true
	}

	_, valid := a.validKeys[key]
	return valid
}
