package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUpgraderCheckOrigin(t *testing.T) {
	open := newUpgrader("")
	restricted := newUpgrader("https://example.com")

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://elsewhere.test")

	assert.True(t, open.CheckOrigin(req), "no configured origin accepts any")
	assert.False(t, restricted.CheckOrigin(req))

	req.Header.Set("Origin", "https://example.com")
	assert.True(t, restricted.CheckOrigin(req))
}
