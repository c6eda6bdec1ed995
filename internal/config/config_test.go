package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("IDENTITY_TIMEOUT", "")
	t.Setenv("LOOKUP_CONCURRENCY", "")
	t.Setenv("LIST_SCOPE", "")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.IdentityTimeout)
	assert.Equal(t, 8, cfg.LookupConcurrency)
	assert.Equal(t, "recipient", cfg.ListScope)
	assert.False(t, cfg.ListIncludeDeleted)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "DYNAMO")
	t.Setenv("IDENTITY_TIMEOUT", "750ms")
	t.Setenv("LOOKUP_CONCURRENCY", "3")
	t.Setenv("LIST_SCOPE", "sender")
	t.Setenv("LIST_INCLUDE_DELETED", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg := Load()
	assert.Equal(t, "dynamo", cfg.StoreDriver)
	assert.Equal(t, 750*time.Millisecond, cfg.IdentityTimeout)
	assert.Equal(t, 3, cfg.LookupConcurrency)
	assert.Equal(t, "sender", cfg.ListScope)
	assert.True(t, cfg.ListIncludeDeleted)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("IDENTITY_TIMEOUT", "soon")
	t.Setenv("LOOKUP_CONCURRENCY", "many")
	t.Setenv("LIST_INCLUDE_DELETED", "perhaps")

	cfg := Load()
	assert.Equal(t, 5*time.Second, cfg.IdentityTimeout)
	assert.Equal(t, 8, cfg.LookupConcurrency)
	assert.False(t, cfg.ListIncludeDeleted)
}
