// Package credentials resolves provider API keys from a fixed priority chain
// and manages the local obfuscated key store.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissingCredential means no API key is available from any source.
var ErrMissingCredential = errors.New("no API key found")

// Source tags where a resolved credential came from.
type Source string

const (
	SourceEnv     Source = "env"
	SourceSession Source = "session"
	SourceStored  Source = "stored"
)

// Credential is an opaque secret tagged with its resolution source.
type Credential struct {
	Key    string
	Source Source
}

// KeyReader is the read side of the credential store.
type KeyReader interface {
	APIKey(provider string) (string, bool)
}

// Resolve looks up an API key for provider with strict priority:
// provider environment variable, then the session-supplied value, then the
// local store. A present higher-priority value short-circuits; an absent one
// never masks a lower-priority value.
func Resolve(provider, envVar, session string, store KeyReader) (Credential, error) {
	if envVar != "" {
		if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
			return Credential{Key: v, Source: SourceEnv}, nil
		}
	}
	if v := strings.TrimSpace(session); v != "" {
		return Credential{Key: v, Source: SourceSession}, nil
	}
	if store != nil {
		if v, ok := store.APIKey(provider); ok && strings.TrimSpace(v) != "" {
			return Credential{Key: strings.TrimSpace(v), Source: SourceStored}, nil
		}
	}
	return Credential{}, fmt.Errorf("%w for provider %q (set %s or save a key)", ErrMissingCredential, provider, envVar)
}

// EnvVar returns the environment variable consulted for a provider.
func EnvVar(provider string) string {
	switch provider {
	case "gemini":
		return "GEMINI_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
