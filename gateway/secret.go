package gateway

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

const redacted = "[REDACTED]"

// APIKeySecret holds the raw key returned once at creation. Every formatting and
// encoding path redacts it; only Reveal exposes the value.
type APIKeySecret struct {
	value string
}

func NewAPIKeySecret(value string) APIKeySecret {
	return APIKeySecret{value: value}
}

// Reveal returns the raw key for one-time display
func (s APIKeySecret) Reveal() string {
	return s.value
}

func (s APIKeySecret) IsZero() bool {
	return s.value == ""
}

func (s APIKeySecret) String() string {
	return redacted
}

func (s APIKeySecret) GoString() string {
	return redacted
}

func (s APIKeySecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(redacted)
}

func (s APIKeySecret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

func (s APIKeySecret) MarshalZerologObject(e *zerolog.Event) {
	e.Str("api_key", redacted)
}
