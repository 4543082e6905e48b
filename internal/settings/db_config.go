package settings

import (
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"
)

// snapshot is an immutable copy of the settings table.
type snapshot struct {
	updatedAt time.Time
	values    map[string]json.RawMessage
}

var current atomic.Pointer[snapshot]

func init() {
	current.Store(&snapshot{values: map[string]json.RawMessage{}})
}

// Store replaces the in-memory snapshot.
func Store(updatedAt time.Time, values map[string]json.RawMessage) {
	next := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		next[key] = append(json.RawMessage(nil), v...)
	}
	current.Store(&snapshot{updatedAt: updatedAt.UTC(), values: next})
}

// UpdatedAt returns the newest update time seen in the snapshot.
func UpdatedAt() time.Time {
	return current.Load().updatedAt
}

// Value returns a copy of the raw value for key.
func Value(key string) (json.RawMessage, bool) {
	val, ok := current.Load().values[strings.TrimSpace(key)]
	if !ok {
		return nil, false
	}
	return append(json.RawMessage(nil), val...), true
}

// All returns every known setting with defaults filled in.
func All() map[string]any {
	return map[string]any{
		SiteNameKey:          SiteName(),
		CurrencyKey:          Currency(),
		AllowRegistrationKey: AllowRegistration(),
	}
}

// SiteName returns the configured display name.
func SiteName() string {
	return stringValue(SiteNameKey, DefaultSiteName)
}

// Currency returns the configured currency code.
func Currency() string {
	return strings.ToUpper(stringValue(CurrencyKey, DefaultCurrency))
}

// AllowRegistration reports whether self-service signup is enabled.
func AllowRegistration() bool {
	raw, ok := Value(AllowRegistrationKey)
	if !ok {
		return DefaultAllowRegistration
	}
	var b bool
	if errUnmarshal := json.Unmarshal(raw, &b); errUnmarshal == nil {
		return b
	}
	switch strings.ToLower(parseString(raw)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return DefaultAllowRegistration
}

func stringValue(key, fallback string) string {
	raw, ok := Value(key)
	if !ok {
		return fallback
	}
	if s := parseString(raw); s != "" {
		return s
	}
	return fallback
}

// parseString accepts a bare JSON string or a {"value": ...} wrapper.
func parseString(raw json.RawMessage) string {
	var s string
	if errUnmarshal := json.Unmarshal(raw, &s); errUnmarshal == nil {
		return strings.TrimSpace(s)
	}
	var wrapper struct {
		Value json.RawMessage `json:"value"`
	}
	if errUnmarshal := json.Unmarshal(raw, &wrapper); errUnmarshal == nil && len(wrapper.Value) > 0 {
		return parseString(wrapper.Value)
	}
	return ""
}
