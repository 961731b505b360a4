package logger

import (
	"log/slog"
	"strings"
)

// sensitiveValuePrefixes mark values that are secrets regardless of key.
var sensitiveValuePrefixes = []string{
	"vbst_", // session token issued by the CLI
}

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"signature",
	"key",
	"credential",
	"auth",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive masks a string attribute by value prefix first, then by
// key name. Groups are walked recursively.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		strVal := a.Value.String()
		if prefix, ok := sensitivePrefix(strVal); ok {
			return slog.String(a.Key, maskValue(strVal, prefix))
		}
		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}

	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// maskValue keeps the prefix plus the first and last 3 characters.
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) <= 6 {
		return prefix + "***"
	}
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// Mask fully redacts a non-empty secret, e.g. for a sanitized config dump.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	return redactedValue
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// sensitivePrefix reports the session-token prefix value starts with.
func sensitivePrefix(value string) (string, bool) {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return prefix, true
		}
	}
	return "", false
}
