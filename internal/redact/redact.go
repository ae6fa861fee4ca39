// Package redact scrubs secrets from text and structured payloads before
// they reach logs, event streams, or the handoff report.
package redact

import (
	"regexp"
	"sort"
	"strings"
)

var sensitiveAssignment = regexp.MustCompile(
	`(?i)(\b(?:api[_-]?key|secret|token|password|credential(?:s)?)\b\s*[:=]\s*)(?:"[^"\n]*"|'[^'\n]*'|[^\s,;]+)`,
)

var authHeaderAssignment = regexp.MustCompile(
	`(?i)(\b(?:authorization|x-api-key)\b\s*[:=]\s*)(?:bearer\s+)?[^\s,;]+`,
)

var tokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bsk-[A-Za-z0-9]{20,}\b`),
	regexp.MustCompile(`\bsk-ant-[A-Za-z0-9\-]{20,}\b`),
	regexp.MustCompile(`\bghp_[A-Za-z0-9]{36}\b`),
	regexp.MustCompile(`\bgithub_pat_[A-Za-z0-9_]{40,}\b`),
	regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{35}\b`),
}

var privateKeyBlock = regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]+?-----END [A-Z ]*PRIVATE KEY-----`)

// Text replaces explicit secret values in text with "[REDACTED:<name>]".
// Longer values are replaced first so a short secret can't clobber a
// substring match inside a longer one.
func Text(text string, secrets map[string]string) string {
	if len(secrets) == 0 {
		return text
	}
	type pair struct {
		name, value string
	}
	ordered := make([]pair, 0, len(secrets))
	for name, value := range secrets {
		if value != "" {
			ordered = append(ordered, pair{name, value})
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return len(ordered[i].value) > len(ordered[j].value) })

	result := text
	for _, p := range ordered {
		result = strings.ReplaceAll(result, p.value, "[REDACTED:"+p.name+"]")
	}
	return result
}

// AutoRedact scrubs common token, credential-assignment, and private-key
// patterns that were never supplied explicitly as named secrets.
func AutoRedact(text string) string {
	result := sensitiveAssignment.ReplaceAllString(text, "${1}[REDACTED:auto]")
	result = authHeaderAssignment.ReplaceAllString(result, "${1}[REDACTED:auto]")
	for _, pattern := range tokenPatterns {
		result = pattern.ReplaceAllString(result, "[REDACTED:auto]")
	}
	return privateKeyBlock.ReplaceAllString(result, "[REDACTED:auto]")
}

// All applies explicit secret redaction followed by automatic pattern
// redaction.
func All(text string, secrets map[string]string) string {
	return AutoRedact(Text(text, secrets))
}

// Structured recursively redacts secrets from nested maps and slices,
// leaving other value kinds untouched. It is used to sanitize tool call
// arguments and results before they are written to the event log.
func Structured(data any, secrets map[string]string) any {
	switch v := data.(type) {
	case string:
		return All(v, secrets)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = Structured(val, secrets)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Structured(item, secrets)
		}
		return out
	default:
		return data
	}
}
