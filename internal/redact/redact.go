// Package redact scrubs credentials, provider API keys, SQL values and
// personal identifiers from error text before it reaches logs or clients.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	KeyPlaceholder        = "[REDACTED_KEY]"
	JWTPlaceholder        = "[REDACTED_JWT]"
	UUIDPlaceholder       = "[REDACTED_UUID]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	PathPlaceholder       = "[REDACTED_PATH]"
	StackTracePlaceholder = "[STACK_TRACE_REDACTED]"
	SQLValuesPlaceholder  = "[SQL_VALUES_REDACTED]"
	SQLWherePlaceholder   = "[SQL_WHERE_REDACTED]"
)

// rule replaces every match of re with repl. repl may reference capture
// groups with ${n}.
type rule struct {
	re   *regexp.Regexp
	repl string
}

// rules run in order. Connection strings and tokens go first so their
// fragments are not half-matched as emails or paths, and SQL statements
// are collapsed before the identifier rules see their values.
var rules = []rule{
	{regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`), StackTracePlaceholder},
	{regexp.MustCompile(`(?i)\b(?:postgres(?:ql)?|mysql|mongodb|redis)://[^@\s]+@`), CredentialPlaceholder},
	{regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`), JWTPlaceholder},
	{regexp.MustCompile(`\bBearer\s+[A-Za-z0-9_\-.~+/]{8,}=*`), "Bearer " + KeyPlaceholder},

	// OpenAI and Anthropic keys (sk-, sk-ant-), Google keys (AIza), AWS access keys.
	{regexp.MustCompile(`\b(?:sk-(?:ant-)?[A-Za-z0-9_\-]{16,}|AIza[0-9A-Za-z_\-]{20,})`), KeyPlaceholder},
	{regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`), KeyPlaceholder},

	{regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)\s*[=:]\s*['"]?[^\s'"&,;]+['"]?`), CredentialPlaceholder},
	{
		regexp.MustCompile(`(?i)\b(?:api[_-]?key|access[_-]?token|secret|token)\s*[=:]\s*['"]?[A-Za-z0-9_\-.~+/]{8,}['"]?`),
		KeyPlaceholder,
	},

	// SQL keeps the statement head and drops everything after it.
	{
		regexp.MustCompile(`(?s)\bINSERT INTO\s+(\w+(?:\s*\([^)]*\))?)\s*VALUES\b.*`),
		"INSERT INTO ${1} VALUES " + SQLValuesPlaceholder,
	},
	{regexp.MustCompile(`(?s)\bUPDATE\s+(\w+)\s+SET\b.*`), "UPDATE ${1} SET " + SQLValuesPlaceholder},
	{regexp.MustCompile(`(?s)\bDELETE FROM\s+(\w+)\s+WHERE\b.*`), "DELETE FROM ${1} " + SQLWherePlaceholder},
	{
		regexp.MustCompile(`(?s)\bSELECT\b.*?\bFROM\s+(\w+)\b.*?\bWHERE\b.*`),
		"SELECT ... FROM ${1} " + SQLWherePlaceholder,
	},

	{regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`), UUIDPlaceholder},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), EmailPlaceholder},
	{regexp.MustCompile(`[A-Za-z]:\\[^\\]+(\\[^\\]+)+`), PathPlaceholder},
	{regexp.MustCompile(`(?:/[\w.-]+){2,}`), PathPlaceholder},
}

// String returns s with every sensitive fragment replaced by its
// placeholder. SQL is recognised by upper-case keywords only, so prose
// such as "failed to update deck" passes through.
func String(s string) string {
	if s == "" {
		return s
	}
	for _, r := range rules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

// Error redacts err.Error(). A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
