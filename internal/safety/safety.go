// Package safety blocks destructive shell commands and filesystem paths
// that would escape the workspace sandbox.
package safety

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

type denyRule struct {
	pattern *regexp.Regexp
	reason  string
}

// DenyPatterns are shell command shapes that are always rejected, regardless
// of which tool issued them, unless danger mode is active.
var DenyPatterns = []denyRule{
	{regexp.MustCompile(`\brm\s+(-[a-zA-Z]*f[a-zA-Z]*\s+)?/\s*$`), "destructive filesystem operation"},
	{regexp.MustCompile(`\brm\s+-[a-zA-Z]*r[a-zA-Z]*f[a-zA-Z]*\s+/\s*$`), "destructive filesystem operation"},
	{regexp.MustCompile(`(?:^|/|\b)sudo\b`), "privilege escalation"},
	{regexp.MustCompile(`\bchmod\s+0?777\b`), "overly permissive file permissions"},
	{regexp.MustCompile(`\bmkfs\b`), "filesystem destruction"},
	{regexp.MustCompile(`\bdd\s+.*of=/dev/`), "raw disk write"},
	{regexp.MustCompile(`\bforkbomb\b|:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`), "fork bomb"},
	{regexp.MustCompile(`\bcurl\s+.*\|\s*(?:bash|sh|zsh|dash)\b`), "piping remote content to shell"},
	{regexp.MustCompile(`\bwget\s+.*\|\s*(?:bash|sh|zsh|dash)\b`), "piping remote content to shell"},
	{regexp.MustCompile(`\bbase64\b.*\|\s*(?:bash|sh|zsh|dash)\b`), "piping decoded content to shell"},
	{regexp.MustCompile(`xmrig|cryptominer|minerd|stratum\+tcp`), "crypto mining"},
	{regexp.MustCompile(`\beval\b.*\$\(`), "dangerous eval"},
	{regexp.MustCompile(`>\s*/dev/sd[a-z]`), "raw disk write"},
	{regexp.MustCompile(`\bnc\s+-[a-zA-Z]*l`), "potential reverse shell"},
	{regexp.MustCompile(`\bdocker\s+.*--privileged\b`), "privileged container"},
	{regexp.MustCompile(`\bpython3?\s+-c\s+['"].*\b(?:os\.system|subprocess|exec)\b`), "code execution evasion"},
}

// InteractivePatterns match commands that hang waiting for stdin. They are
// blocked with a message steering the model toward a non-interactive
// equivalent rather than a bare "denied".
var InteractivePatterns = []denyRule{
	{regexp.MustCompile(`\bnpx\s+create-`), "interactive scaffolding (npx create-*); write project files manually instead"},
	{regexp.MustCompile(`\bnpm\s+create\b`), "interactive scaffolding (npm create); write project files manually instead"},
	{regexp.MustCompile(`\bnpm\s+init(?:\s+(?:[^-\s]\S*|-[^yY\s]\S*|-[yY]\S+))*\s*$`), "interactive npm init; use 'npm init -y' or write package.json manually"},
	{regexp.MustCompile(`\byarn\s+create\b`), "interactive scaffolding (yarn create); write project files manually instead"},
}

// CheckCommand checks a shell command against the deny and interactive
// pattern lists. It returns "" when the command is safe, or a denial reason.
// In danger mode, every command is considered safe.
func CheckCommand(command string, dangerMode bool) string {
	if dangerMode {
		return ""
	}
	for _, rule := range DenyPatterns {
		if rule.pattern.MatchString(command) {
			return rule.reason
		}
	}
	for _, rule := range InteractivePatterns {
		if rule.pattern.MatchString(command) {
			return rule.reason
		}
	}
	return ""
}

// CheckPath reports "" if path resolves within workspace, or a denial reason
// otherwise.
func CheckPath(path, workspace string) string {
	resolved, err := resolvePath(path, workspace)
	if err != nil {
		return fmt.Sprintf("invalid path: %v", err)
	}
	if isOutsideWorkspace(resolved, workspace) {
		if strings.Contains(path, "..") {
			return "path traversal detected"
		}
		return "path outside workspace"
	}
	return ""
}

// ResolvePath resolves path relative to workspace and returns an error if it
// would escape the workspace root.
func ResolvePath(path, workspace string) (string, error) {
	resolved, err := resolvePath(path, workspace)
	if err != nil {
		return "", err
	}
	if isOutsideWorkspace(resolved, workspace) {
		return "", fmt.Errorf("path %s resolves outside workspace: %s", path, resolved)
	}
	return resolved, nil
}

func resolvePath(path, workspace string) (string, error) {
	workspaceAbs, err := filepath.Abs(workspace)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Clean(filepath.Join(workspaceAbs, path)), nil
}

func isOutsideWorkspace(resolved, workspace string) bool {
	workspaceAbs, err := filepath.Abs(workspace)
	if err != nil {
		return true
	}
	rel, err := filepath.Rel(workspaceAbs, resolved)
	if err != nil {
		return true
	}
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
