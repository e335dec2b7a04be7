package security_test

import (
	"testing"

	"github.com/goliatone/go-authflow/security"
	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "  john.doe@example.com ", expected: "john.doe@example.com"},
		{name: "script body removed", input: "hi<script>alert('x')</script>there", expected: "hithere"},
		{name: "mixed case script", input: "<SCRIPT type=\"text/javascript\">steal()</SCRIPT>ok", expected: "ok"},
		{name: "tags stripped keep text", input: "<b>bold</b> text", expected: "bold text"},
		{name: "disallowed characters", input: "a;b'c\"d(e)", expected: "abcde"},
		{name: "hyphen and underscore kept", input: "first-name_last", expected: "first-name_last"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, security.Sanitize(tt.input))
		})
	}
}

func TestClassifyVulnerability(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected security.Vulnerability
	}{
		{name: "sql quote", input: "'; DROP TABLE", expected: security.VulnerabilitySQLInjection},
		{name: "sql comment", input: "admin --", expected: security.VulnerabilitySQLInjection},
		{name: "sql keyword", input: "1 UNION SELECT password", expected: security.VulnerabilitySQLInjection},
		{name: "xss script", input: "<script>alert(1)</script>", expected: security.VulnerabilityXSS},
		{name: "xss handler", input: "<img src=x onerror=alert(1)>", expected: security.VulnerabilityXSS},
		{name: "xss scheme", input: "javascript:alert(1)", expected: security.VulnerabilityXSS},
		{name: "path traversal", input: "../../etc/passwd", expected: security.VulnerabilityPathTraversal},
		{name: "encoded traversal", input: "%2e%2e%2fetc", expected: security.VulnerabilityPathTraversal},
		{name: "windows traversal", input: `..\windows`, expected: security.VulnerabilityPathTraversal},
		{name: "shell pipe", input: "file.txt | cat", expected: security.VulnerabilityCommandInjection},
		{name: "shell subst", input: "$(whoami)", expected: security.VulnerabilityCommandInjection},
		{name: "clean", input: "john.doe@example.com", expected: security.VulnerabilityNone},
		{name: "empty", input: "", expected: security.VulnerabilityNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, security.ClassifyVulnerability(tt.input))
		})
	}
}

func TestClassifyVulnerabilitySQLWinsWhenMultipleMatch(t *testing.T) {
	// matches sql (quote), xss (script) and path traversal
	input := "'<script>../../x"
	assert.Equal(t, security.VulnerabilitySQLInjection, security.ClassifyVulnerability(input))

	// ";" is both a SQL and a shell metacharacter
	assert.Equal(t, security.VulnerabilitySQLInjection, security.ClassifyVulnerability("ls; rm -rf /"))
}
