package security

import "regexp"

// Vulnerability is the category assigned by ClassifyVulnerability.
type Vulnerability string

const (
	VulnerabilityNone             Vulnerability = "none"
	VulnerabilitySQLInjection     Vulnerability = "sql_injection"
	VulnerabilityXSS              Vulnerability = "xss"
	VulnerabilityPathTraversal    Vulnerability = "path_traversal"
	VulnerabilityCommandInjection Vulnerability = "command_injection"
)

type vulnerabilityRule struct {
	kind     Vulnerability
	patterns []*regexp.Regexp
}

// order matters: first match wins
var vulnerabilityRules = []vulnerabilityRule{
	{
		kind: VulnerabilitySQLInjection,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`'|--|;|/\*|\*/`),
			regexp.MustCompile(`(?i)\b(union|select|insert|update|delete|drop|create|alter|exec|execute)\b\s`),
		},
	},
	{
		kind: VulnerabilityXSS,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)<\s*/?\s*script`),
			regexp.MustCompile(`(?i)(javascript|vbscript)\s*:`),
			regexp.MustCompile(`(?i)\bon[a-z]+\s*=`),
			regexp.MustCompile(`(?i)<\s*(iframe|object|embed|svg)\b`),
		},
	},
	{
		kind: VulnerabilityPathTraversal,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\.\.[/\\]`),
			regexp.MustCompile(`(?i)(%2e%2e|\.\.)(%2f|%5c)`),
			regexp.MustCompile(`(?i)%2e%2e[/\\]`),
		},
	},
	{
		kind: VulnerabilityCommandInjection,
		patterns: []*regexp.Regexp{
			regexp.MustCompile("[&|`]"),
			regexp.MustCompile(`\$[({]`),
			regexp.MustCompile(`[\r\n]`),
		},
	},
}

// ClassifyVulnerability screens input against SQL injection, XSS, path
// traversal and shell metacharacter patterns, in that order, and returns the
// first category that matches. It is a heuristic and a defense-in-depth
// layer only.
func ClassifyVulnerability(input string) Vulnerability {
	for _, rule := range vulnerabilityRules {
		for _, p := range rule.patterns {
			if p.MatchString(input) {
				return rule.kind
			}
		}
	}
	return VulnerabilityNone
}
