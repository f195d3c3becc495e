package security

import (
	"regexp"
	"strings"
)

// patternRule pairs a compiled signature with a stable name used in audit
// logs. Names are log identifiers, not user-facing text.
type patternRule struct {
	name string
	re   *regexp.Regexp
}

// PatternMatcher screens request paths, query strings and bodies for known
// injection and traversal signatures. Matching is case-insensitive and
// intentionally blunt: a hit marks the whole request malicious.
type PatternMatcher struct {
	rules []patternRule
}

// NewPatternMatcher compiles the signature set. The set is fixed at build
// time; operators tune enforcement via the block controller, not by editing
// signatures at runtime.
func NewPatternMatcher() *PatternMatcher {
	specs := []struct{ name, expr string }{
		{"xss_script_tag", `<script[^>]*>`},
		{"xss_javascript_uri", `javascript:`},
		{"xss_eval", `eval\(`},
		{"xss_cookie_access", `document\.cookie`},
		{"sqli_union_select", `union.*select`},
		{"sqli_drop_table", `drop.*table`},
		{"sqli_insert_into", `insert.*into`},
		{"traversal_dotdot", `\.\./`},
		{"traversal_etc_passwd", `etc/passwd`},
		{"traversal_proc_environ", `proc/self/environ`},
	}

	rules := make([]patternRule, 0, len(specs))
	for _, spec := range specs {
		rules = append(rules, patternRule{
			name: spec.name,
			re:   regexp.MustCompile(`(?i)` + spec.expr),
		})
	}
	return &PatternMatcher{rules: rules}
}

// Match reports the name of the first signature found in input, if any.
func (m *PatternMatcher) Match(input string) (string, bool) {
	if input == "" {
		return "", false
	}
	for _, rule := range m.rules {
		if rule.re.MatchString(input) {
			return rule.name, true
		}
	}
	return "", false
}

// MatchAny checks several request fragments and reports the first hit.
func (m *PatternMatcher) MatchAny(inputs ...string) (string, bool) {
	for _, input := range inputs {
		if name, ok := m.Match(input); ok {
			return name, true
		}
	}
	return "", false
}

// ContainsSpamKeywords reports whether the message body hits at least
// minDistinct of the known promotional keywords. Keyword hits count once
// each regardless of repetition.
func ContainsSpamKeywords(message string, keywords []string, minDistinct int) bool {
	if minDistinct <= 0 || len(keywords) == 0 {
		return false
	}
	distinct := 0
	for _, keyword := range keywords {
		if strings.Contains(message, keyword) {
			distinct++
			if distinct >= minDistinct {
				return true
			}
		}
	}
	return false
}
