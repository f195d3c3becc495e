package logger

import (
	"net/url"
	"strings"
)

// sensitiveParams are query parameter names whose values must never be
// logged. "token" covers the newsletter unsubscribe links.
var sensitiveParams = map[string]struct{}{
	"password": {},
	"token":    {},
	"secret":   {},
	"api_key":  {},
	"apikey":   {},
	"email":    {},
	"auth":     {},
}

// SanitizedEmail masks an address for logging: "u***@***.com". The local
// part keeps its first character; every domain label except the TLD is
// replaced.
func SanitizedEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "[invalid-email]"
	}

	local, domain := email[:at], email[at+1:]
	if len(local) > 1 {
		local = local[:1] + strings.Repeat("*", len(local)-1)
	}

	labels := strings.Split(domain, ".")
	for i := 0; i < len(labels)-1; i++ {
		labels[i] = strings.Repeat("*", len(labels[i]))
	}

	return local + "@" + strings.Join(labels, ".")
}

// SanitizeQueryString reports whether the query carries a sensitive
// parameter and must be redacted wholesale. Unparseable queries are treated
// as sensitive.
func SanitizeQueryString(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return true
	}

	for key := range values {
		if _, ok := sensitiveParams[strings.ToLower(key)]; ok {
			return true
		}
	}
	return false
}
