package auth

import "strings"

// authKeywords is the fixed set of authorization-related keywords
// matched against agent output. The match is a heuristic: output that
// mentions "access" for unrelated reasons is a false positive, and
// phrasings outside the set are false negatives. Both are accepted
// limitations of keyword classification.
var authKeywords = []string{
	"authentication",
	"authorize",
	"authorization",
	"auth",
	"sign in",
	"login",
	"access",
	"permission",
	"credential",
	"認証",
	"アクセス",
	"許可",
	"権限",
	"ログイン",
}

// NeedsAuthentication reports whether text likely describes an
// authorization failure. The check is a case-insensitive substring
// match against the fixed keyword set.
func NeedsAuthentication(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range authKeywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
