package auth

import "testing"

func TestNeedsAuthentication(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want bool
	}{
		{"sign in phrase", "Please sign in first", true},
		{"uppercase keyword", "AUTHENTICATION required to continue", true},
		{"embedded keyword", "You do not have permission to view this page", true},
		{"japanese keyword", "このページへのアクセスには認証が必要です", true},
		{"login keyword", "ログインしてください", true},
		{"auth required json", `{"auth_required": true, "message": "Atlassian authentication is required."}`, true},
		{"clean success", "Page created successfully", false},
		{"empty", "", false},
		{"unrelated", "Here are the search results for your query", false},
		// Accepted heuristic false positive: "access" in an
		// unrelated sentence still classifies as auth-needed.
		{"false positive access", "The page describes database access patterns", true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NeedsAuthentication(tc.text); got != tc.want {
				t.Fatalf("NeedsAuthentication(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}
