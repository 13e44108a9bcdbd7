package quoting

import "testing"

func TestStringLiteral(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		input       string
		backslashes bool
		want        string
	}{
		{"empty", "", false, "''"},
		{"plain", "hello", false, "'hello'"},
		{"single quote", "it's", false, "'it''s'"},
		{"backslash kept", `a\b`, false, `'a\b'`},
		{"backslash escaped", `a\b`, true, `'a\\b'`},
		{"unicode with quote", "café's", false, "'café''s'"},
		{"injection attempt", "'; DROP TABLE users; --", false, "'''; DROP TABLE users; --'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StringLiteral(tt.input, tt.backslashes); got != tt.want {
				t.Errorf("StringLiteral(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIdentifierQuoting(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		quote func(string) string
		input string
		want  string
	}{
		{"double simple", DoubleQuote, "users", `"users"`},
		{"double embedded", DoubleQuote, `us"ers`, `"us""ers"`},
		{"double injection", DoubleQuote, `users"."passwords`, `"users"".""passwords"`},
		{"backtick simple", Backtick, "users", "`users`"},
		{"backtick embedded", Backtick, "us`ers", "`us``ers`"},
		{"bracket simple", Bracket, "users", "[users]"},
		{"bracket embedded", Bracket, "us]ers", "[us]]ers]"},
		{"bracket opening kept", Bracket, "us[ers", "[us[ers]"},
		{"empty", Bracket, "", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.quote(tt.input); got != tt.want {
				t.Errorf("quote(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSkipQuoted(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		start int
		want  int
	}{
		{"not quoted", "abc", 0, 0},
		{"single", "'a b' x", 0, 5},
		{"doubled quote", "'it''s' x", 0, 7},
		{"double quoted identifier", `"col" = 1`, 0, 5},
		{"bracket", "[a]]b] x", 0, 6},
		{"backtick", "`t` x", 0, 3},
		{"unterminated", "'abc", 0, 4},
		{"offset", "x 'y'", 2, 5},
		{"past end", "x", 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SkipQuoted(tt.input, tt.start); got != tt.want {
				t.Errorf("SkipQuoted(%q, %d) = %d, want %d", tt.input, tt.start, got, tt.want)
			}
		})
	}
}
