package normalize

import "testing"

func TestApplyDefaultRules(t *testing.T) {
	n := Default()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"symbols", "user underscore name equals value", "user _ name = value"},
		{"parens", "print open paren close paren", "print ( )"},
		{"comparison longest match wins", "a less than or equal b", "a <= b"},
		{"logical", "a and and b or or c", "a && b || c"},
		{"file extension spacing", "open config dot json", "open config.json"},
		{"digit joining", "port eight zero eight zero", "port 8080"},
		{"digit joining long run", "one two three four five", "12345"},
		{"digit joining separate runs", "four four get five", "44 get 5"},
		{"digit pair", "version one two", "version 12"},
		{"case insensitive match", "Open Paren Dash Close Paren", "( - )"},
		{"casing styles", "use snake case here", "use snake_case here"},
		{"no match passthrough", "hello world", "hello world"},
		{"empty", "", ""},
		{"whitespace collapsed", "a  equals   b", "a = b"},
		{"word boundary respected", "dashboard", "dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Apply(tt.in); got != tt.want {
				t.Errorf("Apply(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestApplyCustomRules(t *testing.T) {
	n := New([]Rule{
		{Phrase: "langle", Replacement: "<"},
		{Phrase: "SELECT", Replacement: "SELECT", CaseSensitive: true},
	})
	if got := n.Apply("a langle b"); got != "a < b" {
		t.Errorf("Apply() = %q, want %q", got, "a < b")
	}
	// case sensitive rule must not touch differently cased text
	if got := n.Apply("select star"); got != "select star" {
		t.Errorf("Apply() = %q, want %q", got, "select star")
	}
}
