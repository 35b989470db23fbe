package normalize

// defaultRules is the built-in dictation vocabulary. Order matters: longer
// phrases come before phrases they contain.
var defaultRules = []Rule{
	// comparison operators before their single-word parts
	{Phrase: "less than or equal", Replacement: "<="},
	{Phrase: "greater than or equal", Replacement: ">="},
	{Phrase: "less than", Replacement: "<"},
	{Phrase: "greater than", Replacement: ">"},
	{Phrase: "triple equals", Replacement: "==="},
	{Phrase: "double equals", Replacement: "=="},
	{Phrase: "not equals", Replacement: "!="},
	{Phrase: "not equal", Replacement: "!="},

	// logical operators
	{Phrase: "and and", Replacement: "&&"},
	{Phrase: "or or", Replacement: "||"},

	// brackets and parentheses
	{Phrase: "open paren", Replacement: "("},
	{Phrase: "close paren", Replacement: ")"},
	{Phrase: "left paren", Replacement: "("},
	{Phrase: "right paren", Replacement: ")"},
	{Phrase: "open bracket", Replacement: "["},
	{Phrase: "close bracket", Replacement: "]"},
	{Phrase: "left bracket", Replacement: "["},
	{Phrase: "right bracket", Replacement: "]"},
	{Phrase: "open brace", Replacement: "{"},
	{Phrase: "close brace", Replacement: "}"},
	{Phrase: "left brace", Replacement: "{"},
	{Phrase: "right brace", Replacement: "}"},
	{Phrase: "open curly", Replacement: "{"},
	{Phrase: "close curly", Replacement: "}"},

	// quotes
	{Phrase: "single quote", Replacement: "'"},
	{Phrase: "double quote", Replacement: `"`},
	{Phrase: "backtick", Replacement: "`"},

	// basic symbols
	{Phrase: "under score", Replacement: "_"},
	{Phrase: "underscore", Replacement: "_"},
	{Phrase: "at sign", Replacement: "@"},
	{Phrase: "dash", Replacement: "-"},
	{Phrase: "hyphen", Replacement: "-"},
	{Phrase: "equals", Replacement: "="},
	{Phrase: "plus", Replacement: "+"},
	{Phrase: "minus", Replacement: "-"},
	{Phrase: "asterisk", Replacement: "*"},
	{Phrase: "slash", Replacement: "/"},
	{Phrase: "backslash", Replacement: `\`},
	{Phrase: "pipe", Replacement: "|"},
	{Phrase: "ampersand", Replacement: "&"},
	{Phrase: "hashtag", Replacement: "#"},
	{Phrase: "hash", Replacement: "#"},
	{Phrase: "percent", Replacement: "%"},
	{Phrase: "caret", Replacement: "^"},
	{Phrase: "tilde", Replacement: "~"},

	// punctuation
	{Phrase: "semicolon", Replacement: ";"},
	{Phrase: "colon", Replacement: ":"},
	{Phrase: "comma", Replacement: ","},
	{Phrase: "question mark", Replacement: "?"},
	{Phrase: "exclamation mark", Replacement: "!"},
	{Phrase: "exclamation", Replacement: "!"},
	{Phrase: "period", Replacement: "."},
	{Phrase: "dot", Replacement: "."},

	// spoken digits
	{Phrase: "zero", Replacement: "0"},
	{Phrase: "one", Replacement: "1"},
	{Phrase: "two", Replacement: "2"},
	{Phrase: "three", Replacement: "3"},
	{Phrase: "four", Replacement: "4"},
	{Phrase: "five", Replacement: "5"},
	{Phrase: "six", Replacement: "6"},
	{Phrase: "seven", Replacement: "7"},
	{Phrase: "eight", Replacement: "8"},
	{Phrase: "nine", Replacement: "9"},
	{Phrase: "ten", Replacement: "10"},
	{Phrase: "eleven", Replacement: "11"},
	{Phrase: "twelve", Replacement: "12"},
	{Phrase: "twenty", Replacement: "20"},
	{Phrase: "thirty", Replacement: "30"},
	{Phrase: "forty", Replacement: "40"},
	{Phrase: "fifty", Replacement: "50"},
	{Phrase: "hundred", Replacement: "100"},
	{Phrase: "thousand", Replacement: "1000"},

	// identifier casing styles
	{Phrase: "camel case", Replacement: "camelCase"},
	{Phrase: "snake case", Replacement: "snake_case"},
	{Phrase: "kebab case", Replacement: "kebab-case"},
	{Phrase: "pascal case", Replacement: "PascalCase"},

	// language constants whose canonical casing matters
	{Phrase: "none", Replacement: "None", CaseSensitive: false},
}
