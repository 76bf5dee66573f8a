package embedding

import "strings"

// Tokenizer counts and splits text into the token units used for chunk
// budgeting. A whitespace word is the unit here; the budget in the config is
// sized conservatively so that word counts stay under the model token limit.
type Tokenizer interface {
	CountTokens(text string) int
	SplitTokens(text string) []string
	JoinTokens(tokens []string) string
}

// WordTokenizer splits on whitespace. Joining the split tokens of
// whitespace-normalized text reproduces the text unchanged.
type WordTokenizer struct{}

// CountTokens returns the number of whitespace-separated words in text.
func (t *WordTokenizer) CountTokens(text string) int {
	return len(t.SplitTokens(text))
}

// SplitTokens splits text on whitespace and returns the non-empty words.
func (t *WordTokenizer) SplitTokens(text string) []string {
	return strings.Fields(text)
}

// JoinTokens joins tokens with single spaces.
func (t *WordTokenizer) JoinTokens(tokens []string) string {
	return strings.Join(tokens, " ")
}
