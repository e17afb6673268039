package phoneme

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// Lexicon is a dictionary-backed Language: a JSON file carrying the phoneme
// inventory and ranked candidate pronunciations per word.
type Lexicon struct {
	code      string
	inventory []string
	words     map[string][][]string
}

type lexiconFile struct {
	Language string                `json:"language"`
	Phonemes []string              `json:"phonemes"`
	Words    map[string][][]string `json:"words"`
}

// Marker symbols every inventory must carry so encoded sequences can express
// breaks and stress. Prepended in this order when the lexicon omits them.
var requiredMarkers = []string{BreakMajor, BreakMinor, BreakWord, StressPrimary, StressSecondary}

// LoadLexicon reads a lexicon from a JSON file.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	var lf lexiconFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %w", path, err)
	}
	if lf.Language == "" {
		return nil, fmt.Errorf("lexicon %s: language not set", path)
	}
	return NewLexicon(lf.Language, lf.Phonemes, lf.Words), nil
}

// NewLexicon builds a lexicon language from parts. Words are stored
// lowercase; the inventory keeps file order so phoneme ids stay stable.
func NewLexicon(code string, inventory []string, words map[string][][]string) *Lexicon {
	present := make(map[string]bool, len(inventory))
	for _, p := range inventory {
		present[p] = true
	}
	var full []string
	for _, m := range requiredMarkers {
		if !present[m] {
			full = append(full, m)
		}
	}
	full = append(full, inventory...)

	lower := make(map[string][][]string, len(words))
	for w, prons := range words {
		lower[strings.ToLower(w)] = prons
	}
	return &Lexicon{code: code, inventory: full, words: lower}
}

func (l *Lexicon) Code() string { return l.code }

func (l *Lexicon) Inventory() []string {
	return append([]string(nil), l.inventory...)
}

// Tokenize splits text into sentences and clean words, expanding currency
// amounts and numbers into words according to opts.
func (l *Lexicon) Tokenize(text string, opts TokenizeOptions) ([]RawSentence, error) {
	var sentences []RawSentence
	for _, chunk := range splitSentences(text) {
		var words []string
		for _, tok := range strings.Fields(chunk) {
			expanded, err := l.expandToken(tok, opts)
			if err != nil {
				return nil, err
			}
			words = append(words, expanded...)
		}
		sentences = append(sentences, RawSentence{Words: words})
	}
	return sentences, nil
}

func (l *Lexicon) expandToken(tok string, opts TokenizeOptions) ([]string, error) {
	if opts.ReplaceCurrency {
		if amount, ok := strings.CutPrefix(tok, "$"); ok {
			return expandCurrency(cleanWord(amount))
		}
	}

	word := cleanWord(tok)
	if word == "" {
		return nil, nil
	}

	if opts.NumberConverters {
		if base, converter, ok := strings.Cut(word, "_"); ok && isDigits(base) {
			return convertNumber(base, converter)
		}
	}
	if isDigits(word) {
		return convertNumber(word, converterCardinal)
	}
	return []string{word}, nil
}

// Pronunciations returns the ranked candidate pronunciations for a word.
// An unknown word yields no candidates and is skipped by the caller.
func (l *Lexicon) Pronunciations(word string, opts PronounceOptions) ([][]string, error) {
	if opts.InlinePronunciations {
		// Inline form: /h_ə_ˈloʊ/ with underscores between phonemes.
		if inner, ok := cutSurrounding(word, "/"); ok {
			return [][]string{strings.Split(inner, "_")}, nil
		}
	}

	index := 0
	if opts.WordIndexes {
		if base, n, ok := splitWordIndex(word); ok {
			word = base
			index = n - 1
		}
	}

	prons := l.words[strings.ToLower(word)]
	if len(prons) == 0 {
		return nil, nil
	}
	if index > 0 {
		if index >= len(prons) {
			return nil, fmt.Errorf("word %q has %d pronunciations, index %d requested", word, len(prons), index+1)
		}
		return [][]string{prons[index]}, nil
	}
	return prons, nil
}

func splitWordIndex(word string) (base string, n int, ok bool) {
	i := strings.LastIndex(word, "_")
	if i <= 0 || i == len(word)-1 {
		return "", 0, false
	}
	n, err := strconv.Atoi(word[i+1:])
	if err != nil || n < 1 {
		return "", 0, false
	}
	return word[:i], n, true
}

func cutSurrounding(s, mark string) (string, bool) {
	if len(s) > 2*len(mark) && strings.HasPrefix(s, mark) && strings.HasSuffix(s, mark) {
		return s[len(mark) : len(s)-len(mark)], true
	}
	return "", false
}

var sentenceEnders = map[rune]bool{'.': true, '!': true, '?': true, ';': true, '\n': true}

func splitSentences(text string) []string {
	runes := []rune(text)
	var chunks []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}
	for i, r := range runes {
		// A period between digits is a decimal point, not a boundary.
		if r == '.' && i > 0 && i+1 < len(runes) && isDigitRune(runes[i-1]) && isDigitRune(runes[i+1]) {
			current.WriteRune(r)
			continue
		}
		if sentenceEnders[r] {
			flush()
			continue
		}
		current.WriteRune(r)
	}
	flush()
	return chunks
}

func isDigitRune(r rune) bool { return r >= '0' && r <= '9' }

// cleanWord lowercases and strips surrounding punctuation, keeping internal
// apostrophes, underscores (word_N and N_converter forms), slashes (inline
// pronunciations), and decimal points.
func cleanWord(tok string) string {
	tok = strings.TrimFunc(tok, func(r rune) bool {
		return (unicode.IsPunct(r) || unicode.IsSymbol(r)) && r != '_' && r != '/' && r != 'ˈ' && r != 'ˌ'
	})
	return strings.ToLower(tok)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
