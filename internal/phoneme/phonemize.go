package phoneme

import (
	"errors"
	"fmt"
)

// TokenizeOptions control text normalization during tokenization.
type TokenizeOptions struct {
	// NumberConverters allows the N_converter form in input text to select
	// how a number is spoken (cardinal, ordinal, ordinal_num, year, currency).
	NumberConverters bool
	// ReplaceCurrency expands currency amounts into words ($5 -> five dollars).
	ReplaceCurrency bool
}

// PronounceOptions control pronunciation lookup for a single word.
type PronounceOptions struct {
	// WordIndexes allows the word_N form to select the Nth pronunciation.
	WordIndexes bool
	// InlinePronunciations allows literal phoneme strings embedded in the
	// input, delimited by slashes (/həˈloʊ/).
	InlinePronunciations bool
}

// RawSentence is a tokenized sentence before phonemization.
type RawSentence struct {
	Words []string
}

// Language is the tokenizer/phonemizer capability the pipeline depends on.
// Implementations provide language-specific segmentation rules, ranked
// candidate pronunciations per word, and a stable phoneme inventory.
type Language interface {
	Code() string
	Tokenize(text string, opts TokenizeOptions) ([]RawSentence, error)
	Pronunciations(word string, opts PronounceOptions) ([][]string, error)
	Inventory() []string
}

// Sentence holds the phonemization result for one tokenized sentence.
type Sentence struct {
	Words    []string
	Phonemes []string
}

// Options bundle the configuration for one Phonemize call.
type Options struct {
	Tokenize  TokenizeOptions
	Pronounce PronounceOptions
	// Map remaps phonemes into another language's inventory. Nil disables
	// remapping; a miss passes the phoneme through unchanged.
	Map *Map
}

// Phonemize tokenizes text into sentences and produces the phoneme symbol
// sequence for each. Per word, the first candidate pronunciation is selected;
// this policy is load-bearing for determinism and must not change. A leading
// stress marker is split off into its own symbol. Sentences that yield no
// phonemes are skipped. Every emitted sentence ends with a major break,
// plus one more as a padding guard for the mel model.
func Phonemize(lang Language, text string, opts Options) ([]Sentence, error) {
	if lang == nil {
		return nil, errors.New("phonemize: language not set")
	}

	raw, err := lang.Tokenize(text, opts.Tokenize)
	if err != nil {
		return nil, fmt.Errorf("tokenize %q: %w", text, err)
	}

	var sentences []Sentence
	for _, rs := range raw {
		symbols, err := phonemizeSentence(lang, rs, opts)
		if err != nil {
			return nil, err
		}
		if len(symbols) == 0 {
			continue
		}

		if symbols[len(symbols)-1] != BreakMajor {
			symbols = append(symbols, BreakMajor)
		}
		// Second trailing major break stabilizes mel output at utterance
		// boundaries.
		symbols = append(symbols, BreakMajor)

		sentences = append(sentences, Sentence{
			Words:    rs.Words,
			Phonemes: symbols,
		})
	}

	return sentences, nil
}

func phonemizeSentence(lang Language, rs RawSentence, opts Options) ([]string, error) {
	var symbols []string
	for _, word := range rs.Words {
		prons, err := lang.Pronunciations(word, opts.Pronounce)
		if err != nil {
			return nil, fmt.Errorf("pronounce %q: %w", word, err)
		}
		if len(prons) == 0 {
			continue
		}

		// First candidate pronunciation, always.
		for _, p := range prons[0] {
			if p == "" {
				continue
			}
			if HasStress(p) {
				stress, rest := splitStress(p)
				symbols = append(symbols, remap(opts.Map, stress))
				if rest == "" {
					continue
				}
				p = rest
			}
			symbols = append(symbols, remap(opts.Map, p))
		}
	}
	return symbols, nil
}

func splitStress(p string) (stress, rest string) {
	for _, r := range p {
		stress = string(r)
		rest = p[len(stress):]
		break
	}
	return stress, rest
}

func remap(m *Map, p string) string {
	if m == nil {
		return p
	}
	return m.Apply(p)
}
