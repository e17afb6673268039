package phoneme

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownPhoneme is returned when a symbol has no id in the vocabulary.
// Encoding never substitutes a default id: a miss means the phonemizer and
// the model's trained inventory disagree, which must surface loudly.
var ErrUnknownPhoneme = errors.New("unknown phoneme")

// Vocabulary maps phoneme symbols to stable integer ids for one language.
type Vocabulary struct {
	lang    string
	ids     map[string]int64
	symbols []string
}

var vocabCache = struct {
	sync.Mutex
	byLang map[string]*Vocabulary
}{byLang: make(map[string]*Vocabulary)}

// VocabularyFor returns the vocabulary for the language, building it from
// the language's phoneme inventory on first use. The cache lives for the
// process; concurrent first calls for the same language build exactly once.
func VocabularyFor(lang Language) *Vocabulary {
	vocabCache.Lock()
	defer vocabCache.Unlock()

	if v, ok := vocabCache.byLang[lang.Code()]; ok {
		return v
	}
	v := newVocabulary(lang.Code(), lang.Inventory())
	vocabCache.byLang[lang.Code()] = v
	return v
}

func newVocabulary(code string, inventory []string) *Vocabulary {
	v := &Vocabulary{
		lang:    code,
		ids:     make(map[string]int64, len(inventory)),
		symbols: append([]string(nil), inventory...),
	}
	for i, s := range inventory {
		v.ids[s] = int64(i)
	}
	return v
}

// Len returns the number of known symbols.
func (v *Vocabulary) Len() int { return len(v.symbols) }

// Encode maps symbols to ids. An unknown symbol is a fatal lookup error.
func (v *Vocabulary) Encode(symbols []string) ([]int64, error) {
	ids := make([]int64, len(symbols))
	for i, s := range symbols {
		id, ok := v.ids[s]
		if !ok {
			return nil, fmt.Errorf("%w: %q at position %d (language %s)", ErrUnknownPhoneme, s, i, v.lang)
		}
		ids[i] = id
	}
	return ids, nil
}

// Decode maps ids back to symbols.
func (v *Vocabulary) Decode(ids []int64) ([]string, error) {
	symbols := make([]string, len(ids))
	for i, id := range ids {
		if id < 0 || id >= int64(len(v.symbols)) {
			return nil, fmt.Errorf("phoneme id %d out of range (language %s)", id, v.lang)
		}
		symbols[i] = v.symbols[id]
	}
	return symbols, nil
}
