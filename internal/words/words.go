// internal/words/words.go
//
// Word list management for the engine, the AI opponent and the reference backend.
//
// Responsibilities:
//   - Load every embedded wordlist_<lang>_<n>.txt once (or the same layout from WORDS_DIR).
//   - Keep per-(lang, length) lists and a lookup set for validation.
//   - Supply RandomAnswer, List, IsAllowed and the glossary lookup.
//
// Constraints:
//   • Words are lowercase alphabetic a–z of exactly the length named by the file.
//   • Initialization is run once (sync.Once); lists are treated as read-only afterwards.

package words

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/ST10258766/Wordleandroidclient/assets"
)

// DefaultLang is the only language shipped in the embedded assets.
const DefaultLang = "en"

type listKey struct {
	lang   string
	length int
}

var (
	initOnce   sync.Once
	lists      map[listKey][]string
	allowedSet map[string]struct{}
	glossary   map[string]Entry
	initialErr error
)

// Init loads word lists and the glossary exactly once.
// Returns an error if no list could be loaded.
func Init() error {
	initOnce.Do(func() {
		var src fs.FS = assets.FS
		if dir := os.Getenv("WORDS_DIR"); dir != "" {
			src = os.DirFS(dir)
		}
		initialErr = load(src)
	})
	return initialErr
}

func load(src fs.FS) error {
	names, err := fs.Glob(src, "wordlist_*_*.txt")
	if err != nil {
		return fmt.Errorf("words: glob: %w", err)
	}

	lists = make(map[listKey][]string)
	allowedSet = make(map[string]struct{})
	for _, name := range names {
		key, ok := parseListName(name)
		if !ok {
			continue
		}
		raw, err := fs.ReadFile(src, name)
		if err != nil {
			return fmt.Errorf("words: read %s: %w", name, err)
		}
		ws := normalizeLines(string(raw), key.length)
		lists[key] = ws
		for _, w := range ws {
			allowedSet[w] = struct{}{}
		}
	}
	if len(lists) == 0 {
		return errors.New("words: no word lists found")
	}

	glossary = make(map[string]Entry)
	if raw, err := fs.ReadFile(src, "glossary_"+DefaultLang+".txt"); err == nil {
		glossary = parseGlossary(string(raw))
	}
	return nil
}

// parseListName extracts (lang, length) from "wordlist_<lang>_<n>.txt".
func parseListName(name string) (listKey, bool) {
	base := strings.TrimSuffix(strings.TrimPrefix(name, "wordlist_"), ".txt")
	lang, n, ok := strings.Cut(base, "_")
	if !ok || lang == "" {
		return listKey{}, false
	}
	length, err := strconv.Atoi(n)
	if err != nil || length <= 0 {
		return listKey{}, false
	}
	return listKey{lang: lang, length: length}, true
}

// normalizeLines turns a multiline string into lowercase words of the given
// length, skipping comments and anything that is not a–z.
func normalizeLines(s string, length int) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, line := range strings.Split(s, "\n") {
		w := strings.TrimSpace(strings.ToLower(line))
		if strings.HasPrefix(w, "#") || len(w) != length || !isAlpha(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// List returns a copy of the word list for lang and length.
// The copy is the caller's to mutate (the AI filters it in place).
func List(lang string, length int) []string {
	if err := Init(); err != nil {
		return nil
	}
	src := lists[listKey{lang: strings.ToLower(lang), length: length}]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// HasLength reports whether a list of the given length exists for lang.
func HasLength(lang string, length int) bool {
	if err := Init(); err != nil {
		return false
	}
	return len(lists[listKey{lang: strings.ToLower(lang), length: length}]) > 0
}

// RandomAnswer returns a cryptographically random word of the given length.
// Falls back to "crane" when nothing of that length is loaded.
func RandomAnswer(lang string, length int) string {
	if err := Init(); err != nil {
		return "crane"
	}
	src := lists[listKey{lang: strings.ToLower(lang), length: length}]
	if len(src) == 0 {
		return "crane"
	}
	nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(len(src))))
	return src[nBig.Int64()]
}

// IsAllowed reports whether w is in any loaded list.
func IsAllowed(w string) bool {
	if err := Init(); err != nil {
		return false
	}
	_, ok := allowedSet[strings.ToLower(strings.TrimSpace(w))]
	return ok
}

// Stats returns (lists loaded, distinct allowed words).
func Stats() (listCount int, allowedCount int) {
	if err := Init(); err != nil {
		return 0, 0
	}
	return len(lists), len(allowedSet)
}
