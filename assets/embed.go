// Package assets embeds the per-length word lists and the small glossary used
// for end-of-game definitions when the remote lookup is unavailable.
//
// Files:
//   - wordlist_en_N.txt: one lowercase word of length N per line (N = 3..7).
//   - glossary_en.txt:   "word|definition|synonym" lines.
//
// Lines that are empty or start with "#" are ignored.
package assets

import (
	"bufio"
	"embed"
	"fmt"
	"strings"
)

//go:embed wordlist_en_*.txt glossary_en.txt
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// WordList returns the raw lines of the word list for the given language and length.
func WordList(lang string, length int) ([]string, error) {
	return readLines(fmt.Sprintf("wordlist_%s_%d.txt", lang, length))
}

// GlossaryLines returns the raw "word|definition|synonym" lines for a language.
func GlossaryLines(lang string) ([]string, error) {
	return readLines(fmt.Sprintf("glossary_%s.txt", lang))
}
