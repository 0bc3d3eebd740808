package words

import "strings"

// Entry is one glossary record used for end-of-game summaries.
type Entry struct {
	Word       string
	Definition string
	Synonym    string
}

func parseGlossary(s string) map[string]Entry {
	out := make(map[string]Entry)
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		for len(parts) < 3 {
			parts = append(parts, "")
		}
		w := strings.ToLower(strings.TrimSpace(parts[0]))
		if w == "" {
			continue
		}
		out[w] = Entry{
			Word:       w,
			Definition: strings.TrimSpace(parts[1]),
			Synonym:    strings.TrimSpace(parts[2]),
		}
	}
	return out
}

// Lookup returns the glossary entry for w, if any.
func Lookup(w string) (Entry, bool) {
	if err := Init(); err != nil {
		return Entry{}, false
	}
	e, ok := glossary[strings.ToLower(strings.TrimSpace(w))]
	return e, ok
}
