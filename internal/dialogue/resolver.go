package dialogue

import "strings"

// DefaultContextWindow is the number of runes searched on each side of an
// unlabeled quote when looking for a speaker name.
const DefaultContextWindow = 100

var defaultResolver = NewResolver()

// Resolver attributes raw matches to roster characters.
type Resolver struct {
	contextWindow int
}

// ResolverOption customises NewResolver.
type ResolverOption func(*Resolver)

// WithContextWindow overrides DefaultContextWindow. Non-positive values are
// ignored.
func WithContextWindow(runes int) ResolverOption {
	return func(r *Resolver) {
		if runes > 0 {
			r.contextWindow = runes
		}
	}
}

// NewResolver returns a Resolver using DefaultContextWindow unless overridden.
func NewResolver(opts ...ResolverOption) *Resolver {
	resolver := &Resolver{contextWindow: DefaultContextWindow}
	for _, opt := range opts {
		opt(resolver)
	}

	return resolver
}

// Resolve attributes matches with the default resolver.
func Resolve(text string, matches []RawMatch, roster []Character) []Line {
	return defaultResolver.Resolve(text, matches, roster)
}

// CountFrequency counts name occurrences with the default resolver.
func CountFrequency(text string, roster []Character) FrequencyTable {
	return defaultResolver.CountFrequency(text, roster)
}

// Extract runs the default extractor and resolver over a chapter.
func Extract(chapter Chapter, roster []Character) []Line {
	return NewPipeline(nil, nil).Extract(chapter, roster)
}

// Resolve returns one Line per match that can be attributed, in match order.
// Labeled matches are resolved by name containment only, so a blank label
// goes to the first named character; the others by the first roster name
// found near the quote.
func (r *Resolver) Resolve(text string, matches []RawMatch, roster []Character) []Line {
	lines := make([]Line, 0, len(matches))

	var runes []rune

	for _, match := range matches {
		var (
			speaker Character
			found   bool
		)

		if match.Labeled || match.Label != "" {
			speaker, found = findByLabel(roster, match.Label)
		} else {
			if runes == nil {
				runes = []rune(text)
			}

			speaker, found = findInContext(roster, r.contextAround(runes, match.Start))
		}

		if !found {
			continue
		}

		lines = append(lines, Line{
			Content:       match.Quoted,
			Speaker:       speaker,
			StartPosition: match.Start,
			EndPosition:   match.End,
		})
	}

	return lines
}

// CountFrequency returns, for each roster character, the number of
// non-overlapping occurrences of its name in text.
func (r *Resolver) CountFrequency(text string, roster []Character) FrequencyTable {
	table := make(FrequencyTable, 0, len(roster))

	for _, character := range roster {
		count := 0
		if character.Name != "" {
			count = strings.Count(text, character.Name)
		}

		table = append(table, FrequencyEntry{Character: character, Count: count})
	}

	return table
}

func (r *Resolver) contextAround(runes []rune, position int) string {
	start := max(0, position-r.contextWindow)
	end := min(len(runes), position+r.contextWindow)

	if start >= end {
		return ""
	}

	return string(runes[start:end])
}

func findByLabel(roster []Character, label string) (Character, bool) {
	for _, character := range roster {
		if character.Name == "" {
			continue
		}

		if character.Name == label ||
			strings.Contains(label, character.Name) ||
			strings.Contains(character.Name, label) {
			return character, true
		}
	}

	return Character{}, false
}

func findInContext(roster []Character, context string) (Character, bool) {
	for _, character := range roster {
		if character.Name != "" && strings.Contains(context, character.Name) {
			return character, true
		}
	}

	return Character{}, false
}
