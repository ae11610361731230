package dialogue

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Pattern fragments shared by both scan passes.
const (
	labelSeparators   = `:：`
	multiLineSpacing  = `[\s\x{3000}]*`
	singleLineSpacing = `[ \t\x{3000}]*`
	lineBreak         = `\n`
)

// quoteStyle is one pair of quotation delimiters.
type quoteStyle struct {
	open  string
	close string
}

// quoteStyles is ordered by precedence: when two styles could match at the
// same offset, the earlier one wins.
var quoteStyles = []quoteStyle{
	{open: `"`, close: `"`},
	{open: "“", close: "”"},
	{open: "（", close: "）"},
	{open: "「", close: "」"},
	{open: "『", close: "』"},
}

var defaultExtractor = NewExtractor()

// RawMatch is a quoted span found by the extractor before attribution.
// Start and End are rune offsets of the whole match; QuoteStart is the rune
// offset of the opening delimiter and equals Start for unlabeled matches.
type RawMatch struct {
	Quoted string
	Label  string
	// Labeled is set when a label preceded the quote, even one that trims
	// to "". A non-empty Label counts as labeled on its own.
	Labeled    bool
	Start      int
	End        int
	QuoteStart int
}

// Extractor scans text for quoted dialogue. It is immutable once built.
type Extractor struct {
	labeled   *regexp.Regexp
	unlabeled *regexp.Regexp
}

type extractorOptions struct {
	singleLine bool
}

// ExtractorOption customises NewExtractor.
type ExtractorOption func(*extractorOptions)

// WithSingleLine stops labels and quotes from crossing a line break.
func WithSingleLine() ExtractorOption {
	return func(o *extractorOptions) {
		o.singleLine = true
	}
}

// NewExtractor compiles the labeled and unlabeled scan patterns.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	var options extractorOptions
	for _, opt := range opts {
		opt(&options)
	}

	excluded := ""
	spacing := multiLineSpacing

	if options.singleLine {
		excluded = lineBreak
		spacing = singleLineSpacing
	}

	labeled := make([]string, 0, len(quoteStyles))
	unlabeled := make([]string, 0, len(quoteStyles))

	for _, style := range quoteStyles {
		quote := fmt.Sprintf(`%s([^%s%s]*)%s`,
			regexp.QuoteMeta(style.open), style.close, excluded, regexp.QuoteMeta(style.close))

		labeled = append(labeled, fmt.Sprintf(`([^%s%s%s%s]+)[%s]%s%s`,
			labelSeparators, style.open, style.close, excluded, labelSeparators, spacing, quote))
		unlabeled = append(unlabeled, quote)
	}

	return &Extractor{
		labeled:   regexp.MustCompile(strings.Join(labeled, "|")),
		unlabeled: regexp.MustCompile(strings.Join(unlabeled, "|")),
	}
}

// ExtractRaw runs the default extractor over text.
func ExtractRaw(text string) []RawMatch {
	return defaultExtractor.ExtractRaw(text)
}

// ExtractRaw returns every labeled match in scan order followed by every
// unlabeled match that does not start where a labeled match or its quote
// starts.
func (e *Extractor) ExtractRaw(text string) []RawMatch {
	offsets := newRuneOffsets(text)

	matches := e.scanLabeled(text, offsets)

	taken := make(map[int]struct{}, 2*len(matches))
	for _, match := range matches {
		taken[match.Start] = struct{}{}
		taken[match.QuoteStart] = struct{}{}
	}

	for _, match := range e.scanUnlabeled(text, offsets) {
		if _, duplicate := taken[match.Start]; duplicate {
			continue
		}

		matches = append(matches, match)
	}

	return matches
}

func (e *Extractor) scanLabeled(text string, offsets runeOffsets) []RawMatch {
	var matches []RawMatch

	for _, loc := range e.labeled.FindAllStringSubmatchIndex(text, -1) {
		// Each style contributes a (label, quote) group pair.
		for style := range quoteStyles {
			group := 2 + style*4
			labelStart, labelEnd := loc[group], loc[group+1]
			quoteStart, quoteEnd := loc[group+2], loc[group+3]

			if labelStart < 0 || quoteStart < 0 {
				continue
			}

			matches = append(matches, RawMatch{
				Quoted:     strings.TrimSpace(text[quoteStart:quoteEnd]),
				Label:      strings.TrimSpace(text[labelStart:labelEnd]),
				Labeled:    true,
				Start:      offsets.at(loc[0]),
				End:        offsets.at(loc[1]),
				QuoteStart: offsets.at(quoteStart - len(quoteStyles[style].open)),
			})

			break
		}
	}

	return matches
}

func (e *Extractor) scanUnlabeled(text string, offsets runeOffsets) []RawMatch {
	var matches []RawMatch

	for _, loc := range e.unlabeled.FindAllStringSubmatchIndex(text, -1) {
		for style := range quoteStyles {
			group := 2 + style*2
			if loc[group] < 0 {
				continue
			}

			start := offsets.at(loc[0])

			matches = append(matches, RawMatch{
				Quoted:     strings.TrimSpace(text[loc[group]:loc[group+1]]),
				Start:      start,
				End:        offsets.at(loc[1]),
				QuoteStart: start,
			})

			break
		}
	}

	return matches
}

// runeOffsets maps byte offsets of a string to rune offsets. A nil table
// means the string is ASCII and both offsets coincide.
type runeOffsets []int

func newRuneOffsets(text string) runeOffsets {
	ascii := true

	for i := range len(text) {
		if text[i] >= utf8.RuneSelf {
			ascii = false

			break
		}
	}

	if ascii {
		return nil
	}

	table := make(runeOffsets, len(text)+1)
	runeIndex := 0

	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		for j := range size {
			table[i+j] = runeIndex
		}

		i += size
		runeIndex++
	}

	table[len(text)] = runeIndex

	return table
}

func (r runeOffsets) at(byteOffset int) int {
	if r == nil {
		return byteOffset
	}

	return r[byteOffset]
}
