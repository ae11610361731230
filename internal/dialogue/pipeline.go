package dialogue

// Pipeline pairs an Extractor with a Resolver so callers configured at
// startup can run both stages in one call.
type Pipeline struct {
	extractor *Extractor
	resolver  *Resolver
}

// NewPipeline returns a Pipeline; nil stages fall back to the defaults.
func NewPipeline(extractor *Extractor, resolver *Resolver) *Pipeline {
	if extractor == nil {
		extractor = defaultExtractor
	}

	if resolver == nil {
		resolver = defaultResolver
	}

	return &Pipeline{extractor: extractor, resolver: resolver}
}

// Extract returns the attributed dialogue lines of chapter.
func (p *Pipeline) Extract(chapter Chapter, roster []Character) []Line {
	return p.resolver.Resolve(chapter.Content, p.extractor.ExtractRaw(chapter.Content), roster)
}

// Frequency returns the name frequency table of chapter.
func (p *Pipeline) Frequency(chapter Chapter, roster []Character) FrequencyTable {
	return p.resolver.CountFrequency(chapter.Content, roster)
}
