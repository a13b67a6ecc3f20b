package chunker

// CachedParsers reports how many parsers the extractor has built.
func (e *Extractor) CachedParsers() int { return len(e.parsers) }
