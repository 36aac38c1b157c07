// Package extractor pulls JSON objects out of free-form LLM output by trying
// an ordered list of extraction strategies until one yields an acceptable object.
package extractor

import "github.com/tildaslashalef/reviewstack/internal/loggy"

// Extractor runs strategies in order; the first acceptable object wins
type Extractor struct {
	strategies []Strategy
	accept     func(Object) bool
	logger     *loggy.Logger
}

// New creates an Extractor. A nil accept admits any object.
func New(logger *loggy.Logger, accept func(Object) bool, strategies ...Strategy) *Extractor {
	if accept == nil {
		accept = func(Object) bool { return true }
	}
	return &Extractor{
		strategies: strategies,
		accept:     accept,
		logger:     logger,
	}
}

// Extract returns the first acceptable object and the name of the strategy that produced it
func (e *Extractor) Extract(text string) (Object, string, bool) {
	for _, s := range e.strategies {
		obj, ok := s.Extract(text)
		if !ok {
			e.logger.Debug("Extraction strategy found nothing", "strategy", s.Name)
			continue
		}
		if !e.accept(obj) {
			e.logger.Debug("Extraction strategy produced an unusable object", "strategy", s.Name, "keys", len(obj))
			continue
		}
		e.logger.Debug("Extracted JSON object", "strategy", s.Name, "keys", len(obj))
		return obj, s.Name, true
	}
	return nil, "", false
}
