package stat

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/revelaction/diachron/classify"
	"github.com/revelaction/diachron/construction"
	sent "github.com/revelaction/diachron/sentence"
)

// Count names usable as rate numerators.
const (
	CountArticles      = "articles"
	CountDefinite      = "definite_article"
	CountIndefinite    = "indefinite_article"
	CountConstructions = "constructions"
	CountAuxiliaries   = "auxiliaries"
)

var ErrUnknownCount = errors.New("unknown count")

// CountNames returns every count name in report order.
func CountNames() []string {
	return []string{CountArticles, CountDefinite, CountIndefinite, CountConstructions, CountAuxiliaries}
}

// Metrics holds the per-document counts. It is built once by Aggregate and
// read only afterwards.
type Metrics struct {
	Title    string `json:"title"`
	Period   string `json:"period"`
	Language string `json:"language"`

	NumSentences int `json:"num_sentences"`

	// WordCount is the rate denominator: every token, whatever its tag.
	WordCount int `json:"word_count"`

	Labels map[classify.Label]int `json:"labels"`

	// VerbFeatures counts feature occurrences on VERB tokens: a verb with
	// three features increments three counters.
	VerbFeatures map[string]int `json:"verb_features"`

	Constructions []construction.Candidate `json:"constructions"`

	NumAux  int `json:"num_aux"`
	NumVerb int `json:"num_verb"`
}

// TotalArticles is the number of definite and indefinite articles.
func (m Metrics) TotalArticles() int {
	total := 0
	for label, n := range m.Labels {
		if label.IsArticle() {
			total += n
		}
	}
	return total
}

// Count returns the named count.
func (m Metrics) Count(name string) (int, error) {
	switch name {
	case CountArticles:
		return m.TotalArticles(), nil
	case CountDefinite:
		return m.Labels[classify.DefiniteArticle], nil
	case CountIndefinite:
		return m.Labels[classify.IndefiniteArticle], nil
	case CountConstructions:
		return len(m.Constructions), nil
	case CountAuxiliaries:
		return m.NumAux, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCount, name)
}

// SyntheticFeatures returns the number of distinct verb features that mark a
// synthetic form: any tense, or the inflected passive.
func (m Metrics) SyntheticFeatures() int {
	n := 0
	for f := range m.VerbFeatures {
		if strings.HasPrefix(f, "Tense=") || f == "Voice=Pass" {
			n++
		}
	}
	return n
}

// FeatureNames returns the verb feature keys sorted by name.
func (m Metrics) FeatureNames() []string {
	names := make([]string, 0, len(m.VerbFeatures))
	for f := range m.VerbFeatures {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}

// Handler aggregates documents with a shared classifier and detector.
type Handler struct {
	classifier *classify.Classifier
	detector   *construction.Detector
}

func NewHandler(c *classify.Classifier, d *construction.Detector) *Handler {
	return &Handler{
		classifier: c,
		detector:   d,
	}
}

// Aggregate computes the Metrics of an annotated doc. The doc is not
// modified. Errors are sent.ErrMalformedDocument or
// classify.ErrUnsupportedLanguage.
func (h *Handler) Aggregate(doc sent.Doc) (Metrics, error) {
	if err := doc.Validate(); err != nil {
		return Metrics{}, err
	}

	m := Metrics{
		Title:         doc.Title,
		Period:        doc.Period,
		Language:      doc.Language,
		NumSentences:  len(doc.Sentences),
		Labels:        map[classify.Label]int{},
		VerbFeatures:  map[string]int{},
		Constructions: []construction.Candidate{},
	}

	for _, sentence := range doc.Sentences {
		m.WordCount += len(sentence.Tokens)

		for _, token := range sentence.Tokens {
			switch token.Pos {
			case sent.PosVerb:
				m.NumVerb++
				for _, f := range token.Features() {
					m.VerbFeatures[f.String()]++
				}
			case sent.PosAux:
				m.NumAux++
			case sent.PosDet:
				label, err := h.classifier.Classify(token, sentence, doc.Language)
				if err != nil {
					return Metrics{}, err
				}
				m.Labels[label]++
			}
		}

		candidates, err := h.detector.Detect(sentence, doc.Language)
		if err != nil {
			return Metrics{}, err
		}
		m.Constructions = append(m.Constructions, candidates...)
	}

	return m, nil
}
