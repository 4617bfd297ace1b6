// Package construction finds candidate analytical (periphrastic) verb
// constructions: an auxiliary or verb followed, within a short window, by a
// participle.
package construction

import (
	"fmt"

	"github.com/revelaction/diachron/classify"
	sent "github.com/revelaction/diachron/sentence"
)

const (
	DefaultWindow = 3

	// PossibleAnalytical is the pattern type of an aux/verb + participle window.
	PossibleAnalytical = "possible_analytical"
)

// Candidate is one possible construction.
//
// The sentence
//
//	Ecclesia aedificata est et ab episcopo consecrata fuit
//
// yields, for the anchor "est", the candidate [est ... consecrata]. The same
// trailing participle can be captured by more than one anchor.
type Candidate struct {
	Anchor  sent.Token `json:"anchor"`
	Trigger sent.Token `json:"trigger"`
	Type    string     `json:"type"`

	// Pattern is the human readable "anchor ... trigger"
	Pattern string `json:"pattern"`

	SentenceId int    `json:"sentence_id"`
	Context    string `json:"context"`
}

// Detector scans sentences for construction candidates.
type Detector struct {
	// Window is the number of tokens after the anchor that are scanned.
	Window int

	// enabled holds the languages undergoing the synthetic to analytical
	// shift. Detection is gated off for the rest.
	enabled map[string]bool

	// supported is the set of known languages; nil accepts any language.
	supported map[string]bool
}

// NewDetector returns a Detector enabled for the given languages. When
// classifier is not nil, languages it does not support are rejected.
func NewDetector(window int, languages []string, classifier *classify.Classifier) *Detector {
	if window <= 0 {
		window = DefaultWindow
	}

	d := &Detector{Window: window, enabled: map[string]bool{}}
	for _, l := range languages {
		d.enabled[l] = true
	}

	if classifier != nil {
		d.supported = map[string]bool{}
		for _, l := range classifier.Languages() {
			d.supported[l] = true
		}
	}

	return d
}

// Detect returns the candidates of one sentence in anchor order. The window
// never crosses the sentence boundary.
func (d *Detector) Detect(sentence sent.Sentence, language string) ([]Candidate, error) {
	if d.supported != nil && !d.supported[language] {
		return nil, fmt.Errorf("%w: %q", classify.ErrUnsupportedLanguage, language)
	}

	if !d.enabled[language] {
		return []Candidate{}, nil
	}

	candidates := []Candidate{}
	tokens := sentence.Tokens
	sentenceEnd := len(tokens) - 1

	for i, anchor := range tokens {
		if !isAnchor(anchor) {
			continue
		}

		// last token of the sentence, no possible window
		if i == sentenceEnd {
			continue
		}

		requiredEnd := i + d.Window
		if requiredEnd > sentenceEnd {
			requiredEnd = sentenceEnd
		}

		for _, t := range tokens[i+1 : requiredEnd+1] {
			if !isParticiple(t) {
				continue
			}

			candidates = append(candidates, Candidate{
				Anchor:     anchor,
				Trigger:    t,
				Type:       PossibleAnalytical,
				Pattern:    anchor.Text + " ... " + t.Text,
				SentenceId: sentence.Id,
				Context:    sentence.Text,
			})
		}
	}

	return candidates, nil
}

func isAnchor(t sent.Token) bool {
	return t.Pos == sent.PosAux || t.Pos == sent.PosVerb
}

func isParticiple(t sent.Token) bool {
	return t.Pos == sent.PosVerb && t.HasFeature("VerbForm", "Part")
}
