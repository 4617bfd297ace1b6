package sentence

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Coarse (UPOS) tags the pipeline cares about.
const (
	PosDet   = "DET"
	PosAux   = "AUX"
	PosVerb  = "VERB"
	PosNoun  = "NOUN"
	PosPropn = "PROPN"
	PosAdj   = "ADJ"
	PosPunct = "PUNCT"
	PosOther = "X"
)

// ErrMalformedDocument is returned when a Doc has no sentences or a corrupt
// token stream.
var ErrMalformedDocument = errors.New("malformed document")

// Doc is a named text bound to a historical period and a language.
type Doc struct {
	Id int `json:"id"`

	Title string `json:"title"`

	Period   string `json:"period"`
	Language string `json:"language"`

	Labels []string `json:"labels,omitempty"`

	// Text is the raw text. It is only needed when the Doc has not been
	// annotated yet.
	Text string `json:"text,omitempty"`

	Sentences []Sentence `json:"sentences"`
}

// Sentence is an ordered sequence of tokens plus its surface text.
type Sentence struct {
	Id     int     `json:"id"`
	DocId  int     `json:"doc_id"`
	Text   string  `json:"text"`
	Tokens []Token `json:"tokens"`
}

// Token represents a word of the sentence, with POS and metadata.
type Token struct {
	Id         int    `json:"id"`
	Head       int    `json:"head"`
	SentenceId int    `json:"sent"`
	Pos        string `json:"pos"`
	Dep        string `json:"dep"`

	// A string containing the morphological features, as produced by spacy
	// or stanza:
	//
	//      Definite=Def|Gender=Fem|Number=Sing|PronType=Art
	//
	// Older token files prefix the coarse tag: DET__Definite=Def|...
	Tag string `json:"tag"`

	// the index of the start character of the token in the original doc (set by spacy, stanza)
	Idx int `json:"idx"`

	// The unmodified word
	Text string `json:"text"`

	// The lemma of the word
	Lemma string `json:"lemma"`

	// The index of the word in the sentence, starting at 0.
	Index int `json:"index"`
}

// Feature is one morphological key=value pair.
type Feature struct {
	Key   string
	Value string
}

func (f Feature) String() string {
	return f.Key + "=" + f.Value
}

// Features returns the morphological features of the token sorted by key.
// Multi-valued features (Case=Acc,Dat) are kept as one pair.
func (t Token) Features() []Feature {
	feats := t.Tag
	if i := strings.Index(feats, "__"); i >= 0 {
		feats = feats[i+2:]
	}

	if feats == "" || feats == "_" {
		return nil
	}

	var out []Feature
	for _, part := range strings.Split(feats, "|") {
		k, v, ok := strings.Cut(part, "=")
		if !ok || k == "" {
			continue
		}
		out = append(out, Feature{Key: k, Value: v})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].Value < out[j].Value
	})

	return out
}

// HasFeature reports whether the token carries key=value. A multi-valued
// feature matches if any of its comma separated values is value.
func (t Token) HasFeature(key, value string) bool {
	for _, f := range t.Features() {
		if f.Key != key {
			continue
		}
		for _, v := range strings.Split(f.Value, ",") {
			if v == value {
				return true
			}
		}
	}
	return false
}

// NormLemma returns the lower cased lemma, falling back to the text when the
// annotator left the lemma empty.
func (t Token) NormLemma() string {
	if t.Lemma == "" {
		return strings.ToLower(t.Text)
	}
	return strings.ToLower(t.Lemma)
}

// Next returns the token following the token at index i, if any.
func (s Sentence) Next(i int) (Token, bool) {
	if i < 0 || i+1 >= len(s.Tokens) {
		return Token{}, false
	}
	return s.Tokens[i+1], true
}

// NumTokens returns the number of tokens over all sentences.
func (d Doc) NumTokens() int {
	n := 0
	for _, s := range d.Sentences {
		n += len(s.Tokens)
	}
	return n
}

// IsAnnotated reports whether the doc already holds sentences.
func (d Doc) IsAnnotated() bool {
	return len(d.Sentences) > 0
}

// Validate checks the token stream of an annotated Doc.
func (d Doc) Validate() error {
	if len(d.Sentences) == 0 {
		return fmt.Errorf("%w: %q has no sentences", ErrMalformedDocument, d.Title)
	}

	for i, s := range d.Sentences {
		if len(s.Tokens) == 0 {
			return fmt.Errorf("%w: %q sentence %d has no tokens", ErrMalformedDocument, d.Title, i)
		}

		for j, t := range s.Tokens {
			if t.Index != j {
				return fmt.Errorf("%w: %q sentence %d token %d has index %d", ErrMalformedDocument, d.Title, i, j, t.Index)
			}
		}
	}

	return nil
}
