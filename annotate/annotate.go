// Package annotate defines the boundary to the morphological annotator that
// turns raw text into sentences of tagged, lemmatized tokens.
package annotate

import (
	"context"
	"errors"

	sent "github.com/revelaction/diachron/sentence"
)

// ErrAnnotationUnavailable is returned when no model is loaded for the
// requested language.
var ErrAnnotationUnavailable = errors.New("annotation unavailable")

// Annotator turns raw text of a language into annotated sentences. The
// returned sentences are in text order, with token Index values 0..n-1.
type Annotator interface {
	Annotate(ctx context.Context, text, language string) ([]sent.Sentence, error)
}

// Func adapts an ordinary function to the Annotator interface.
type Func func(ctx context.Context, text, language string) ([]sent.Sentence, error)

func (f Func) Annotate(ctx context.Context, text, language string) ([]sent.Sentence, error) {
	return f(ctx, text, language)
}

// Doc annotates the raw text of doc when it has no sentences yet. The
// returned Doc is a copy; doc is not modified.
func Doc(ctx context.Context, a Annotator, doc sent.Doc) (sent.Doc, error) {
	if doc.IsAnnotated() {
		return doc, nil
	}

	sentences, err := a.Annotate(ctx, doc.Text, doc.Language)
	if err != nil {
		return sent.Doc{}, err
	}

	for i := range sentences {
		sentences[i].DocId = doc.Id
	}

	doc.Sentences = sentences
	return doc, nil
}
