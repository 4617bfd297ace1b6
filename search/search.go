package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/revelaction/diachron/annotate"
	"github.com/revelaction/diachron/classify"
	sent "github.com/revelaction/diachron/sentence"
	"github.com/revelaction/diachron/storage"
)

var ErrNoLemmas = errors.New("at least one lemma is needed for an indexed search")

// Hit is one classified determiner occurrence.
type Hit struct {
	DocId    int
	Title    string
	Language string

	Sentence sent.Sentence
	Token    sent.Token
	Decision classify.Decision
}

// Search finds determiner occurrences in a document repository and explains
// their classification.
type Search struct {
	repo       storage.DocReader
	classifier *classify.Classifier
	annotator  annotate.Annotator
	docID      *int
}

// New creates a new Search over the repository.
func New(dr storage.DocReader, c *classify.Classifier) *Search {
	return &Search{
		repo:       dr,
		classifier: c,
	}
}

// WithDocID restricts the search to a single document ID. The single
// document strategy (Read) is used instead of the lemma index.
func (s *Search) WithDocID(id int) *Search {
	s.docID = &id
	return s
}

// WithAnnotator sets the annotator used for raw documents in the single
// document strategy.
func (s *Search) WithAnnotator(a annotate.Annotator) *Search {
	s.annotator = a
	return s
}

// Determiners calls onHit for every DET token whose lemma is one of lemmas.
// With a doc ID and no lemmas every determiner of the doc is a hit.
//
// The indexed strategy pages through FindAnyCandidates from cursor, so a
// sentence holding several of the lemmas is visited once. It skips
// sentences of documents in languages without rules and returns the new
// cursor.
func (s *Search) Determiners(ctx context.Context, lemmas []string, cursor storage.Cursor, limit int, onHit func(Hit) error) (storage.Cursor, error) {
	wanted := map[string]bool{}
	for _, l := range lemmas {
		wanted[sent.Token{Lemma: l}.NormLemma()] = true
	}

	// Strategy 1: Single Document (No Index)
	if s.docID != nil {
		doc, err := s.repo.Read(*s.docID)
		if err != nil {
			return cursor, err
		}
		doc.Id = *s.docID

		if !doc.IsAnnotated() {
			if s.annotator == nil {
				return cursor, fmt.Errorf("doc %q: %w", doc.Title, annotate.ErrAnnotationUnavailable)
			}
			if doc, err = annotate.Doc(ctx, s.annotator, doc); err != nil {
				return cursor, err
			}
		}

		if !s.classifier.Supports(doc.Language) {
			return cursor, fmt.Errorf("doc %q: %w: %q", doc.Title, classify.ErrUnsupportedLanguage, doc.Language)
		}

		for _, st := range doc.Sentences {
			if err := s.sentence(doc, st, wanted, onHit); err != nil {
				return cursor, err
			}
		}
		return cursor, nil
	}

	// Strategy 2: Find candidates (indexed search)
	if len(wanted) == 0 {
		return cursor, ErrNoLemmas
	}

	docMap := make(map[int]sent.Doc)
	docs, err := s.repo.List()
	if err != nil {
		return cursor, fmt.Errorf("failed to list docs: %w", err)
	}
	for _, d := range docs {
		docMap[d.Id] = d
	}

	return s.repo.FindAnyCandidates(lemmas, cursor, limit, func(st sent.Sentence) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc := docMap[st.DocId]
		if !s.classifier.Supports(doc.Language) {
			return nil
		}
		return s.sentence(doc, st, wanted, onHit)
	})
}

func (s *Search) sentence(doc sent.Doc, st sent.Sentence, wanted map[string]bool, onHit func(Hit) error) error {
	for _, t := range st.Tokens {
		if t.Pos != sent.PosDet {
			continue
		}
		if len(wanted) > 0 && !wanted[t.NormLemma()] {
			continue
		}

		d, err := s.classifier.Explain(t, st, doc.Language)
		if err != nil {
			return err
		}

		hit := Hit{
			DocId:    doc.Id,
			Title:    doc.Title,
			Language: doc.Language,
			Sentence: st,
			Token:    t,
			Decision: d,
		}
		if err := onHit(hit); err != nil {
			return err
		}
	}
	return nil
}
