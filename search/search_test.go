package search

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/revelaction/diachron/annotate"
	"github.com/revelaction/diachron/classify"
	"github.com/revelaction/diachron/storage"
	"github.com/revelaction/diachron/storage/filesystem"
)

const cronica = `{
  "title": "cronica",
  "language": "es",
  "sentences": [
    {"id": 0, "text": "El rey vino.", "tokens": [
      {"index": 0, "text": "El", "lemma": "el", "pos": "DET", "tag": "Definite=Def|PronType=Art"},
      {"index": 1, "text": "rey", "lemma": "rey", "pos": "NOUN"},
      {"index": 2, "text": "vino", "lemma": "venir", "pos": "VERB"}
    ]},
    {"id": 1, "text": "Su reina no.", "tokens": [
      {"index": 0, "text": "Su", "lemma": "su", "pos": "DET"},
      {"index": 1, "text": "reina", "lemma": "reina", "pos": "NOUN"},
      {"index": 2, "text": "no", "lemma": "no", "pos": "ADV"}
    ]},
    {"id": 2, "text": "La reina vino.", "tokens": [
      {"index": 0, "text": "La", "lemma": "el", "pos": "DET"},
      {"index": 1, "text": "reina", "lemma": "reina", "pos": "NOUN"},
      {"index": 2, "text": "vino", "lemma": "venir", "pos": "VERB"}
    ]}
  ]
}`

func newStore(t *testing.T) *filesystem.DocStore {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		filepath.Join(root, "classical_latin", "laudes.txt"): "Omnes viros laudat.",
		filepath.Join(root, "early_spanish", "cronica.json"):  cronica,
	}
	for path, content := range files {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	s, err := filesystem.NewDocStore(root, map[string]string{"classical_latin": "la", "early_spanish": "es"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestDeterminersIndexed(t *testing.T) {
	s := New(newStore(t), classify.NewDefault())

	var hits []Hit
	_, err := s.Determiners(context.Background(), []string{"EL"}, 0, 10, func(h Hit) error {
		hits = append(hits, h)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %+v", hits)
	}

	for _, h := range hits {
		if h.Decision.Label != classify.DefiniteArticle || h.Title != "cronica" || h.Language != "es" {
			t.Errorf("unexpected hit %+v", h)
		}
	}

	if hits[1].Token.Text != "La" || hits[1].Sentence.Id != 2 {
		t.Errorf("unexpected second hit %+v", hits[1])
	}
}

func TestDeterminersIndexedAnyLemma(t *testing.T) {
	s := New(newStore(t), classify.NewDefault())

	var got []string
	cursor, err := s.Determiners(context.Background(), []string{"el", "su"}, 0, 10, func(h Hit) error {
		got = append(got, h.Token.Text)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"El", "Su", "La"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hit %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	// resuming from the returned cursor finds nothing twice
	got = nil
	if _, err := s.Determiners(context.Background(), []string{"el", "su"}, cursor, 10, func(h Hit) error {
		got = append(got, h.Token.Text)
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no hits after the cursor, got %v", got)
	}
}

func TestDeterminersNoLemmas(t *testing.T) {
	s := New(newStore(t), classify.NewDefault())

	_, err := s.Determiners(context.Background(), nil, 0, 10, func(Hit) error { return nil })
	if !errors.Is(err, ErrNoLemmas) {
		t.Errorf("expected ErrNoLemmas, got %v", err)
	}
}

func TestDeterminersSingleDoc(t *testing.T) {
	store := newStore(t)

	// ids follow the sorted period directories
	s := New(store, classify.NewDefault()).WithDocID(1)

	var rules []string
	_, err := s.Determiners(context.Background(), nil, 0, 0, func(h Hit) error {
		rules = append(rules, h.Decision.Rule)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"definite article lemma", "non-article lemma", "definite article lemma"}
	if len(rules) != len(want) {
		t.Fatalf("expected %v, got %v", want, rules)
	}
	for i := range want {
		if rules[i] != want[i] {
			t.Errorf("hit %d: expected rule %q, got %q", i, want[i], rules[i])
		}
	}
}

func TestDeterminersRawDoc(t *testing.T) {
	store := newStore(t)

	_, err := New(store, classify.NewDefault()).WithDocID(0).Determiners(context.Background(), nil, 0, 0, func(Hit) error { return nil })
	if !errors.Is(err, annotate.ErrAnnotationUnavailable) {
		t.Fatalf("expected ErrAnnotationUnavailable, got %v", err)
	}

	lx := annotate.NewLexicon()
	lx.Add("la",
		annotate.Entry{Form: "omnes", Lemma: "omnis", Pos: "DET"},
		annotate.Entry{Form: "viros", Lemma: "vir", Pos: "NOUN"},
		annotate.Entry{Form: "laudat", Lemma: "laudo", Pos: "VERB"},
	)

	var hits []Hit
	_, err = New(store, classify.NewDefault()).WithDocID(0).WithAnnotator(lx).Determiners(context.Background(), []string{"omnis"}, 0, 0, func(h Hit) error {
		hits = append(hits, h)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(hits) != 1 || hits[0].Decision.Label != classify.NotArticle || hits[0].Title != "laudes" {
		t.Errorf("unexpected hits %+v", hits)
	}
}

func TestDeterminersUnknownDoc(t *testing.T) {
	_, err := New(newStore(t), classify.NewDefault()).WithDocID(7).Determiners(context.Background(), nil, 0, 0, func(Hit) error { return nil })
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
