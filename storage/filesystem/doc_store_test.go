package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	sent "github.com/revelaction/diachron/sentence"
	"github.com/revelaction/diachron/storage"
)

const annotatedDoc = `{
  "title": "cronica",
  "language": "es",
  "sentences": [
    {"id": 0, "text": "El rey vino.", "tokens": [
      {"index": 0, "text": "El", "lemma": "el", "pos": "DET", "tag": "Definite=Def|PronType=Art"},
      {"index": 1, "text": "rey", "lemma": "rey", "pos": "NOUN"},
      {"index": 2, "text": "vino", "lemma": "venir", "pos": "VERB"}
    ]},
    {"id": 1, "text": "La reina no.", "tokens": [
      {"index": 0, "text": "La", "lemma": "el", "pos": "DET"},
      {"index": 1, "text": "reina", "lemma": "reina", "pos": "NOUN"},
      {"index": 2, "text": "no", "lemma": "no", "pos": "ADV"}
    ]}
  ]
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "medieval_latin", "chronica.txt"), "Ecclesia aedificata est.")
	writeFile(t, filepath.Join(root, "classical_latin", "caesar.txt"), "Caesar Galliam vicit.")
	writeFile(t, filepath.Join(root, "early_spanish", "cronica.json"), annotatedDoc)
	writeFile(t, filepath.Join(root, "early_spanish", "notes.md"), "ignored")
	writeFile(t, filepath.Join(root, "README.txt"), "ignored")
	return root
}

var languages = map[string]string{"classical_latin": "la", "medieval_latin": "la"}

func TestDocStoreList(t *testing.T) {
	s, err := NewDocStore(newCorpus(t), languages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	docs, err := s.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(docs) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(docs))
	}

	// periods sorted by name
	if docs[0].Period != "classical_latin" || docs[0].Title != "caesar" || docs[0].Language != "la" {
		t.Errorf("unexpected first doc %+v", docs[0])
	}
	if docs[1].Period != "early_spanish" || docs[2].Period != "medieval_latin" {
		t.Errorf("unexpected order: %s, %s", docs[1].Period, docs[2].Period)
	}
	for i, d := range docs {
		if d.Id != i || len(d.Sentences) != 0 {
			t.Errorf("unexpected metadata %+v", d)
		}
	}
}

func TestDocStoreRead(t *testing.T) {
	s, _ := NewDocStore(newCorpus(t), languages)

	raw, err := s.Read(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Text != "Caesar Galliam vicit." || raw.IsAnnotated() || raw.Language != "la" {
		t.Errorf("unexpected raw doc %+v", raw)
	}

	doc, err := s.Read(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.IsAnnotated() || doc.Language != "es" || doc.Period != "early_spanish" {
		t.Errorf("unexpected annotated doc %+v", doc)
	}
	if doc.NumTokens() != 6 || doc.Sentences[1].DocId != 1 {
		t.Errorf("unexpected sentences %+v", doc.Sentences)
	}

	if _, err := s.Read(3); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDocStorePreload(t *testing.T) {
	s, _ := NewDocStore(newCorpus(t), languages)

	var names []string
	err := s.Preload(func(current, total int, name string) {
		if total != 3 {
			t.Errorf("expected total 3, got %d", total)
		}
		names = append(names, name)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(names) != 3 {
		t.Errorf("expected 3 callbacks, got %v", names)
	}

	docs, _ := s.List()
	if docs[1].Language != "es" {
		t.Errorf("expected the language of the JSON doc after preload, got %q", docs[1].Language)
	}
}

func TestDocStoreFindCandidates(t *testing.T) {
	s, _ := NewDocStore(newCorpus(t), languages)

	var got []sent.Sentence
	cursor, err := s.FindCandidates([]string{"el", "rey"}, 0, 10, func(st sent.Sentence) error {
		got = append(got, st)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 1 || got[0].Text != "El rey vino." || got[0].DocId != 1 {
		t.Fatalf("unexpected candidates %+v", got)
	}

	// resuming after the last sentence finds nothing new
	got = nil
	next, _ := s.FindCandidates([]string{"el"}, cursor, 10, func(st sent.Sentence) error {
		got = append(got, st)
		return nil
	})
	if len(got) != 0 || next != cursor {
		t.Errorf("expected no more candidates, got %+v", got)
	}

	// limit
	got = nil
	first, _ := s.FindCandidates([]string{"el"}, 0, 1, func(st sent.Sentence) error {
		got = append(got, st)
		return nil
	})
	if len(got) != 1 || first != 1 {
		t.Errorf("expected one candidate and cursor 1, got %d, %d", len(got), first)
	}
}

func TestDocStoreFindAnyCandidates(t *testing.T) {
	s, _ := NewDocStore(newCorpus(t), languages)

	var got []string
	collect := func(st sent.Sentence) error {
		got = append(got, st.Text)
		return nil
	}

	// both sentences hold el, the first also rey
	if _, err := s.FindAnyCandidates([]string{"el", "rey"}, 0, 10, collect); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "El rey vino." || got[1] != "La reina no." {
		t.Fatalf("expected each sentence once, got %q", got)
	}

	// paging
	got = nil
	first, _ := s.FindAnyCandidates([]string{"rey", "reina"}, 0, 1, collect)
	next, _ := s.FindAnyCandidates([]string{"rey", "reina"}, first, 1, collect)
	if len(got) != 2 || got[1] != "La reina no." || first != 1 || next != 2 {
		t.Errorf("unexpected pages %q, cursors %d, %d", got, first, next)
	}
}

func TestDocStoreReadOnly(t *testing.T) {
	s, _ := NewDocStore(newCorpus(t), languages)
	if err := s.Write(sent.Doc{}); !errors.Is(err, storage.ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}
