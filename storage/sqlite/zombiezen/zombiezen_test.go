package zombiezen

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	sent "github.com/revelaction/diachron/sentence"
	"github.com/revelaction/diachron/storage"
	"zombiezen.com/go/sqlite/sqlitex"
)

func newPool(t *testing.T) *sqlitex.Pool {
	t.Helper()
	pool, err := NewPool(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := CreateDocTables(pool); err != nil {
		t.Fatalf("failed to create doc tables: %v", err)
	}
	if err := CreateReportTables(pool); err != nil {
		t.Fatalf("failed to create report tables: %v", err)
	}
	return pool
}

func spanishDoc() sent.Doc {
	return sent.Doc{
		Title:    "cronica",
		Period:   "early_spanish",
		Language: "es",
		Labels:   []string{"prose", "chronicle"},
		Sentences: []sent.Sentence{
			{Id: 0, Text: "El rey vino.", Tokens: []sent.Token{
				{Index: 0, Text: "El", Lemma: "el", Pos: "DET", Tag: "Definite=Def|PronType=Art"},
				{Index: 1, Text: "rey", Lemma: "rey", Pos: "NOUN"},
				{Index: 2, Text: "vino", Lemma: "venir", Pos: "VERB"},
			}},
			{Id: 1, Text: "La reina no.", Tokens: []sent.Token{
				{Index: 0, Text: "La", Lemma: "El", Pos: "DET"},
				{Index: 1, Text: "reina", Lemma: "reina", Pos: "NOUN"},
				{Index: 2, Text: "no", Lemma: "no", Pos: "ADV"},
			}},
		},
	}
}

func TestDocStoreWriteRead(t *testing.T) {
	s := NewDocStore(newPool(t))

	if err := s.Write(spanishDoc()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Write(sent.Doc{Title: "caesar", Period: "classical_latin", Language: "la", Text: "Caesar Galliam vicit."}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	docs, err := s.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(docs) != 2 || docs[0].Title != "caesar" || docs[1].Period != "early_spanish" {
		t.Fatalf("unexpected list %+v", docs)
	}
	if len(docs[1].Labels) != 2 || len(docs[1].Sentences) != 0 {
		t.Errorf("unexpected metadata %+v", docs[1])
	}

	doc, err := s.Read(docs[1].Id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.NumTokens() != 6 || doc.Sentences[1].Text != "La reina no." || doc.Language != "es" {
		t.Errorf("unexpected doc %+v", doc)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("stored doc does not validate: %v", err)
	}

	raw, _ := s.Read(docs[0].Id)
	if raw.Text != "Caesar Galliam vicit." || raw.IsAnnotated() {
		t.Errorf("unexpected raw doc %+v", raw)
	}

	if _, err := s.Read(99); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDocStoreWriteReplaces(t *testing.T) {
	s := NewDocStore(newPool(t))

	for i := 0; i < 2; i++ {
		if err := s.Write(spanishDoc()); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	docs, _ := s.List()
	if len(docs) != 1 {
		t.Fatalf("expected the doc replaced, got %d docs", len(docs))
	}

	var n int
	s.FindCandidates([]string{"rey"}, 0, 10, func(sent.Sentence) error {
		n++
		return nil
	})
	if n != 1 {
		t.Errorf("expected stale lemma rows removed, got %d candidates", n)
	}
}

func TestDocStoreFindCandidates(t *testing.T) {
	s := NewDocStore(newPool(t))
	if err := s.Write(spanishDoc()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []sent.Sentence
	collect := func(st sent.Sentence) error {
		got = append(got, st)
		return nil
	}

	// lemmas are matched lower cased
	cursor, err := s.FindCandidates([]string{"EL"}, 0, 10, collect)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", got)
	}

	got = nil
	s.FindCandidates([]string{"el", "reina"}, 0, 10, collect)
	if len(got) != 1 || got[0].Text != "La reina no." || got[0].DocId == 0 {
		t.Errorf("unexpected candidates %+v", got)
	}

	got = nil
	next, _ := s.FindCandidates([]string{"el"}, cursor, 10, collect)
	if len(got) != 0 || next != cursor {
		t.Errorf("expected nothing after the cursor, got %+v", got)
	}
}

func TestDocStoreFindAnyCandidates(t *testing.T) {
	s := NewDocStore(newPool(t))
	if err := s.Write(spanishDoc()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []sent.Sentence
	collect := func(st sent.Sentence) error {
		got = append(got, st)
		return nil
	}

	// the second sentence holds both lemmas and is reported once
	cursor, err := s.FindAnyCandidates([]string{"REY", "el", "reina"}, 0, 10, collect)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Text != "El rey vino." || got[1].Text != "La reina no." {
		t.Fatalf("unexpected candidates %+v", got)
	}

	got = nil
	first, _ := s.FindAnyCandidates([]string{"reina", "rey"}, 0, 1, collect)
	if len(got) != 1 || got[0].Text != "El rey vino." || first >= cursor {
		t.Errorf("expected the first page to stop before %d, got %d %+v", cursor, first, got)
	}

	got = nil
	next, _ := s.FindAnyCandidates([]string{"reina", "rey"}, first, 1, collect)
	if len(got) != 1 || got[0].Text != "La reina no." || next != cursor {
		t.Errorf("unexpected second page %d %+v", next, got)
	}
}

func TestReportStore(t *testing.T) {
	s := NewReportStore(newPool(t))

	older := storage.Run{Id: "a", Created: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), Seed: 42, NumDocs: 3}
	newer := storage.Run{Id: "b", Created: older.Created.Add(time.Hour), Seed: 1 << 63, NumDocs: 5}

	for _, r := range []storage.Run{older, newer} {
		if err := s.WriteReport(r, []byte(`{"run_id":"`+r.Id+`"}`)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	runs, err := s.Runs()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 || runs[0].Id != "b" {
		t.Fatalf("expected newest first, got %+v", runs)
	}
	if runs[0].Seed != 1<<63 || !runs[1].Created.Equal(older.Created) || runs[1].NumDocs != 3 {
		t.Errorf("unexpected run metadata %+v", runs)
	}

	payload, err := s.Report("a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != `{"run_id":"a"}` {
		t.Errorf("unexpected payload %s", payload)
	}

	if _, err := s.Report("missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
