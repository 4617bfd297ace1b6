package annotate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	sent "github.com/revelaction/diachron/sentence"
)

const spanishLexicon = `# form	lemma	upos	feats
el	el	DET	Definite=Def|Gender=Masc|Number=Sing|PronType=Art
la	el	DET	Definite=Def|Gender=Fem|Number=Sing|PronType=Art
los	el	DET	Definite=Def|Gender=Masc|Number=Plur|PronType=Art
rey	rey	NOUN	Gender=Masc|Number=Sing
conquistó	conquistar	VERB	Mood=Ind|Number=Sing|Person=3|Tense=Past|VerbForm=Fin
ciudad	ciudad	NOUN	_
`

func writeLexicon(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lexicon.tsv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}
	return path
}

func TestLexiconLoadAndAnnotate(t *testing.T) {
	lx := NewLexicon()
	defer lx.Close()

	if err := lx.Load("es", writeLexicon(t, spanishLexicon)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sentences, err := lx.Annotate(context.Background(), "El rey conquistó la ciudad. Los soldados son valientes.", "es")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(sentences))
	}

	doc := sent.Doc{Sentences: sentences}
	if doc.NumTokens() != 10 {
		t.Errorf("expected 10 tokens, got %d", doc.NumTokens())
	}

	// the period between the sentences is a token, the closing one is not
	stop := sentences[0].Tokens[5]
	if stop.Text != "." || stop.Pos != sent.PosPunct || stop.Idx != 26 || stop.Index != 5 {
		t.Errorf("unexpected boundary token %+v", stop)
	}

	last := sentences[1].Tokens[len(sentences[1].Tokens)-1]
	if last.Text != "valientes" {
		t.Errorf("expected the text to end on a word, got %+v", last)
	}

	first := sentences[0]
	if first.Text != "El rey conquistó la ciudad." {
		t.Errorf("unexpected sentence text %q", first.Text)
	}

	el := first.Tokens[0]
	if el.Text != "El" || el.Lemma != "el" || el.Pos != sent.PosDet || !el.HasFeature("PronType", "Art") {
		t.Errorf("unexpected token %+v", el)
	}

	if first.Tokens[4].Tag != "" {
		t.Errorf("expected no features for _, got %q", first.Tokens[4].Tag)
	}

	// unknown form
	soldados := sentences[1].Tokens[1]
	if soldados.Pos != sent.PosOther || soldados.Lemma != "soldados" {
		t.Errorf("unexpected unknown token %+v", soldados)
	}

	if sentences[1].Id != 1 || sentences[1].Tokens[0].Index != 0 || sentences[1].Tokens[0].Idx != 28 {
		t.Errorf("unexpected positions: %+v", sentences[1].Tokens[0])
	}
}

func TestLexiconIndexesAreValid(t *testing.T) {
	lx := NewLexicon()
	lx.Add("la")

	sentences, err := lx.Annotate(context.Background(), "Caesar Galliam vicit! Quid; tum", "la")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the trailing fragment without terminator is a sentence too
	if len(sentences) != 3 {
		t.Fatalf("expected 3 sentences, got %d", len(sentences))
	}

	if err := (sent.Doc{Title: "t", Sentences: sentences}).Validate(); err != nil {
		t.Errorf("annotated doc does not validate: %v", err)
	}

	// Caesar Galliam vicit ! | Quid ; | tum
	got := []int{len(sentences[0].Tokens), len(sentences[1].Tokens), len(sentences[2].Tokens)}
	if got[0] != 4 || got[1] != 2 || got[2] != 1 {
		t.Errorf("unexpected token counts %v", got)
	}

	id := 0
	for _, s := range sentences {
		for _, tk := range s.Tokens {
			if tk.Id != id {
				t.Fatalf("expected running token id %d, got %+v", id, tk)
			}
			id++
		}
	}
}

func TestLexiconSkipsEmptySentences(t *testing.T) {
	lx := NewLexicon()
	lx.Add("la")

	sentences, _ := lx.Annotate(context.Background(), "... !? ", "la")
	if len(sentences) != 0 {
		t.Errorf("expected no sentences, got %+v", sentences)
	}
}

func TestLexiconUnavailable(t *testing.T) {
	lx := NewLexicon()

	_, err := lx.Annotate(context.Background(), "texto", "es")
	if !errors.Is(err, ErrAnnotationUnavailable) {
		t.Errorf("expected ErrAnnotationUnavailable, got %v", err)
	}
}

func TestLexiconMalformedLine(t *testing.T) {
	lx := NewLexicon()

	err := lx.Load("es", writeLexicon(t, "el\tel\n"))
	if err == nil {
		t.Fatalf("expected error for a two field line")
	}

	if len(lx.Languages()) != 0 {
		t.Errorf("expected no language loaded after a failed load")
	}
}

func TestLexiconEmptyFile(t *testing.T) {
	lx := NewLexicon()

	if err := lx.Load("pt", writeLexicon(t, "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := lx.Annotate(context.Background(), "o rei", "pt"); err != nil {
		t.Errorf("expected an empty lexicon to annotate, got %v", err)
	}
}

func TestLexiconCancelled(t *testing.T) {
	lx := NewLexicon()
	lx.Add("la")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := lx.Annotate(ctx, "Caesar", "la"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDoc(t *testing.T) {
	calls := 0
	a := Func(func(ctx context.Context, text, language string) ([]sent.Sentence, error) {
		calls++
		return []sent.Sentence{{Text: text, Tokens: []sent.Token{{Text: text}}}}, nil
	})

	in := sent.Doc{Id: 3, Title: "raw", Language: "la", Text: "Roma"}

	out, err := Doc(context.Background(), a, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Sentences) != 1 || out.Sentences[0].DocId != 3 {
		t.Errorf("unexpected sentences %+v", out.Sentences)
	}

	if len(in.Sentences) != 0 {
		t.Errorf("input doc was modified")
	}

	// already annotated docs are not sent to the annotator
	if _, err := Doc(context.Background(), a, out); err != nil || calls != 1 {
		t.Errorf("expected one annotator call, got %d (%v)", calls, err)
	}
}
