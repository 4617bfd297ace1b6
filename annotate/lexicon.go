package annotate

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/edsrzf/mmap-go"

	sent "github.com/revelaction/diachron/sentence"
)

// Entry is one lexicon line: a surface form and its annotation.
type Entry struct {
	Form  string
	Lemma string
	Pos   string
	Feats string
}

// Lexicon is a dictionary driven reference annotator. Each language has a
// tab separated lexicon file:
//
//	form<TAB>lemma<TAB>upos<TAB>feats
//
// Lines starting with # are comments, a feats column of "_" means no
// features. Lookups are case insensitive. Forms missing from the lexicon get
// the X tag and their lower cased form as lemma.
//
// Only word tokens are produced; punctuation separates sentences and words
// but is not emitted.
type Lexicon struct {
	mu    sync.RWMutex
	forms map[string]map[string]Entry

	// mapped files, released by Close
	maps []mmap.MMap
}

var _ Annotator = (*Lexicon)(nil)

func NewLexicon() *Lexicon {
	return &Lexicon{forms: map[string]map[string]Entry{}}
}

// Load maps the lexicon file at path and adds its entries to language.
func (l *Lexicon) Load(language, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open lexicon: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat lexicon: %w", err)
	}

	// mmap refuses empty files
	if info.Size() == 0 {
		l.Add(language)
		return nil
	}

	m, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return fmt.Errorf("mmap lexicon %s: %w", path, err)
	}

	entries, err := parseLexicon(m)
	if err != nil {
		_ = m.Unmap()
		return fmt.Errorf("%s: %w", path, err)
	}

	l.mu.Lock()
	l.maps = append(l.maps, m)
	l.mu.Unlock()

	l.Add(language, entries...)
	return nil
}

// Add registers entries for language. Calling Add without entries only
// marks the language as loaded.
func (l *Lexicon) Add(language string, entries ...Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	forms, ok := l.forms[language]
	if !ok {
		forms = map[string]Entry{}
		l.forms[language] = forms
	}

	for _, e := range entries {
		forms[strings.ToLower(e.Form)] = e
	}
}

// Languages returns the loaded languages.
func (l *Lexicon) Languages() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	langs := make([]string, 0, len(l.forms))
	for lang := range l.forms {
		langs = append(langs, lang)
	}
	return langs
}

// Close releases the mapped lexicon files. Loaded entries stay usable.
func (l *Lexicon) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var first error
	for _, m := range l.maps {
		if err := m.Unmap(); err != nil && first == nil {
			first = err
		}
	}
	l.maps = nil
	return first
}

// Annotate splits text into sentences and words and looks every word up.
func (l *Lexicon) Annotate(ctx context.Context, text, language string) ([]sent.Sentence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	forms, ok := l.forms[language]
	l.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: no lexicon for language %q", ErrAnnotationUnavailable, language)
	}

	var spans []span
	for _, sp := range splitSentences(text) {
		if len(splitWords(sp.text)) > 0 {
			spans = append(spans, sp)
		}
	}

	var sentences []sent.Sentence
	id := 0

	for i, span := range spans {
		s := sent.Sentence{Id: len(sentences), Text: strings.TrimSpace(span.text)}

		for _, w := range splitWords(span.text) {
			t := sent.Token{
				Id:         id,
				SentenceId: s.Id,
				Text:       w.text,
				Idx:        span.offset + w.offset,
				Index:      len(s.Tokens),
			}

			l.mu.RLock()
			e, known := forms[strings.ToLower(w.text)]
			l.mu.RUnlock()

			if known {
				t.Lemma = e.Lemma
				t.Pos = e.Pos
				t.Tag = e.Feats
			} else {
				t.Lemma = strings.ToLower(w.text)
				t.Pos = sent.PosOther
			}

			s.Tokens = append(s.Tokens, t)
			id++
		}

		// a terminator followed by another sentence is a token of its own,
		// the closing mark of the text is not
		if mark, offset, ok := span.terminator(); ok && i < len(spans)-1 {
			s.Tokens = append(s.Tokens, sent.Token{
				Id:         id,
				SentenceId: s.Id,
				Text:       mark,
				Lemma:      mark,
				Pos:        sent.PosPunct,
				Idx:        span.offset + offset,
				Index:      len(s.Tokens),
			})
			id++
		}

		sentences = append(sentences, s)
	}

	return sentences, nil
}

func parseLexicon(data []byte) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 tab separated fields, got %d", lineNum, len(fields))
		}

		e := Entry{Form: fields[0], Lemma: fields[1], Pos: fields[2]}
		if len(fields) > 3 && fields[3] != "_" {
			e.Feats = fields[3]
		}

		entries = append(entries, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// span is a piece of text and its rune offset in the enclosing text.
type span struct {
	text   string
	offset int
}

// terminator returns the sentence end mark closing the span and its rune
// offset in the span.
func (s span) terminator() (string, int, bool) {
	runes := []rune(s.text)
	if len(runes) == 0 || !isSentenceEnd(runes[len(runes)-1]) {
		return "", 0, false
	}
	return string(runes[len(runes)-1]), len(runes) - 1, true
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', ';':
		return true
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// splitSentences cuts text after each terminator, keeping it in the span.
func splitSentences(text string) []span {
	var spans []span

	var cur strings.Builder
	start, pos := 0, 0
	for _, r := range text {
		cur.WriteRune(r)
		pos++
		if isSentenceEnd(r) {
			spans = append(spans, span{text: cur.String(), offset: start})
			cur.Reset()
			start = pos
		}
	}

	if strings.TrimSpace(cur.String()) != "" {
		spans = append(spans, span{text: cur.String(), offset: start})
	}

	return spans
}

func splitWords(text string) []span {
	var words []span

	var cur strings.Builder
	start, pos := 0, 0
	for _, r := range text {
		if isWordRune(r) {
			if cur.Len() == 0 {
				start = pos
			}
			cur.WriteRune(r)
		} else if cur.Len() > 0 {
			words = append(words, span{text: cur.String(), offset: start})
			cur.Reset()
		}
		pos++
	}

	if cur.Len() > 0 {
		words = append(words, span{text: cur.String(), offset: start})
	}

	return words
}
