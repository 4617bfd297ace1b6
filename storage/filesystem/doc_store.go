package filesystem

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sent "github.com/revelaction/diachron/sentence"
	"github.com/revelaction/diachron/storage"
)

const (
	extJSON = ".json"
	extText = ".txt"
)

// DocStore reads a corpus laid out as one directory per period:
//
//	<root>/<period>/<title>.json   annotated doc
//	<root>/<period>/<title>.txt    raw text, annotated at run time
//
// Files directly under root are ignored.
type DocStore struct {
	root string

	// period -> language, for raw texts and docs without language
	languages map[string]string

	docs  []sent.Doc
	paths []string

	loaded bool
}

var _ storage.DocRepository = (*DocStore)(nil)
var _ storage.Preloader = (*DocStore)(nil)

// NewDocStore lists the corpus under root. Contents are read on demand or
// by Preload.
func NewDocStore(root string, languages map[string]string) (*DocStore, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	s := &DocStore{root: root, languages: languages}

	var periods []string
	for _, e := range entries {
		if e.IsDir() {
			periods = append(periods, e.Name())
		}
	}
	sort.Strings(periods)

	for _, period := range periods {
		files, err := os.ReadDir(filepath.Join(root, period))
		if err != nil {
			return nil, err
		}

		for _, file := range files {
			ext := filepath.Ext(file.Name())
			if file.IsDir() || (ext != extJSON && ext != extText) {
				continue
			}

			s.docs = append(s.docs, sent.Doc{
				Id:       len(s.docs),
				Title:    strings.TrimSuffix(file.Name(), ext),
				Period:   period,
				Language: languages[period],
			})
			s.paths = append(s.paths, filepath.Join(root, period, file.Name()))
		}
	}

	return s, nil
}

// Preload reads all docs into memory.
func (s *DocStore) Preload(cb func(current, total int, name string)) error {
	if s.loaded {
		return nil
	}

	total := len(s.docs)
	for i := range s.docs {
		if cb != nil {
			cb(i+1, total, s.docs[i].Title)
		}

		doc, err := s.readFile(i)
		if err != nil {
			return err
		}
		s.docs[i] = doc
	}

	s.loaded = true
	return nil
}

// List returns doc metadata without sentences.
func (s *DocStore) List() ([]sent.Doc, error) {
	list := make([]sent.Doc, len(s.docs))
	for i, d := range s.docs {
		list[i] = sent.Doc{
			Id:       d.Id,
			Title:    d.Title,
			Period:   d.Period,
			Language: d.Language,
			Labels:   d.Labels,
		}
	}
	return list, nil
}

func (s *DocStore) Read(id int) (sent.Doc, error) {
	if id < 0 || id >= len(s.docs) {
		return sent.Doc{}, fmt.Errorf("%w: doc id %d", storage.ErrNotFound, id)
	}

	if s.loaded {
		return s.docs[id], nil
	}

	return s.readFile(id)
}

// FindCandidates scans the annotated docs in order. The cursor is the
// number of sentences already scanned. Raw text docs are skipped.
func (s *DocStore) FindCandidates(lemmas []string, after storage.Cursor, limit int, onCandidate func(sent.Sentence) error) (storage.Cursor, error) {
	return s.scan(lemmas, hasAllLemmas, after, limit, onCandidate)
}

// FindAnyCandidates is FindCandidates matching sentences with any lemma.
func (s *DocStore) FindAnyCandidates(lemmas []string, after storage.Cursor, limit int, onCandidate func(sent.Sentence) error) (storage.Cursor, error) {
	return s.scan(lemmas, hasAnyLemma, after, limit, onCandidate)
}

func (s *DocStore) scan(lemmas []string, match func(sent.Sentence, []string) bool, after storage.Cursor, limit int, onCandidate func(sent.Sentence) error) (storage.Cursor, error) {
	if len(lemmas) == 0 {
		return after, nil
	}

	pos := storage.Cursor(0)
	found := 0

	for id := range s.docs {
		doc, err := s.Read(id)
		if err != nil {
			return after, err
		}

		for _, sentence := range doc.Sentences {
			pos++
			if pos <= after {
				continue
			}

			if !match(sentence, lemmas) {
				continue
			}

			sentence.DocId = doc.Id
			if err := onCandidate(sentence); err != nil {
				return after, err
			}

			found++
			if found >= limit {
				return pos, nil
			}
		}
	}

	return pos, nil
}

func (s *DocStore) Write(doc sent.Doc) error {
	return storage.ErrReadOnly
}

func (s *DocStore) readFile(id int) (sent.Doc, error) {
	meta := s.docs[id]
	path := s.paths[id]

	var doc sent.Doc

	switch filepath.Ext(path) {
	case extJSON:
		d, err := ReadDoc(path)
		if err != nil {
			return sent.Doc{}, err
		}
		doc = d
	default:
		content, err := os.ReadFile(path)
		if err != nil {
			return sent.Doc{}, fmt.Errorf("IO error: %w", err)
		}
		doc.Text = string(content)
	}

	doc.Id = meta.Id
	doc.Period = meta.Period

	if doc.Title == "" {
		doc.Title = meta.Title
	}
	if doc.Language == "" {
		doc.Language = meta.Language
	}

	for i := range doc.Sentences {
		doc.Sentences[i].DocId = doc.Id
	}

	return doc, nil
}

// ReadDoc reads a Doc JSON from the given path and unmarshals it.
func ReadDoc(path string) (sent.Doc, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return sent.Doc{}, fmt.Errorf("IO error: %w", err)
	}

	var doc sent.Doc
	err = json.Unmarshal(f, &doc)
	if err != nil {
		return sent.Doc{}, fmt.Errorf("JSON decoding error: %w", err)
	}

	return doc, nil
}

func hasAllLemmas(s sent.Sentence, lemmas []string) bool {
	for _, l := range lemmas {
		l = strings.ToLower(l)
		found := false
		for _, t := range s.Tokens {
			if t.NormLemma() == l {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func hasAnyLemma(s sent.Sentence, lemmas []string) bool {
	for _, l := range lemmas {
		if hasAllLemmas(s, []string{l}) {
			return true
		}
	}
	return false
}
