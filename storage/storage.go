package storage

import (
	"errors"
	"time"

	sent "github.com/revelaction/diachron/sentence"
)

var (
	ErrNotFound = errors.New("not found")
	ErrReadOnly = errors.New("read-only storage")
)

// Cursor for paginated lemma-based queries
type Cursor int64

// DocReader defines read operations for document storage
type DocReader interface {
	// List returns the metadata (Id, Title, Period, Language, Labels) of
	// all documents, ordered by period and title. Sentences are not loaded.
	List() ([]sent.Doc, error)

	// Read returns a document by ID, with its sentences or raw text.
	Read(id int) (sent.Doc, error)

	// FindCandidates calls onCandidate for every sentence containing ALL
	// given lemmas, resuming after the given cursor. Returns the new cursor.
	FindCandidates(lemmas []string, after Cursor, limit int, onCandidate func(sent.Sentence) error) (Cursor, error)

	// FindAnyCandidates is FindCandidates for sentences containing ANY of
	// the given lemmas. Every sentence is reported once.
	FindAnyCandidates(lemmas []string, after Cursor, limit int, onCandidate func(sent.Sentence) error) (Cursor, error)
}

// DocWriter defines write operations for document storage
type DocWriter interface {
	// Write persists a document and its sentences to storage
	Write(doc sent.Doc) error
}

// DocRepository combines read and write operations
type DocRepository interface {
	DocReader
	DocWriter
}

// Preloader defines an optional capability for repositories that support
// eager loading of data into memory.
type Preloader interface {
	Preload(cb func(current, total int, name string)) error
}

// Run is the metadata of a stored analysis report.
type Run struct {
	Id      string
	Created time.Time
	Seed    uint64
	NumDocs int
}

// ReportRepository persists analysis reports as JSON payloads.
type ReportRepository interface {
	WriteReport(run Run, payload []byte) error

	// Runs returns the stored runs, newest first.
	Runs() ([]Run, error)

	// Report returns the payload of a run.
	Report(id string) ([]byte, error)
}
