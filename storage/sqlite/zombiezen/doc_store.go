package zombiezen

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	sent "github.com/revelaction/diachron/sentence"
	"github.com/revelaction/diachron/storage"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

type DocStore struct {
	pool *sqlitex.Pool
}

var _ storage.DocRepository = (*DocStore)(nil)

func NewDocStore(pool *sqlitex.Pool) *DocStore {
	return &DocStore{pool: pool}
}

func (h *DocStore) List() ([]sent.Doc, error) {
	conn, err := h.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer h.pool.Put(conn)

	var docs []sent.Doc
	err = sqlitex.Execute(conn, "SELECT id, title, period, language, labels FROM docs ORDER BY period, title", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			docs = append(docs, scanDoc(stmt))
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (h *DocStore) Read(id int) (sent.Doc, error) {
	conn, err := h.pool.Take(context.TODO())
	if err != nil {
		return sent.Doc{}, err
	}
	defer h.pool.Put(conn)

	var doc sent.Doc
	found := false

	err = sqlitex.Execute(conn, "SELECT id, title, period, language, labels, text FROM docs WHERE id = ?", &sqlitex.ExecOptions{
		Args: []interface{}{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			doc = scanDoc(stmt)
			doc.Text = stmt.ColumnText(5)
			return nil
		},
	})
	if err != nil {
		return sent.Doc{}, err
	}
	if !found {
		return sent.Doc{}, fmt.Errorf("%w: doc id %d", storage.ErrNotFound, id)
	}

	err = sqlitex.Execute(conn, "SELECT data FROM sentences WHERE doc_id = ? ORDER BY rowid", &sqlitex.ExecOptions{
		Args: []interface{}{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			var s sent.Sentence
			if err := json.Unmarshal([]byte(stmt.ColumnText(0)), &s); err != nil {
				return err
			}
			s.DocId = id
			doc.Sentences = append(doc.Sentences, s)
			return nil
		},
	})
	if err != nil {
		return sent.Doc{}, err
	}

	return doc, nil
}

func (h *DocStore) FindCandidates(lemmas []string, after storage.Cursor, limit int, onCandidate func(sent.Sentence) error) (storage.Cursor, error) {
	if len(lemmas) == 0 {
		return after, nil
	}

	conn, err := h.pool.Take(context.TODO())
	if err != nil {
		return after, err
	}
	defer h.pool.Put(conn)

	// INTERSECT keeps the sentences containing ALL lemmas, each rowid once.
	var queryBuilder strings.Builder
	var args []interface{}

	for i, lemma := range lemmas {
		if i > 0 {
			queryBuilder.WriteString(" INTERSECT ")
		}
		queryBuilder.WriteString("SELECT sentence_rowid FROM sentence_lemmas WHERE lemma = ? AND sentence_rowid > ?")
		args = append(args, strings.ToLower(lemma), after)
	}
	queryBuilder.WriteString(" ORDER BY 1 LIMIT ?")
	args = append(args, limit)

	var rowIDs []int64
	err = sqlitex.Execute(conn, queryBuilder.String(), &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			rowIDs = append(rowIDs, stmt.ColumnInt64(0))
			return nil
		},
	})
	if err != nil {
		return after, err
	}

	return h.emit(conn, rowIDs, after, onCandidate)
}

// FindAnyCandidates is FindCandidates matching sentences with any lemma.
func (h *DocStore) FindAnyCandidates(lemmas []string, after storage.Cursor, limit int, onCandidate func(sent.Sentence) error) (storage.Cursor, error) {
	if len(lemmas) == 0 {
		return after, nil
	}

	conn, err := h.pool.Take(context.TODO())
	if err != nil {
		return after, err
	}
	defer h.pool.Put(conn)

	placeholders := make([]string, len(lemmas))
	args := make([]interface{}, 0, len(lemmas)+2)
	for i, lemma := range lemmas {
		placeholders[i] = "?"
		args = append(args, strings.ToLower(lemma))
	}
	args = append(args, after, limit)

	query := fmt.Sprintf("SELECT DISTINCT sentence_rowid FROM sentence_lemmas WHERE lemma IN (%s) AND sentence_rowid > ? ORDER BY 1 LIMIT ?", strings.Join(placeholders, ","))

	var rowIDs []int64
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			rowIDs = append(rowIDs, stmt.ColumnInt64(0))
			return nil
		},
	})
	if err != nil {
		return after, err
	}

	return h.emit(conn, rowIDs, after, onCandidate)
}

// emit loads the sentences of rowIDs in order and returns the last rowid as
// the new cursor.
func (h *DocStore) emit(conn *sqlite.Conn, rowIDs []int64, after storage.Cursor, onCandidate func(sent.Sentence) error) (storage.Cursor, error) {
	if len(rowIDs) == 0 {
		return after, nil
	}

	idStrings := make([]string, len(rowIDs))
	for i, id := range rowIDs {
		idStrings[i] = strconv.FormatInt(id, 10)
	}
	query := fmt.Sprintf("SELECT rowid, doc_id, data FROM sentences WHERE rowid IN (%s) ORDER BY rowid", strings.Join(idStrings, ","))

	newCursor := after
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			rowID := stmt.ColumnInt64(0)
			if storage.Cursor(rowID) > newCursor {
				newCursor = storage.Cursor(rowID)
			}

			var s sent.Sentence
			if err := json.Unmarshal([]byte(stmt.ColumnText(2)), &s); err != nil {
				return err
			}
			s.DocId = stmt.ColumnInt(1)
			return onCandidate(s)
		},
	})
	if err != nil {
		return after, err
	}

	return newCursor, nil
}

// Write inserts the doc with its sentences and lemma index in one
// transaction. A doc with the same period and title is replaced.
func (h *DocStore) Write(doc sent.Doc) (err error) {
	conn, err := h.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer h.pool.Put(conn)

	defer sqlitex.Save(conn)(&err)

	err = sqlitex.Execute(conn, "DELETE FROM docs WHERE period = ? AND title = ?", &sqlitex.ExecOptions{
		Args: []interface{}{doc.Period, doc.Title},
	})
	if err != nil {
		return fmt.Errorf("failed to replace doc: %w", err)
	}

	labels := strings.Join(doc.Labels, ",")
	err = sqlitex.Execute(conn, "INSERT INTO docs (title, period, language, labels, text) VALUES (?, ?, ?, ?, ?)", &sqlitex.ExecOptions{
		Args: []interface{}{doc.Title, doc.Period, doc.Language, labels, doc.Text},
	})
	if err != nil {
		return fmt.Errorf("failed to insert doc: %w", err)
	}
	docID := conn.LastInsertRowID()

	for _, sentence := range doc.Sentences {
		sentence.DocId = int(docID)
		data, err := json.Marshal(sentence)
		if err != nil {
			return err
		}

		err = sqlitex.Execute(conn, "INSERT INTO sentences (doc_id, data) VALUES (?, ?)", &sqlitex.ExecOptions{
			Args: []interface{}{docID, string(data)},
		})
		if err != nil {
			return fmt.Errorf("failed to insert sentence: %w", err)
		}
		sentRowID := conn.LastInsertRowID()

		uniqueLemmas := make(map[string]bool)
		for _, token := range sentence.Tokens {
			uniqueLemmas[token.NormLemma()] = true
		}

		for lemma := range uniqueLemmas {
			err = sqlitex.Execute(conn, "INSERT INTO sentence_lemmas (lemma, sentence_rowid) VALUES (?, ?)", &sqlitex.ExecOptions{
				Args: []interface{}{lemma, sentRowID},
			})
			if err != nil {
				return fmt.Errorf("failed to insert lemma: %w", err)
			}
		}
	}

	return nil
}

func scanDoc(stmt *sqlite.Stmt) sent.Doc {
	doc := sent.Doc{
		Id:       stmt.ColumnInt(0),
		Title:    stmt.ColumnText(1),
		Period:   stmt.ColumnText(2),
		Language: stmt.ColumnText(3),
	}
	if labels := stmt.ColumnText(4); labels != "" {
		doc.Labels = strings.Split(labels, ",")
	}
	return doc
}
