package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"

	"github.com/revelaction/diachron/annotate"
	"github.com/revelaction/diachron/classify"
	"github.com/revelaction/diachron/render"
	"github.com/revelaction/diachron/search"
	"github.com/revelaction/diachron/storage"
)

const (
	completionThreshold = 2

	// docPrefix is the Character in the prompt that prefixes a doc id
	docPrefix = "#"

	// candidate limit per query
	limit = 2000
)

// Suggestion is a lemma offered by the completer.
type Suggestion struct {
	Lemma       string
	Description string
}

type Handler struct {
	DocRepo    storage.DocReader
	Classifier *classify.Classifier
	Annotator  annotate.Annotator
	Renderer   *render.Renderer

	suggestions []Suggestion
}

func NewHandler(dr storage.DocReader, c *classify.Classifier, r *render.Renderer) *Handler {
	return &Handler{
		DocRepo:    dr,
		Classifier: c,
		Renderer:   r,
	}
}

// Suggestions builds the completer entries from the lemma lists of the rule
// sets.
func Suggestions(rules map[string]classify.Rules) []Suggestion {
	var s []Suggestion
	add := func(lang, list string, lemmas []string) {
		for _, l := range lemmas {
			s = append(s, Suggestion{Lemma: l, Description: lang + " " + list})
		}
	}

	for lang, r := range rules {
		add(lang, "definite", r.Lists.Definite)
		add(lang, "indefinite", r.Lists.Indefinite)
		add(lang, "demonstrative", r.Lists.Demonstrative)
		add(lang, "quantifier", r.Lists.Quantifier)
		add(lang, "non-article", r.Lists.NonArticle)
	}

	sort.Slice(s, func(i, j int) bool {
		if s[i].Lemma != s[j].Lemma {
			return s[i].Lemma < s[j].Lemma
		}
		return s[i].Description < s[j].Description
	})
	return s
}

func (h *Handler) Run(ctx context.Context, suggestions []Suggestion) error {
	h.suggestions = suggestions

	fmt.Fprintln(h.Renderer.W, "🔑 Ctrl+X: Toggle color, #<doc id> restricts to one doc, 🔧 quit")

	// initialize prompt history
	history := []string{}

	for {
		in := prompt.Input("      🔖 ", h.completer,
			prompt.OptionTitle("diachron inspect"),
			prompt.OptionPrefixTextColor(prompt.Yellow),
			prompt.OptionPreviewSuggestionTextColor(prompt.Blue),
			prompt.OptionSelectedSuggestionBGColor(prompt.LightGray),
			prompt.OptionMaxSuggestion(12),
			prompt.OptionSuggestionBGColor(prompt.DarkGray),
			prompt.OptionHistory(history),
			prompt.OptionAddKeyBind(prompt.KeyBind{
				Key: prompt.ControlX,
				Fn: func(buf *prompt.Buffer) {
					h.Renderer.HasColor = !h.Renderer.HasColor
					fmt.Fprintf(h.Renderer.W, "Color set to %t\n", h.Renderer.HasColor)
				}}),
		)

		if in == "quit" {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		history = append(history, in)

		n, err := h.Query(ctx, in)
		if err != nil {
			fmt.Fprintf(h.Renderer.W, "✍  %v\n", err)
			continue
		}
		fmt.Fprintf(h.Renderer.W, "✍  %d determiners\n", n)
	}
}

// Query runs one REPL line: lemmas, optionally preceded by #<doc id>. Every
// matching determiner is rendered with its decision. It returns the number
// of rendered determiners.
func (h *Handler) Query(ctx context.Context, in string) (int, error) {
	docID, lemmas, err := parse(in)
	if err != nil {
		return 0, err
	}

	s := search.New(h.DocRepo, h.Classifier).WithAnnotator(h.Annotator)
	if docID != nil {
		s = s.WithDocID(*docID)
	}

	n := 0
	onHit := func(hit search.Hit) error {
		fmt.Fprintf(h.Renderer.W, "%-20s %s\n", hit.Title, h.Renderer.Decision(hit.Sentence, hit.Token, hit.Decision))
		n++
		return nil
	}

	cursor := storage.Cursor(0)
	for n < limit {
		newCursor, err := s.Determiners(ctx, lemmas, cursor, 500, onHit)
		if err != nil {
			return n, err
		}

		// single doc searches do not page
		if cursor == newCursor {
			break
		}
		cursor = newCursor
	}

	return n, nil
}

func (h *Handler) completer(in prompt.Document) []prompt.Suggest {
	s := []prompt.Suggest{}

	word := in.GetWordBeforeCursor()
	if len(word) < completionThreshold || strings.HasPrefix(word, docPrefix) {
		return s
	}

	for _, sg := range h.suggestions {
		if strings.HasPrefix(sg.Lemma, strings.ToLower(word)) {
			s = append(s, prompt.Suggest{Text: sg.Lemma, Description: sg.Description})
		}
	}

	return s
}

func parse(in string) (*int, []string, error) {
	tokens := strings.Fields(in)
	if len(tokens) == 0 {
		return nil, nil, errors.New("no lemma given")
	}

	var docID *int
	if strings.HasPrefix(tokens[0], docPrefix) {
		id, err := strconv.Atoi(strings.TrimPrefix(tokens[0], docPrefix))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid doc id %q", tokens[0])
		}
		docID = &id
		tokens = tokens[1:]
	}

	if docID == nil && len(tokens) == 0 {
		return nil, nil, errors.New("no lemma given")
	}

	return docID, tokens, nil
}
