// Package classify maps determiner-class tokens to article categories.
//
// The coarse DET tag covers structurally different phenomena: a demonstrative
// and quantifier system in Latin, a true article system in Spanish. The tag
// alone is never trusted; the lemma is checked against closed lists and, for
// languages with articles, the morphological features and the next token are
// consulted.
package classify

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	sent "github.com/revelaction/diachron/sentence"
)

// ErrUnsupportedLanguage is returned for a language without a rule set.
var ErrUnsupportedLanguage = errors.New("unsupported language")

type Label string

const (
	DefiniteArticle   Label = "definite_article"
	IndefiniteArticle Label = "indefinite_article"
	Demonstrative     Label = "demonstrative"
	Quantifier        Label = "quantifier_or_other_determiner"
	NotArticle        Label = "not_article"
)

// Labels returns the closed set of labels in report order.
func Labels() []Label {
	return []Label{DefiniteArticle, IndefiniteArticle, Demonstrative, Quantifier, NotArticle}
}

// IsArticle reports whether the label counts towards the article total.
func (l Label) IsArticle() bool {
	return l == DefiniteArticle || l == IndefiniteArticle
}

// Strategy selects the rule variant of a language.
type Strategy string

const (
	// Articleless languages have no grammaticalized article: every DET is
	// not_article.
	Articleless Strategy = "articleless"

	// Articled languages have a closed set of article lemmas.
	Articled Strategy = "articled"
)

// Lists holds the closed lemma sets of a language. Lemmas are lower case.
type Lists struct {
	Definite      []string `toml:"definite"`
	Indefinite    []string `toml:"indefinite"`
	Demonstrative []string `toml:"demonstrative"`
	Quantifier    []string `toml:"quantifier"`

	// NonArticle lemmas are never articles, in any language.
	NonArticle []string `toml:"non_article"`
}

// Rules is the rule set of one language.
type Rules struct {
	Strategy Strategy `toml:"strategy"`
	Lists    Lists    `toml:"lists"`
}

// Decision is a label plus the rule that produced it.
type Decision struct {
	Label Label
	Rule  string
}

type lemmaSet map[string]struct{}

func newLemmaSet(lemmas []string) lemmaSet {
	s := make(lemmaSet, len(lemmas))
	for _, l := range lemmas {
		s[strings.ToLower(strings.TrimSpace(l))] = struct{}{}
	}
	return s
}

func (s lemmaSet) has(lemma string) bool {
	_, ok := s[lemma]
	return ok
}

// policy is the compiled form of Rules.
type policy struct {
	strategy      Strategy
	definite      lemmaSet
	indefinite    lemmaSet
	demonstrative lemmaSet
	quantifier    lemmaSet
	nonArticle    lemmaSet
}

// Classifier dispatches to a per-language policy. It holds no mutable state
// and is safe for concurrent use.
type Classifier struct {
	policies map[string]policy
}

// New compiles the rule sets keyed by language code.
func New(rules map[string]Rules) (*Classifier, error) {
	c := &Classifier{policies: make(map[string]policy, len(rules))}

	for lang, r := range rules {
		switch r.Strategy {
		case Articleless, Articled:
		default:
			return nil, fmt.Errorf("language %q: unknown strategy %q", lang, r.Strategy)
		}

		c.policies[lang] = policy{
			strategy:      r.Strategy,
			definite:      newLemmaSet(r.Lists.Definite),
			indefinite:    newLemmaSet(r.Lists.Indefinite),
			demonstrative: newLemmaSet(r.Lists.Demonstrative),
			quantifier:    newLemmaSet(r.Lists.Quantifier),
			nonArticle:    newLemmaSet(r.Lists.NonArticle),
		}
	}

	return c, nil
}

// NewDefault returns a Classifier with the built-in rule sets.
func NewDefault() *Classifier {
	c, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return c
}

// Languages returns the supported language codes, sorted.
func (c *Classifier) Languages() []string {
	langs := make([]string, 0, len(c.policies))
	for l := range c.policies {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Supports reports whether the language has a rule set.
func (c *Classifier) Supports(language string) bool {
	_, ok := c.policies[language]
	return ok
}

// Classify returns the label of a determiner-class token. The caller filters
// the sentence tokens to DET; any other tag is not_article.
func (c *Classifier) Classify(token sent.Token, sentence sent.Sentence, language string) (Label, error) {
	d, err := c.Explain(token, sentence, language)
	if err != nil {
		return "", err
	}
	return d.Label, nil
}

// Explain is Classify plus the name of the rule that fired.
func (c *Classifier) Explain(token sent.Token, sentence sent.Sentence, language string) (Decision, error) {
	p, ok := c.policies[language]
	if !ok {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}

	if token.Pos != sent.PosDet {
		return Decision{NotArticle, "not a determiner"}, nil
	}

	lemma := token.NormLemma()

	// lemma evidence dominates tag evidence
	if p.nonArticle.has(lemma) {
		return Decision{NotArticle, "non-article lemma"}, nil
	}

	switch p.strategy {
	case Articleless:
		return Decision{NotArticle, "language without articles"}, nil
	default:
		return p.articled(token, sentence, lemma), nil
	}
}

func (p policy) articled(token sent.Token, sentence sent.Sentence, lemma string) Decision {
	switch {
	case p.definite.has(lemma):
		if token.HasFeature("Definite", "Ind") {
			return Decision{IndefiniteArticle, "article lemma, Definite=Ind"}
		}
		return Decision{DefiniteArticle, "definite article lemma"}

	case p.indefinite.has(lemma):
		if token.HasFeature("PronType", "Art") || token.HasFeature("Definite", "Ind") {
			return Decision{IndefiniteArticle, "indefinite lemma, article features"}
		}
		if next, ok := sentence.Next(token.Index); ok && isNominal(next) {
			return Decision{IndefiniteArticle, "indefinite lemma before nominal"}
		}
		return Decision{Quantifier, "indefinite lemma, numeral use"}

	case p.demonstrative.has(lemma):
		return Decision{Demonstrative, "demonstrative lemma"}

	case p.quantifier.has(lemma):
		return Decision{Quantifier, "quantifier lemma"}
	}

	return Decision{NotArticle, "unlisted lemma"}
}

func isNominal(t sent.Token) bool {
	switch t.Pos {
	case sent.PosNoun, sent.PosPropn, sent.PosAdj:
		return true
	}
	return false
}
