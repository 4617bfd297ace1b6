package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/revelaction/diachron/analysis"
	"github.com/revelaction/diachron/classify"
	"github.com/revelaction/diachron/compare"
	"github.com/revelaction/diachron/construction"
	sent "github.com/revelaction/diachron/sentence"
	"github.com/revelaction/diachron/stat"
)

var (
	Red       = "\033[1;31m"
	Yellow    = "\033[0;33m"
	Off       = "\033[0m"
	Yellow256 = "\033[1;38;5;130m"
	Grey256   = "\033[1;38;5;145m"
	Green256  = "\033[1;38;5;70m"
)

// Renderer writes human readable reports.
type Renderer struct {
	W io.Writer

	HasColor bool

	// Candidates prints the construction candidates of every document.
	Candidates bool

	// Features prints the verb feature counts of every document.
	Features bool
}

func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{W: w}
}

// Report prints the document statuses, the per period statistics of every
// compared count and the notes.
func (r *Renderer) Report(rep *analysis.Report) {
	fmt.Fprintf(r.W, "run %s  seed %d  %s\n\n", rep.RunID, rep.Seed, rep.Created.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(r.W, "%-24s %-18s %-32s %6s %8s %8s\n", "document", "period", "status", "words", "articles", "constr")
	for _, d := range rep.Documents {
		r.document(d)
	}

	for _, name := range orderedCounts(rep) {
		r.comparison(name, rep.Comparisons[name])
	}

	if len(rep.Notes) > 0 {
		fmt.Fprintln(r.W)
		for _, n := range rep.Notes {
			fmt.Fprintf(r.W, "✍  %s\n", n)
		}
	}
}

func (r *Renderer) document(d analysis.DocReport) {
	status := d.Status
	if r.HasColor && status != analysis.StatusOK {
		status = Red + status + Off
	}

	if d.Metrics == nil {
		fmt.Fprintf(r.W, "%-24s %-18s %-32s %6s %8s %8s\n", cut(d.Title, 24), d.Period, status, "-", "-", "-")
		return
	}

	m := d.Metrics
	fmt.Fprintf(r.W, "%-24s %-18s %-32s %6d %8d %8d\n", cut(d.Title, 24), d.Period, status, m.WordCount, m.TotalArticles(), len(m.Constructions))

	if r.Candidates {
		for _, c := range m.Constructions {
			fmt.Fprintf(r.W, "    %s\n", r.Candidate(c))
		}
	}

	if r.Features {
		r.features(*m)
	}
}

func (r *Renderer) comparison(name string, cmp compare.Comparison) {
	fmt.Fprintf(r.W, "\n%s (per 1000 words)\n", r.title(name))
	fmt.Fprintf(r.W, "  %-18s %4s %10s %10s %24s\n", "period", "n", "mean", "sd", "95% CI")

	for _, p := range cmp.Periods {
		fmt.Fprintf(r.W, "  %-18s %4d %10s %10s %24s\n", p.Period, p.N, number(p.Mean), number(p.SD), interval(p.CI))
	}

	fmt.Fprintf(r.W, "  %s\n", r.test("kruskal-wallis", cmp.Omnibus))
	for _, pr := range cmp.Pairwise {
		fmt.Fprintf(r.W, "  %s\n", r.test(pr.A+" vs "+pr.B, pr.RankResult))
	}
}

func (r *Renderer) test(name string, res compare.RankResult) string {
	if !res.Applicable {
		return fmt.Sprintf("%-40s not applicable: %s", name, res.Reason)
	}

	line := fmt.Sprintf("%-40s stat %.4f  p %.4f  (%s)", name, res.Statistic, res.PValue, res.Method)
	if res.SmallSample {
		flag := "small sample"
		if r.HasColor {
			flag = Yellow + flag + Off
		}
		line += " " + flag
	}
	return line
}

// Candidate renders a construction candidate as its sentence with anchor and
// trigger highlighted.
func (r *Renderer) Candidate(c construction.Candidate) string {
	return fmt.Sprintf("[%s] %s", c.Pattern, r.SentenceString(c.Context, []sent.Token{c.Anchor, c.Trigger}))
}

// Decision renders the classification of one determiner in its sentence.
func (r *Renderer) Decision(s sent.Sentence, t sent.Token, d classify.Decision) string {
	label := string(d.Label)
	if r.HasColor {
		color := Grey256
		if d.Label.IsArticle() {
			color = Green256
		}
		label = color + label + Off
	}

	text := r.tokens(s.Tokens, []sent.Token{t})
	return fmt.Sprintf("%-12s %-10s %-32s %s  ✍  %s", t.Text, t.NormLemma(), label, d.Rule, text)
}

// features prints the verb feature counts of one document.
func (r *Renderer) features(m stat.Metrics) {
	for _, f := range m.FeatureNames() {
		fmt.Fprintf(r.W, "    %-28s %5d\n", f, m.VerbFeatures[f])
	}
	fmt.Fprintf(r.W, "    synthetic features: %d\n", m.SyntheticFeatures())
}

// SentenceString returns the surface text with the matched words colored.
// Without color the surface text is returned as is.
func (r *Renderer) SentenceString(text string, matches []sent.Token) string {
	if !r.HasColor {
		return strings.ReplaceAll(text, "\n", " ")
	}

	words := strings.Fields(text)
	for i, w := range words {
		for _, m := range matches {
			if strings.Trim(w, ".,;:!?¡¿\"'()") == m.Text {
				words[i] = Green256 + w + Off
				break
			}
		}
	}
	return strings.Join(words, " ")
}

// tokens joins the token texts, coloring the matches by position.
func (r *Renderer) tokens(tokens, matches []sent.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = colorToken(t, matches, r.HasColor)
	}
	return strings.Join(parts, " ")
}

func colorToken(token sent.Token, matches []sent.Token, hasColor bool) string {
	if !hasColor {
		return token.Text
	}

	for _, mt := range matches {
		if mt.Index == token.Index {
			return Green256 + token.Text + Off
		}
	}

	return token.Text
}

func (r *Renderer) title(s string) string {
	if !r.HasColor {
		return s
	}
	return Yellow256 + s + Off
}

func orderedCounts(rep *analysis.Report) []string {
	var names []string
	for _, n := range stat.CountNames() {
		if _, ok := rep.Comparisons[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

func number(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *v)
}

func interval(ci *compare.Interval) string {
	if ci == nil {
		return "-"
	}
	return fmt.Sprintf("[%.3f, %.3f]", ci.Lower, ci.Upper)
}

func cut(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
