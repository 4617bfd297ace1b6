package classify

// Latin demonstratives, universal quantifiers and possessives tagged DET by
// stanza's Latin models.
var latinNonArticle = []string{
	"hic", "ille", "iste", "is", "ipse", "idem",
	"omnis", "totus", "cunctus", "universus", "nullus", "ullus", "alius", "alter", "ceterus",
	"quis", "qui", "quisque", "quidam", "aliquis", "quisquam", "uterque", "neuter",
	"meus", "tuus", "suus", "noster", "vester",
	"multus", "paucus", "tantus", "quantus", "talis", "qualis",
	"unus", "solus",
}

// DefaultRules returns the built-in rule sets keyed by language code.
func DefaultRules() map[string]Rules {
	return map[string]Rules{
		"la": {
			Strategy: Articleless,
			Lists:    Lists{NonArticle: latinNonArticle},
		},
		"es": {
			Strategy: Articled,
			Lists: Lists{
				Definite:      []string{"el", "la", "lo", "los", "las"},
				Indefinite:    []string{"uno", "un", "una", "unos", "unas"},
				Demonstrative: []string{"este", "ese", "aquel", "esto", "eso", "aquello", "aqueste", "aquese"},
				Quantifier:    []string{"todo", "mucho", "poco", "alguno", "ninguno", "cada", "otro", "varios", "tanto", "cuanto", "mismo", "cualquiera", "demás", "ambos"},
				NonArticle:    []string{"mi", "tu", "su", "nuestro", "vuestro", "mío", "tuyo", "suyo", "qué", "cuál"},
			},
		},
		"pt": {
			Strategy: Articled,
			Lists: Lists{
				Definite:      []string{"o", "a", "os", "as"},
				Indefinite:    []string{"um", "uma", "uns", "umas"},
				Demonstrative: []string{"este", "esse", "aquele", "isto", "isso", "aquilo"},
				Quantifier:    []string{"todo", "muito", "pouco", "algum", "nenhum", "cada", "outro", "vário", "tanto", "mesmo", "ambos"},
				NonArticle:    []string{"meu", "teu", "seu", "nosso", "vosso", "que", "qual"},
			},
		},
		"it": {
			Strategy: Articled,
			Lists: Lists{
				Definite:      []string{"il", "lo", "la", "i", "gli", "le"},
				Indefinite:    []string{"uno", "un", "una"},
				Demonstrative: []string{"questo", "quello", "codesto"},
				Quantifier:    []string{"tutto", "molto", "poco", "alcuno", "nessuno", "ogni", "altro", "vario", "tanto", "stesso", "ciascuno", "qualche"},
				NonArticle:    []string{"mio", "tuo", "suo", "nostro", "vostro", "loro", "che", "quale"},
			},
		},
		"fr": {
			Strategy: Articled,
			Lists: Lists{
				Definite:      []string{"le", "la", "les"},
				Indefinite:    []string{"un", "une", "des"},
				Demonstrative: []string{"ce", "cet", "cette", "ces"},
				Quantifier:    []string{"tout", "chaque", "quelque", "aucun", "nul", "plusieurs", "autre", "même", "certain"},
				NonArticle:    []string{"mon", "ton", "son", "notre", "votre", "leur", "quel"},
			},
		},
	}
}
