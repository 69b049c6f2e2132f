// Package extract pulls applicant fields out of OCR text by matching
// "keyword: value" lines.
package extract

import (
	"regexp"
	"strings"

	"loanscan/internal/models"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Field names a value the extractor can fill.
type Field string

const (
	FieldName       Field = "name"
	FieldAddress    Field = "address"
	FieldIncome     Field = "income"
	FieldLoanAmount Field = "loanAmount"
)

// Fields lists every field in rule order.
var Fields = []Field{FieldName, FieldAddress, FieldIncome, FieldLoanAmount}

// Rule binds a label pattern to the field it fills. Rules are tried in slice
// order and the first match claims the line.
type Rule struct {
	Field   Field
	Keyword string
	Pattern *regexp.Regexp
}

// DefaultRules are the label rules applied by Extract.
var DefaultRules = []Rule{
	{Field: FieldName, Keyword: "name", Pattern: regexp.MustCompile(`(?i)name\s*[:\-]`)},
	{Field: FieldAddress, Keyword: "address", Pattern: regexp.MustCompile(`(?i)address\s*[:\-]`)},
	{Field: FieldIncome, Keyword: "income", Pattern: regexp.MustCompile(`(?i)income\s*[:\-]`)},
	{Field: FieldLoanAmount, Keyword: "loan amount", Pattern: regexp.MustCompile(`(?i)loan\s*amount\s*[:\-]`)},
}

// SuggestionThreshold is the minimum Jaro-Winkler similarity between a line
// label and a keyword for the line to be suggested.
const SuggestionThreshold = 0.85

// Suggestion points at a line that looks like a field label but did not
// match any rule, e.g. an OCR misread such as "Adress: ...".
type Suggestion struct {
	Field Field
	Line  string
	Score float64
}

// Result is the outcome of one extraction.
type Result struct {
	models.ExtractedFields
	Suggestions []Suggestion
}

// Get returns the value currently held for f.
func (r *Result) Get(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldAddress:
		return r.Address
	case FieldIncome:
		return r.Income
	case FieldLoanAmount:
		return r.LoanAmount
	}
	return ""
}

// Set stores v for f.
func (r *Result) Set(f Field, v string) {
	switch f {
	case FieldName:
		r.Name = v
	case FieldAddress:
		r.Address = v
	case FieldIncome:
		r.Income = v
	case FieldLoanAmount:
		r.LoanAmount = v
	}
}

// Missing lists fields still holding the placeholder, in rule order.
func (r *Result) Missing() []Field {
	var out []Field
	for _, f := range Fields {
		if r.Get(f) == models.NotFound {
			out = append(out, f)
		}
	}
	return out
}

// Extractor applies an ordered rule list to OCR text.
type Extractor struct {
	Rules []Rule
}

// New returns an Extractor using DefaultRules.
func New() *Extractor {
	return &Extractor{Rules: DefaultRules}
}

// Extract runs the default rules over text.
func Extract(text string) Result {
	return New().Extract(text)
}

// Extract fills each field from the first line whose label matches it.
// Fields with no usable line keep models.NotFound.
func (e *Extractor) Extract(text string) Result {
	res := Result{ExtractedFields: models.ExtractedFields{
		Name:       models.NotFound,
		Address:    models.NotFound,
		Income:     models.NotFound,
		LoanAmount: models.NotFound,
		FullText:   text,
	}}

	filled := make(map[Field]bool, len(e.Rules))
	var unmatched []string
	for _, line := range Lines(text) {
		rule, ok := e.match(line)
		if !ok {
			unmatched = append(unmatched, line)
			continue
		}
		if filled[rule.Field] {
			continue
		}
		if v := valueAfterSeparator(line); v != "" {
			res.Set(rule.Field, v)
			filled[rule.Field] = true
		}
	}

	res.Suggestions = e.suggest(unmatched, filled)
	return res
}

func (e *Extractor) match(line string) (Rule, bool) {
	for _, r := range e.Rules {
		if r.Pattern.MatchString(line) {
			return r, true
		}
	}
	return Rule{}, false
}

func (e *Extractor) suggest(lines []string, filled map[Field]bool) []Suggestion {
	metric := metrics.NewJaroWinkler()
	metric.CaseSensitive = false

	var out []Suggestion
	for _, line := range lines {
		label := lineLabel(line)
		if label == "" {
			continue
		}
		best := Suggestion{Line: line}
		for _, r := range e.Rules {
			if filled[r.Field] {
				continue
			}
			if score := strutil.Similarity(label, r.Keyword, metric); score > best.Score {
				best.Field, best.Score = r.Field, score
			}
		}
		if best.Score >= SuggestionThreshold {
			out = append(out, best)
		}
	}
	return out
}

// Lines splits text into trimmed, non-empty lines.
func Lines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func valueAfterSeparator(line string) string {
	i := strings.IndexAny(line, ":-")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(line[i+1:])
}

// lineLabel returns the text before the first separator, or the first few
// words when the line has none.
func lineLabel(line string) string {
	if i := strings.IndexAny(line, ":-"); i >= 0 {
		return strings.TrimSpace(line[:i])
	}
	words := strings.Fields(line)
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.Join(words, " ")
}
