// Package validate checks a reviewed loan application before it is stored.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"loanscan/internal/models"
)

// amountRe accepts digits with optional comma grouping: no sign, decimal
// point or currency symbol.
var amountRe = regexp.MustCompile(`^\d[\d,]*$`)

// Submission carries the four user-edited fields.
type Submission struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Income     string `json:"income"`
	LoanAmount string `json:"loanAmount"`
}

// FieldError describes one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value"`
}

type check struct {
	ok      func(string) bool
	message string
}

type fieldRules struct {
	field  string
	value  func(Submission) string
	checks []check
}

func minLength(n int) func(string) bool {
	return func(v string) bool { return utf8.RuneCountInString(v) >= n }
}

func notPlaceholder(v string) bool {
	return !strings.EqualFold(v, models.NotFound)
}

var rules = []fieldRules{
	{
		field: "name",
		value: func(s Submission) string { return s.Name },
		checks: []check{
			{minLength(2), "Name too short"},
			{notPlaceholder, "Please enter a valid name."},
		},
	},
	{
		field: "address",
		value: func(s Submission) string { return s.Address },
		checks: []check{
			{minLength(5), "Address too short"},
			{notPlaceholder, "Please enter a valid address."},
		},
	},
	{
		field: "income",
		value: func(s Submission) string { return s.Income },
		checks: []check{
			{amountRe.MatchString, "Invalid income format"},
			{notPlaceholder, "Please enter a valid income."},
		},
	},
	{
		field: "loanAmount",
		value: func(s Submission) string { return s.LoanAmount },
		checks: []check{
			{amountRe.MatchString, "Invalid loan amount format"},
			{notPlaceholder, "Please enter a valid loan amount."},
		},
	},
}

// Validate runs every rule against s and returns the failures in field
// order. An empty result means s is valid.
func Validate(s Submission) []FieldError {
	var errs []FieldError
	for _, r := range rules {
		v := r.value(s)
		for _, c := range r.checks {
			if !c.ok(v) {
				errs = append(errs, FieldError{Field: r.field, Message: c.message, Value: v})
			}
		}
	}
	return errs
}

// Application builds the record to persist from a valid submission.
func (s Submission) Application() models.Application {
	return models.Application{
		Name:       s.Name,
		Address:    s.Address,
		Income:     s.Income,
		LoanAmount: s.LoanAmount,
	}
}
