package extract

import (
	"testing"

	"loanscan/internal/models"
)

func TestExtractScenario(t *testing.T) {
	text := "Name: Jane Doe\nAddress: 12 Oak St\nIncome: 45,000\nLoan Amount: 10,000"

	res := Extract(text)

	want := models.ExtractedFields{
		Name:       "Jane Doe",
		Address:    "12 Oak St",
		Income:     "45,000",
		LoanAmount: "10,000",
		FullText:   text,
	}
	if res.ExtractedFields != want {
		t.Fatalf("expected %+v, got %+v", want, res.ExtractedFields)
	}
	if len(res.Missing()) != 0 {
		t.Fatalf("expected no missing fields, got %v", res.Missing())
	}
}

func TestExtractKeywordLaw(t *testing.T) {
	cases := []struct {
		line  string
		field Field
		want  string
	}{
		{"name: Jane Doe", FieldName, "Jane Doe"},
		{"NAME - Jane Doe  ", FieldName, "Jane Doe"},
		{"Applicant Name:   John Smith", FieldName, "John Smith"},
		{"ADDRESS:  12 Oak St", FieldAddress, "12 Oak St"},
		{"address-12 Oak St", FieldAddress, "12 Oak St"},
		{"Monthly income : 3,200", FieldIncome, "3,200"},
		{"INCOME- 45,000", FieldIncome, "45,000"},
		{"loan amount: 10,000", FieldLoanAmount, "10,000"},
		{"LoanAmount - 7,500", FieldLoanAmount, "7,500"},
		{"Loan   Amount:9000", FieldLoanAmount, "9000"},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			res := Extract("header line\n" + tc.line + "\nfooter")
			for _, f := range Fields {
				got := res.Get(f)
				if f == tc.field {
					if got != tc.want {
						t.Fatalf("%s: expected %q, got %q", f, tc.want, got)
					}
					continue
				}
				if got != models.NotFound {
					t.Fatalf("%s: expected placeholder, got %q", f, got)
				}
			}
		})
	}
}

func TestExtractNothingFound(t *testing.T) {
	res := Extract("")
	for _, f := range Fields {
		if res.Get(f) != models.NotFound {
			t.Fatalf("%s: expected placeholder, got %q", f, res.Get(f))
		}
	}
	if len(res.Missing()) != len(Fields) {
		t.Fatalf("expected all fields missing, got %v", res.Missing())
	}
}

func TestExtractValueKeepsLaterSeparators(t *testing.T) {
	res := Extract("Address: 12-14 Oak St: Unit 3")
	if res.Address != "12-14 Oak St: Unit 3" {
		t.Fatalf("unexpected address %q", res.Address)
	}
}

func TestExtractFirstMatchingLineWins(t *testing.T) {
	res := Extract("Name: Jane Doe\nName: Someone Else")
	if res.Name != "Jane Doe" {
		t.Fatalf("expected first line to win, got %q", res.Name)
	}
}

func TestExtractEmptyValueDoesNotClaimField(t *testing.T) {
	res := Extract("Name:\nName: Jane Doe")
	if res.Name != "Jane Doe" {
		t.Fatalf("expected later non-empty value, got %q", res.Name)
	}
}

func TestExtractFirstPatternClaimsLine(t *testing.T) {
	res := Extract("Business Name - Address: 5 Elm")
	if res.Name != "Address: 5 Elm" {
		t.Fatalf("expected name rule to claim the line, got %q", res.Name)
	}
	if res.Address != models.NotFound {
		t.Fatalf("address should not be filled from a line claimed by name, got %q", res.Address)
	}
}

func TestExtractCustomRules(t *testing.T) {
	e := &Extractor{Rules: DefaultRules[2:3]}
	res := e.Extract("Name: Jane\nIncome: 100")
	if res.Income != "100" {
		t.Fatalf("unexpected income %q", res.Income)
	}
	if res.Name != models.NotFound {
		t.Fatalf("name rule was not configured, got %q", res.Name)
	}
}

func TestExtractSuggestions(t *testing.T) {
	res := Extract("Name: Jane Doe\nName Jane Doe\nDate 2024\nThank you")

	if len(res.Suggestions) != 0 {
		t.Fatalf("unrelated lines and lines for a filled field should not be suggested, got %+v", res.Suggestions)
	}

	res = Extract("Adress: 12 Oak St\nLoan Amount 10,000\nThank you")
	got := map[Field]string{}
	for _, s := range res.Suggestions {
		if s.Score < SuggestionThreshold {
			t.Fatalf("suggestion below threshold: %+v", s)
		}
		got[s.Field] = s.Line
	}
	if got[FieldAddress] != "Adress: 12 Oak St" {
		t.Fatalf("expected address suggestion, got %+v", res.Suggestions)
	}
	if got[FieldLoanAmount] != "Loan Amount 10,000" {
		t.Fatalf("expected loan amount suggestion, got %+v", res.Suggestions)
	}
	if res.Address != models.NotFound || res.LoanAmount != models.NotFound {
		t.Fatalf("suggestions must not fill fields: %+v", res.ExtractedFields)
	}
}

func TestLines(t *testing.T) {
	got := Lines("  a \r\n\n\t\nb\n  ")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected lines %q", got)
	}
}
