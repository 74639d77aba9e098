package scanner_test

import (
	"testing"

	"findmygig/scan-service/internal/scanner"
)

func TestContainsRedFlag(t *testing.T) {
	cases := []struct {
		name        string
		title       string
		company     string
		description string
		flags       []string
		want        bool
	}{
		{"no flags", "BizOps Lead", "Acme", "great role", nil, false},
		{"match in title", "Commission Only Sales", "Acme", "", []string{"commission only"}, true},
		{"match in company", "BizOps Lead", "Shady Staffing Agency", "", []string{"staffing agency"}, true},
		{"match in description", "BizOps Lead", "Acme", "weekend on-call required", []string{"weekend on-call"}, true},
		{"case insensitive", "BizOps Lead", "Acme", "WEEKEND ON-CALL", []string{"weekend on-call"}, true},
		{"empty flag ignored", "BizOps Lead", "Acme", "anything", []string{""}, false},
		{"no match", "BizOps Lead", "Acme", "hybrid, Tel Aviv", []string{"commission only"}, false},
	}
	for _, c := range cases {
		got := scanner.ContainsRedFlag(c.title, c.company, c.description, c.flags)
		if got != c.want {
			t.Errorf("%s: ContainsRedFlag = %v, want %v", c.name, got, c.want)
		}
	}
}
