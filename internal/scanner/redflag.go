package scanner

import "strings"

// ContainsRedFlag returns true if any exclusion term appears
// (case-insensitive) anywhere in the combined title + company + description
// text. Matching offers are discarded at fetch time, before extraction ever
// runs.
func ContainsRedFlag(title, company, description string, redFlags []string) bool {
	if len(redFlags) == 0 {
		return false
	}
	combined := strings.ToLower(title + " " + company + " " + description)
	for _, flag := range redFlags {
		if flag == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(flag)) {
			return true
		}
	}
	return false
}
