// Package scanner implements the scan-and-ticket reconciliation pipeline:
// preference aggregation, job deduplication, fit scoring via the LLM
// collaborator, threshold-gated ticket creation and the all-users sweep.
package scanner

import "findmygig/scan-service/internal/model"

// AggregatePreferences unions the role/location/company lists of all active
// preference sets. Order is first-seen; inactive sets are ignored. A user
// with no active sets yields empty lists, which the scorer accepts.
func AggregatePreferences(sets []model.PreferenceSet) model.Preferences {
	prefs := model.Preferences{
		Roles:     []string{},
		Locations: []string{},
		Companies: []string{},
	}
	seenRoles := make(map[string]struct{})
	seenLocations := make(map[string]struct{})
	seenCompanies := make(map[string]struct{})

	for _, set := range sets {
		if !set.Active {
			continue
		}
		for _, r := range set.Roles {
			if _, ok := seenRoles[r]; ok {
				continue
			}
			seenRoles[r] = struct{}{}
			prefs.Roles = append(prefs.Roles, r)
		}
		for _, l := range set.Locations {
			if _, ok := seenLocations[l]; ok {
				continue
			}
			seenLocations[l] = struct{}{}
			prefs.Locations = append(prefs.Locations, l)
		}
		for _, c := range set.Companies {
			if _, ok := seenCompanies[c]; ok {
				continue
			}
			seenCompanies[c] = struct{}{}
			prefs.Companies = append(prefs.Companies, c)
		}
	}
	return prefs
}

// AggregateRedFlags unions the exclusion terms of all active sets.
func AggregateRedFlags(sets []model.PreferenceSet) []string {
	var flags []string
	seen := make(map[string]struct{})
	for _, set := range sets {
		if !set.Active {
			continue
		}
		for _, f := range set.RedFlags {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			flags = append(flags, f)
		}
	}
	return flags
}
