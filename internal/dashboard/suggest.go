package dashboard

import "strings"

// popularCities feeds the add-box autocomplete. Matching is a client-style
// case-insensitive substring filter over this static list; no network call
// is involved.
var popularCities = []string{
	"Amsterdam",
	"Athens",
	"Bangkok",
	"Barcelona",
	"Beijing",
	"Berlin",
	"Buenos Aires",
	"Cairo",
	"Cape Town",
	"Chicago",
	"Dubai",
	"Dublin",
	"Hong Kong",
	"Istanbul",
	"Lagos",
	"Lisbon",
	"London",
	"Los Angeles",
	"Madrid",
	"Mexico City",
	"Moscow",
	"Mumbai",
	"New York",
	"Oslo",
	"Paris",
	"Prague",
	"Rio de Janeiro",
	"Rome",
	"San Francisco",
	"Seoul",
	"Singapore",
	"Stockholm",
	"Sydney",
	"Tokyo",
	"Toronto",
	"Vienna",
	"Warsaw",
	"Zurich",
}

// Suggest returns up to the configured maximum of well-known city names
// containing the query as a case-insensitive substring. A blank query yields
// no suggestions.
func (s *Service) Suggest(query string) []string {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return []string{}
	}

	matches := make([]string, 0, s.cfg.MaxSuggestions)
	for _, city := range popularCities {
		if strings.Contains(strings.ToLower(city), query) {
			matches = append(matches, city)
			if len(matches) == s.cfg.MaxSuggestions {
				break
			}
		}
	}
	return matches
}
