package assistant

import (
	"strings"
	"unicode"

	"github.com/iliyamo/smart-seats/internal/model"
)

type keywordRule struct {
	word  string
	apply func(*model.SuggestionFilter)
}

func needPower(v bool) func(*model.SuggestionFilter) {
	return func(f *model.SuggestionFilter) { f.NeedPower = &v }
}

func needWifi(v bool) func(*model.SuggestionFilter) {
	return func(f *model.SuggestionFilter) { f.NeedWifi = &v }
}

func needAC(v bool) func(*model.SuggestionFilter) {
	return func(f *model.SuggestionFilter) { f.NeedAC = &v }
}

func seatType(t model.SeatType) func(*model.SuggestionFilter) {
	return func(f *model.SuggestionFilter) { f.SeatType = t }
}

// Rules apply in order; a later match overrides an earlier one.
var keywordRules = []keywordRule{
	{"power", needPower(true)},
	{"charge", needPower(true)},
	{"outlet", needPower(true)},
	{"socket", needPower(true)},
	{"quiet", seatType(model.SeatQuiet)},
	{"silent", seatType(model.SeatQuiet)},
	{"group", seatType(model.SeatGroup)},
	{"team", seatType(model.SeatGroup)},
	{"pod", seatType(model.SeatStudyPod)},
	{"computer", seatType(model.SeatComputer)},
	{"desktop", seatType(model.SeatComputer)},
	{"pc", seatType(model.SeatComputer)},
	{"wifi", needWifi(true)},
	{"internet", needWifi(true)},
	{"online", needWifi(true)},
	{"cool", needAC(true)},
	{"aircon", needAC(true)},
	{"ac", needAC(true)},
	{"hot", needAC(false)},
}

// ExtractPreferences maps keywords in a free-text request to a filter.
// Matching is on whole words, ignoring case, hyphens and a plural "s",
// so "Wi-Fi" counts as wifi and "space" does not count as ac.
func ExtractPreferences(text string) model.SuggestionFilter {
	words := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) {
		w = strings.ReplaceAll(w, "-", "")
		if w == "" {
			continue
		}
		words[w] = struct{}{}
		if len(w) > 2 && strings.HasSuffix(w, "s") {
			words[strings.TrimSuffix(w, "s")] = struct{}{}
		}
	}

	var f model.SuggestionFilter
	for _, rule := range keywordRules {
		if _, ok := words[rule.word]; ok {
			rule.apply(&f)
		}
	}
	return f
}
