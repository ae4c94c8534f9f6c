package domain

import (
	"encoding/json"
	"strings"
)

// Recommendation is one suggestion returned by the recommendation engine.
type Recommendation struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// MatchedRecommendation is a recommendation resolved to a catalog disc.
type MatchedRecommendation struct {
	Disc   Disc   `json:"disc"`
	Reason string `json:"reason"`
}

// BagPromptItem is the reduced disc shape sent to the engine.
// Flight numbers and identifiers are deliberately left out.
type BagPromptItem struct {
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	Category string `json:"category"`
}

// BagPayload maps a bag to the shape embedded in the engine prompt.
func BagPayload(bag []Disc) []BagPromptItem {
	items := make([]BagPromptItem, 0, len(bag))
	for _, d := range bag {
		items = append(items, BagPromptItem{Name: d.Name, Brand: d.Brand, Category: d.Category})
	}
	return items
}

// ExtractJSONArray returns the first balanced "[...]" span of text that is valid JSON.
//
// Every '[' is tried as a start, so an unclosed or invalid bracket in surrounding
// prose does not hide a later array. found is true when at least one balanced span
// exists; ok is true when one of them parsed. Brackets inside JSON string literals
// do not count towards the balance.
func ExtractJSONArray(text string) (span string, found bool, ok bool) {
	for start := strings.IndexByte(text, '['); start >= 0; {
		if end := matchingBracket(text, start); end >= 0 {
			found = true
			candidate := text[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true, true
			}
		}

		next := strings.IndexByte(text[start+1:], '[')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", found, false
}

// matchingBracket returns the index of the ']' closing the '[' at open, or -1.
func matchingBracket(text string, open int) int {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// ParseRecommendations extracts and validates the recommendation list from raw engine text.
//
// The engine output is untrusted: elements that are not objects carrying a non-empty
// string "name" and a string "reason" are ignored.
func ParseRecommendations(text string) ([]Recommendation, error) {
	span, found, ok := ExtractJSONArray(text)
	if !found {
		return nil, &ParseError{Reason: "no JSON array in engine output"}
	}
	if !ok {
		return nil, &ParseError{Reason: "malformed JSON array in engine output"}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return nil, &ParseError{Reason: "engine output is not an array", Err: err}
	}

	recs := make([]Recommendation, 0, len(raw))
	for _, elem := range raw {
		if rec, valid := decodeRecommendation(elem); valid {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func decodeRecommendation(elem json.RawMessage) (Recommendation, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(elem, &obj); err != nil || obj == nil {
		return Recommendation{}, false
	}

	var name, reason string
	if err := json.Unmarshal(obj["name"], &name); err != nil {
		return Recommendation{}, false
	}
	if err := json.Unmarshal(obj["reason"], &reason); err != nil {
		return Recommendation{}, false
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return Recommendation{}, false
	}
	return Recommendation{Name: name, Reason: strings.TrimSpace(reason)}, true
}

// NamesMatch is the catalog matching policy for recommended names:
// case-insensitive equality after trimming surrounding whitespace.
func NamesMatch(recommended, catalogName string) bool {
	return strings.EqualFold(strings.TrimSpace(recommended), strings.TrimSpace(catalogName))
}

// MatchRecommendations resolves recommendations against the catalog in engine order.
// Unmatched names are dropped, as are repeats of a disc already matched.
func MatchRecommendations(recs []Recommendation, catalog []Disc) []MatchedRecommendation {
	byName := make(map[string]Disc, len(catalog))
	for _, d := range catalog {
		key := strings.ToLower(strings.TrimSpace(d.Name))
		if _, exists := byName[key]; !exists {
			byName[key] = d
		}
	}

	matched := make([]MatchedRecommendation, 0, len(recs))
	used := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		d, ok := byName[strings.ToLower(strings.TrimSpace(rec.Name))]
		if !ok {
			continue
		}
		if _, dup := used[d.ID]; dup {
			continue
		}
		used[d.ID] = struct{}{}
		matched = append(matched, MatchedRecommendation{Disc: d, Reason: rec.Reason})
	}
	return matched
}
