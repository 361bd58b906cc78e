// Package reconcile checks generated concierge replies against the seats
// that were actually offered.  Whatever the model writes, the highlight
// list that leaves this package only ever names offered candidates and
// the reply text never carries the marker line.
package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/smart-seats/internal/model"
)

// Marker is the token the model is asked to end its reply with, in the
// form "highlight_seats_list:[id1,id2]".
const Marker = "highlight_seats_list"

// Kind tags where a highlight list came from.
type Kind int

const (
	NoneFound Kind = iota
	ExplicitMarker
	InferredFromText
	Fallback
)

func (k Kind) String() string {
	switch k {
	case ExplicitMarker:
		return "explicit"
	case InferredFromText:
		return "inferred"
	case Fallback:
		return "fallback"
	default:
		return "none"
	}
}

// Outcome is the result of parsing one reply.
type Outcome struct {
	Kind    Kind
	SeatIDs []string
}

// Reply is the final, safe answer for one chat turn.
type Reply struct {
	Text    string
	SeatIDs []string
	Source  Kind
}

// Parse strips every marker line from text and resolves the seats the
// reply refers to.  Marker tokens are matched against candidate ids
// first, then case-insensitively against seat numbers.  Without a usable
// marker the cleaned text is scanned for seat numbers instead.
func Parse(text string, candidates []model.Candidate) (string, Outcome) {
	cleaned, tokens := stripMarkers(text)

	ids := newIDSet()
	for _, tok := range tokens {
		if id, ok := resolveToken(tok, candidates); ok {
			ids.add(id)
		}
	}
	if len(ids.list) > 0 {
		return cleaned, Outcome{Kind: ExplicitMarker, SeatIDs: ids.list}
	}

	if inferred := scanSeatNumbers(cleaned, candidates); len(inferred) > 0 {
		return cleaned, Outcome{Kind: InferredFromText, SeatIDs: inferred}
	}
	return cleaned, Outcome{Kind: NoneFound, SeatIDs: []string{}}
}

// Reconcile turns a generated reply into a Reply.  It never fails: if
// nothing is left once the marker is removed a templated sentence naming
// exactly the parsed highlights is used.
func Reconcile(text string, candidates []model.Candidate) Reply {
	cleaned, out := Parse(text, candidates)
	if cleaned == "" {
		cleaned = templateText(candidates, out.SeatIDs)
	}
	return Reply{Text: cleaned, SeatIDs: out.SeatIDs, Source: out.Kind}
}

// NoSeatText and NoMatchText stand in for a reply that was nothing but a
// marker resolving to no offered seat.  They name no seat so the text
// always agrees with the empty highlight list.
const (
	NoSeatText  = "I don't have a specific seat to point you to for that; the seat map shows what is free right now."
	NoMatchText = "I couldn't find any matching seats right now, please try again later."
)

// templateText stands in for a reply that was nothing but a marker.
func templateText(candidates []model.Candidate, ids []string) string {
	if len(ids) == 0 {
		if len(candidates) == 0 {
			return NoMatchText
		}
		return NoSeatText
	}
	byID := make(map[string]string, len(candidates))
	for _, c := range candidates {
		byID[c.Seat.ID] = c.Seat.SeatNumber
	}
	numbers := make([]string, 0, len(ids))
	for _, id := range ids {
		numbers = append(numbers, byID[id])
	}
	return "Take a look at seat " + strings.Join(numbers, ", ") + "; availability changes quickly, so head over soon."
}

// FallbackReply builds the deterministic reply used when generation is
// unavailable.  It names the top candidate, or apologises when there is
// none.
func FallbackReply(candidates []model.Candidate, latest string) Reply {
	if len(candidates) == 0 {
		return Reply{
			Text:    "Concierge is offline and I couldn't find any matching seats right now, please try again later.",
			SeatIDs: []string{},
			Source:  Fallback,
		}
	}
	top := candidates[0]
	floor := top.Seat.FloorName
	if floor == "" {
		floor = "the selected floor"
	}
	text := fmt.Sprintf("Concierge is offline, so here is a quick pick: seat %s on %s (%s)",
		top.Seat.SeatNumber, floor, top.RationaleText())
	if req := quoteRequest(latest); req != "" {
		text += " matches your latest request: " + req
	}
	return Reply{Text: text + ".", SeatIDs: []string{top.Seat.ID}, Source: Fallback}
}

// stripMarkers removes every line holding the marker and returns the
// remaining text plus the raw tokens listed after each marker.  Text in
// front of a marker on the same line is kept.
func stripMarkers(text string) (string, []string) {
	var (
		kept   []string
		tokens []string
	)
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		idx := indexMarker(line)
		if idx < 0 {
			kept = append(kept, line)
			continue
		}
		if before := strings.TrimRight(line[:idx], " \t"); strings.TrimSpace(before) != "" {
			kept = append(kept, before)
		}
		tokens = append(tokens, markerTokens(line[idx+len(Marker):])...)
	}
	return strings.TrimSpace(strings.Join(kept, "\n")), tokens
}

// markerTokens splits what follows the marker: an optional colon, then a
// bracketed comma separated list.  A missing closing bracket takes the
// rest of the line.
func markerTokens(rest string) []string {
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	if !strings.HasPrefix(rest, "[") {
		return nil
	}
	rest = rest[1:]
	if end := strings.IndexByte(rest, ']'); end >= 0 {
		rest = rest[:end]
	}
	var out []string
	for _, tok := range strings.Split(rest, ",") {
		tok = strings.Trim(strings.TrimSpace(tok), "\"'`")
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func resolveToken(tok string, candidates []model.Candidate) (string, bool) {
	for _, c := range candidates {
		if c.Seat.ID == tok {
			return c.Seat.ID, true
		}
	}
	for _, c := range candidates {
		if c.Seat.SeatNumber != "" && strings.EqualFold(c.Seat.SeatNumber, tok) {
			return c.Seat.ID, true
		}
	}
	return "", false
}

// scanSeatNumbers returns the ids of candidates whose seat number occurs
// in text, ordered by first occurrence.
func scanSeatNumbers(text string, candidates []model.Candidate) []string {
	lower := strings.ToLower(text)
	type hit struct {
		pos int
		id  string
	}
	var hits []hit
	for _, c := range candidates {
		if c.Seat.SeatNumber == "" {
			continue
		}
		if pos := strings.Index(lower, strings.ToLower(c.Seat.SeatNumber)); pos >= 0 {
			hits = append(hits, hit{pos, c.Seat.ID})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	ids := newIDSet()
	for _, h := range hits {
		ids.add(h.id)
	}
	return ids.list
}

// quoteRequest shortens the user's request for the fallback text and
// drops anything that looks like a marker.
func quoteRequest(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	for {
		idx := indexMarker(s)
		if idx < 0 {
			break
		}
		s = s[:idx] + s[idx+len(Marker):]
	}
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > 160 {
		s = string(r[:160]) + "..."
	}
	return s
}

// indexMarker is a case-insensitive strings.Index for Marker.  It
// works on bytes so the index is always valid for s.
func indexMarker(s string) int {
	for i := 0; i+len(Marker) <= len(s); i++ {
		match := true
		for j := 0; j < len(Marker); j++ {
			b := s[i+j]
			if 'A' <= b && b <= 'Z' {
				b += 'a' - 'A'
			}
			if b != Marker[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

type idSet struct {
	seen map[string]struct{}
	list []string
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[string]struct{}), list: []string{}}
}

func (s *idSet) add(id string) {
	if _, dup := s.seen[id]; dup {
		return
	}
	s.seen[id] = struct{}{}
	s.list = append(s.list, id)
}
