// Package assistant runs one turn of the seat concierge chat: it reads
// preferences from the latest message, ranks seats, asks the generation
// backend for a reply and reconciles that reply with the seats offered.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/smart-seats/internal/llm"
	"github.com/iliyamo/smart-seats/internal/model"
	"github.com/iliyamo/smart-seats/internal/occupancy"
	"github.com/iliyamo/smart-seats/internal/reconcile"
)

// CandidateLimit is how many seats a chat turn offers.
const CandidateLimit = 3

// ValidationError reports a chat request that cannot be answered.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Ranker produces seat candidates.
type Ranker interface {
	Suggest(ctx context.Context, f model.SuggestionFilter, limit int) ([]model.Candidate, error)
}

// Snapshots gives the latest published seat snapshot.
type Snapshots interface {
	Get() *model.Snapshot
}

// History lists stored occupancy samples, newest first.
type History interface {
	List(ctx context.Context, location string, limit int) ([]model.OccupancyRecord, error)
}

const (
	historySamples    = 500
	historySummaryMax = 4000
)

// Service answers chat turns.  It is stateless between turns and safe
// for concurrent use.
type Service struct {
	ranker    Ranker
	snapshots Snapshots
	gen       llm.Generator
	timeout   time.Duration
	history   History
	log       *slog.Logger
}

// NewService wires a Service.  timeout bounds each generation call.
func NewService(r Ranker, s Snapshots, gen llm.Generator, timeout time.Duration, logger *slog.Logger) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ranker: r, snapshots: s, gen: gen, timeout: timeout, log: logger}
}

// WithHistory makes generation prompts carry a summary of recorded
// occupancy.  Call it before the first Chat.
func (s *Service) WithHistory(h History) *Service {
	s.history = h
	return s
}

// Validate checks a conversation before any work is done for it.
func Validate(messages []model.ChatMessage) error {
	if len(messages) == 0 {
		return &ValidationError{Field: "messages", Reason: "at least one message is required"}
	}
	for i, m := range messages {
		switch strings.ToLower(strings.TrimSpace(m.Role)) {
		case "user", "assistant":
		default:
			return &ValidationError{Field: fmt.Sprintf("messages[%d].role", i), Reason: fmt.Sprintf("unknown role %q", m.Role)}
		}
	}
	if strings.TrimSpace(messages[len(messages)-1].Content) == "" {
		return &ValidationError{Field: "messages", Reason: "latest message is blank"}
	}
	return nil
}

// Chat answers the latest message of a conversation.  A failing or
// unconfigured backend degrades to a templated reply; only invalid input
// and seat store failures are returned as errors.
func (s *Service) Chat(ctx context.Context, messages []model.ChatMessage) (*model.ChatReply, error) {
	if err := Validate(messages); err != nil {
		return nil, err
	}
	latest := strings.TrimSpace(messages[len(messages)-1].Content)

	filter := ExtractPreferences(latest)
	candidates, err := s.ranker.Suggest(ctx, filter, CandidateLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		// relax every filter and offer whatever is free
		candidates, err = s.ranker.Suggest(ctx, model.SuggestionFilter{}, CandidateLimit)
		if err != nil {
			return nil, err
		}
	}

	reply := s.compose(ctx, messages, candidates, latest)

	details := make([]model.SeatDetail, 0, len(candidates))
	for _, c := range candidates {
		details = append(details, c.Detail())
	}
	return &model.ChatReply{Reply: reply.Text, HighlightSeats: reply.SeatIDs, SeatDetails: details}, nil
}

func (s *Service) compose(ctx context.Context, messages []model.ChatMessage, candidates []model.Candidate, latest string) reconcile.Reply {
	if s.gen == nil {
		return reconcile.FallbackReply(candidates, latest)
	}
	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := s.userPrompt(messages, candidates, latest) + s.historyBlock(gctx)
	text, err := s.gen.Generate(gctx, systemPrompt, prompt)
	if err != nil {
		if errors.Is(err, llm.ErrBackendUnavailable) {
			s.log.Debug("assistant: generation backend not configured, using fallback")
		} else {
			s.log.Warn("assistant: generation failed, using fallback", "err", err)
		}
		return reconcile.FallbackReply(candidates, latest)
	}
	out := reconcile.Reconcile(text, candidates)
	s.log.Debug("assistant: reply reconciled", "source", out.Source.String(), "highlights", len(out.SeatIDs))
	return out
}

const systemPrompt = "You are the concierge for a university library. " +
	"Explain seat recommendations in friendly language, referencing seat numbers and floors. " +
	"Lean on the encoded seat snapshot so guidance stays current, and mention that suggestions are time-sensitive. " +
	"Offer concise advice (under 120 words) and optionally mention power, Wi-Fi or air-conditioning. " +
	"Only recommend seats from the recommended list. " +
	"End your reply with one line of the form " + reconcile.Marker + ":[<seat ids you recommend, comma separated>]."

func (s *Service) userPrompt(messages []model.ChatMessage, candidates []model.Candidate, latest string) string {
	var conv strings.Builder
	for i, m := range messages {
		if i > 0 {
			conv.WriteByte('\n')
		}
		role := strings.ToLower(strings.TrimSpace(m.Role))
		conv.WriteString(strings.ToUpper(role[:1]) + role[1:])
		conv.WriteString(": ")
		conv.WriteString(m.Content)
	}

	details := make([]model.SeatDetail, 0, len(candidates))
	for _, c := range candidates {
		details = append(details, c.Detail())
	}
	seatJSON, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		seatJSON = []byte("[]")
	}

	encoded, stamp := "", "unknown"
	if s.snapshots != nil {
		if snap := s.snapshots.Get(); snap != nil && snap.Version > 0 {
			encoded = snap.Encoded
			stamp = snap.LastUpdated.UTC().Format(time.RFC3339)
		}
	}

	return "Conversation so far:\n" + conv.String() + "\n\n" +
		"Latest user request:\n" + latest + "\n\n" +
		"Recommended seats (JSON):\n" + string(seatJSON) + "\n\n" +
		"Seat map snapshot (encoded lines) refreshed at " + stamp + ":\n" + encoded
}

// historyBlock summarises recorded occupancy for the prompt.  It is empty
// when no history is wired, none is recorded or the read fails.
func (s *Service) historyBlock(ctx context.Context) string {
	if s.history == nil {
		return ""
	}
	recs, err := s.history.List(ctx, "", historySamples)
	if err != nil {
		s.log.Warn("assistant: occupancy history unavailable", "err", err)
		return ""
	}
	if len(recs) == 0 {
		return ""
	}
	raw, err := json.Marshal(occupancy.Summarize(recs))
	if err != nil {
		return ""
	}
	summary := string(raw)
	if len(summary) > historySummaryMax {
		summary = summary[:historySummaryMax]
	}
	return "\n\nOccupancy history summary (hours are UTC, trimmed):\n" + summary
}
