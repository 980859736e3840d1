package analysis

import (
	"context"
	"encoding/json"
	"strings"
)

// Backend port (the external analysis API)
type Backend interface {
	Upload(ctx context.Context, docs []Document) (UploadIDs, error)
	Analyze(ctx context.Context, req AnalyzeRequest) (Outcome[Result], error)
	FastAnalyze(ctx context.Context, policy string) (Outcome[FastAnalysis], error)
	ReflectAnalyze(ctx context.Context, policy string) (Outcome[ReflectAnalysis], error)
	CreateTicket(ctx context.Context, summary, description string) (TicketReceipt, error)
	Norms(ctx context.Context) (NormList, error)
}

// FastAnalyzer can replace the backend for fast policy analysis.
type FastAnalyzer interface {
	FastAnalyze(ctx context.Context, policy string) (Outcome[FastAnalysis], error)
}

// Outcome is a decoded response body. The backend does not always return
// well-formed JSON; in that case Value is nil and Raw holds the text.
type Outcome[T any] struct {
	Value *T
	Raw   string
}

// Parsed reports whether the body decoded as JSON.
func (o Outcome[T]) Parsed() bool { return o.Value != nil }

// DecodeOutcome never fails: unparseable bodies fall back to raw text.
func DecodeOutcome[T any](body []byte) Outcome[T] {
	out := Outcome[T]{Raw: string(body)}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return out
	}
	var v T
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return out
	}
	out.Value = &v
	return out
}
