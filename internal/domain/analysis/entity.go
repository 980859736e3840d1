package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Severity enum
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Normalize lowercases the value and maps anything unknown to low.
func (s Severity) Normalize() Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(string(s)))) {
	case SeverityHigh, "critical":
		return SeverityHigh
	case SeverityMedium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Score is a 0-100 compliance score. The backend is loose about number
// formats, so floats and numeric strings are accepted and rounded.
type Score int

func (s *Score) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == "" {
		*s = 0
		return nil
	}
	raw = strings.Trim(raw, `"`)
	raw = strings.TrimSuffix(raw, "%")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	*s = Score(ClampScore(int(math.Round(f))))
	return nil
}

// Int returns the clamped score.
func (s Score) Int() int { return ClampScore(int(s)) }

// Ticket is a remediation record returned by the backend. Issues share the
// same shape.
type Ticket struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Severity      Severity `json:"severity"`
	AutoRemediate bool     `json:"auto_remediate"`
}

// Issue is an infrastructure finding.
type Issue = Ticket

type Raw struct {
	Status   string `json:"status"`
	Analysis string `json:"analysis"`
}

type Processed struct {
	Score   Score    `json:"score"`
	Tickets []Ticket `json:"tickets"`
	Issues  []Issue  `json:"issues"`
}

// SubAnalysis is one half of a result (document or infrastructure).
type SubAnalysis struct {
	Raw       Raw        `json:"raw"`
	Processed *Processed `json:"processed,omitempty"`
}

// Score returns the processed score or 0 when nothing was processed.
func (a *SubAnalysis) Score() int {
	if a == nil || a.Processed == nil {
		return 0
	}
	return a.Processed.Score.Int()
}

// TicketList returns processed tickets, nil-safe.
func (a *SubAnalysis) TicketList() []Ticket {
	if a == nil || a.Processed == nil {
		return nil
	}
	return a.Processed.Tickets
}

// IssueList returns processed issues, nil-safe.
func (a *SubAnalysis) IssueList() []Issue {
	if a == nil || a.Processed == nil {
		return nil
	}
	return a.Processed.Issues
}

// ToolCall is the legacy tool-call record of the simple /analyze response.
type ToolCall struct {
	Args struct {
		Summary     string `json:"summary"`
		Description string `json:"description"`
	} `json:"args"`
	Result string `json:"result"`
}

// Result is the payload of an analysis request. It is produced once and
// never mutated afterwards.
type Result struct {
	DocumentAnalysis       *SubAnalysis `json:"document_analysis,omitempty"`
	InfrastructureAnalysis *SubAnalysis `json:"infrastructure_analysis,omitempty"`

	// simple response shape
	Analysis  string     `json:"analysis,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// UploadIDs identifies documents stored by the backend.
type UploadIDs struct {
	NormID     string `json:"norm_id,omitempty"`
	PSSIID     string `json:"pssi_id"`
	UploadedAt string `json:"uploaded_at,omitempty"`
}

// AnalyzeRequest carries either two uploaded ids or a pssi id plus a norm name.
type AnalyzeRequest struct {
	NormID   string
	NormName string
	PSSIID   string
}

// Document is a file to upload under a multipart field.
type Document struct {
	Field    string
	Filename string
	Data     []byte
}

// Finding is a fast-analysis finding.
type Finding struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Data   string `json:"data"`
}

// Compliant reports whether the finding status is "compliant".
func (f Finding) Compliant() bool { return strings.EqualFold(f.Status, "compliant") }

// JiraTicket is a ticket reference created by the backend.
type JiraTicket struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
	Link    string `json:"link"`
}

type FastAnalysis struct {
	Summary     string       `json:"summary"`
	Findings    []Finding    `json:"findings"`
	JiraTickets []JiraTicket `json:"jira_tickets"`
}

type ReflectAnalysis struct {
	Status      string            `json:"status"`
	Cycles      int               `json:"cycles"`
	Memory      []json.RawMessage `json:"memory"`
	TokenUsage  map[string]any    `json:"token_usage,omitempty"`
	Truncated   bool              `json:"truncated,omitempty"`
	JiraTickets []JiraTicket      `json:"jira_tickets"`
}

// TicketReceipt is the /create-ticket response.
type TicketReceipt struct {
	Key    string `json:"key,omitempty"`
	Result string `json:"result,omitempty"`
}

// Label returns the key when present, otherwise the result text.
func (t TicketReceipt) Label() string {
	if t.Key != "" {
		return t.Key
	}
	return t.Result
}

type NormList struct {
	Norms []any `json:"norms"`
}

// Names extracts display names; entries may be plain strings or objects
// with a name/id field.
func (n NormList) Names() []string {
	out := make([]string, 0, len(n.Norms))
	for _, v := range n.Norms {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case map[string]any:
			for _, k := range []string{"name", "id", "filename"} {
				if s, ok := t[k].(string); ok && s != "" {
					out = append(out, s)
					break
				}
			}
		}
	}
	return out
}
