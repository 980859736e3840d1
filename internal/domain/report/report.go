package report

import (
	"errors"
	"strings"
)

var ErrUnknownType = errors.New("unknown evidence type")

type EvidenceType string

const (
	TypeAll          EvidenceType = "all"
	TypeLogs         EvidenceType = "logs"
	TypePolicies     EvidenceType = "policies"
	TypeCertificates EvidenceType = "certificates"
)

// ParseType maps an empty value to all.
func ParseType(s string) (EvidenceType, error) {
	switch t := EvidenceType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TypeAll, nil
	case TypeAll, TypeLogs, TypePolicies, TypeCertificates:
		return t, nil
	}
	return "", ErrUnknownType
}

type EvidenceItem struct {
	Title string       `json:"title"`
	Type  EvidenceType `json:"type"`
	Date  string       `json:"date"`
	Tags  []string     `json:"tags"`
}

type TimelineEvent struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ScorePoint struct {
	Label string `json:"label"`
	Score int    `json:"score"`
}

type Filter struct {
	Search string
	Type   EvidenceType
}

// Match is a case-insensitive search over title and tags plus a type check.
func (f Filter) Match(item EvidenceItem) bool {
	if f.Type != "" && f.Type != TypeAll && item.Type != f.Type {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" || strings.Contains(strings.ToLower(item.Title), term) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func (f Filter) Apply(items []EvidenceItem) []EvidenceItem {
	out := make([]EvidenceItem, 0, len(items))
	for _, it := range items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

// Report is the view-model of the report page.
type Report struct {
	Evidence []EvidenceItem  `json:"evidence"`
	Timeline []TimelineEvent `json:"timeline"`
	Scores   []ScorePoint    `json:"scores"`
	Filter   Filter          `json:"-"`
	Total    int             `json:"total"`
}

// Latest returns the last score of the series, or 0.
func (r Report) Latest() int {
	if len(r.Scores) == 0 {
		return 0
	}
	return r.Scores[len(r.Scores)-1].Score
}
