package demo

import (
	"time"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/alerts"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/report"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/review"
)

// samplePayload is the result shown when the session holds nothing usable.
const samplePayload = `{
  "document_analysis": {
    "raw": {
      "status": "completed",
      "analysis": "Based on my analysis, the PSSI document has a compliance score of 78% with the ANSSI Hygiene Guide."
    },
    "processed": {
      "score": 78,
      "tickets": [
        {
          "title": "Missing encryption requirement",
          "description": "The PSSI does not specify encryption requirements.",
          "severity": "high",
          "auto_remediate": false
        }
      ],
      "issues": []
    }
  },
  "infrastructure_analysis": {
    "raw": {
      "status": "completed",
      "analysis": "The infrastructure compliance score is 65% based on AWS configurations."
    },
    "processed": {
      "score": 65,
      "tickets": [],
      "issues": [
        {
          "title": "S3 Bucket Misconfiguration",
          "description": "S3 buckets should have server-side encryption enabled",
          "severity": "medium",
          "auto_remediate": true
        }
      ]
    }
  }
}`

// Alerts is the seed of every alerts feed.
func Alerts(now time.Time) []alerts.Alert {
	return []alerts.Alert{
		{
			ID:          1,
			Title:       "AWS RDS misconfiguration",
			Description: "Public access enabled on production database",
			Severity:    analysis.SeverityHigh,
			Timestamp:   now,
			Unread:      true,
		},
		{
			ID:          2,
			Title:       "Missing encryption at rest",
			Description: "S3 bucket without server-side encryption",
			Severity:    analysis.SeverityMedium,
			Timestamp:   now.Add(-time.Hour),
			Unread:      true,
		},
		{
			ID:          3,
			Title:       "Incomplete audit logs",
			Description: "System logs missing user actions",
			Severity:    analysis.SeverityLow,
			Timestamp:   now.Add(-2 * time.Hour),
		},
	}
}

const CurrentPolicy = `# Data Retention Policy

## Purpose
This policy defines the requirements for data retention and disposal.

## Scope
All company data stored in any format.

## Policy
1. Customer data must be retained for 7 years
2. Employee records must be kept for 5 years
3. Financial records must be maintained for 10 years

## Exceptions
None.`

const ProposedPolicy = `# Data Retention Policy

## Purpose
This policy defines the requirements for data retention and disposal.

## Scope
All company data stored in any format.

## Policy
1. Customer data must be retained for 7 years
2. Employee records must be kept for 5 years
3. Financial records must be maintained for 10 years
4. Audit logs must be retained for 3 years
5. Backup data must be kept for 1 year

## Exceptions
Temporary files may be deleted after 30 days.`

func PolicyChanges() []review.Change {
	return []review.Change{
		{Type: review.ChangeAdded, Text: "Added requirement for audit log retention"},
		{Type: review.ChangeAdded, Text: "Added backup data retention policy"},
		{Type: review.ChangeAdded, Text: "Added exception for temporary files"},
	}
}

// Review returns a fresh HITL review over the sample policies.
func Review(now time.Time) *review.Review {
	return review.New(CurrentPolicy, ProposedPolicy, PolicyChanges(), now)
}

func Evidence() []report.EvidenceItem {
	return []report.EvidenceItem{
		{Title: "AWS CloudTrail Logs", Type: report.TypeLogs, Date: "2024-03-15", Tags: []string{"AWS", "Security", "Q1 2024"}},
		{Title: "GDPR Policy Document", Type: report.TypePolicies, Date: "2024-03-10", Tags: []string{"GDPR", "Policy"}},
		{Title: "ISO 27001 Certificate", Type: report.TypeCertificates, Date: "2024-03-05", Tags: []string{"ISO27001", "Certification"}},
	}
}

func Timeline() []report.TimelineEvent {
	return []report.TimelineEvent{
		{Date: "2024-03-15", Title: "GDPR Compliance Update", Description: "Updated data retention policies to meet GDPR requirements"},
		{Date: "2024-03-10", Title: "ISO 27001 Audit", Description: "Completed annual ISO 27001 compliance audit"},
		{Date: "2024-03-05", Title: "SOC2 Type II Report", Description: "Generated SOC2 Type II compliance report"},
	}
}

func Scores() []report.ScorePoint {
	return []report.ScorePoint{
		{Label: "Jan", Score: 85},
		{Label: "Feb", Score: 88},
		{Label: "Mar", Score: 92},
		{Label: "Apr", Score: 90},
		{Label: "May", Score: 95},
		{Label: "Jun", Score: 98},
	}
}

// Reports serves the sample report data.
type Reports struct{}

func (Reports) Evidence() []report.EvidenceItem  { return Evidence() }
func (Reports) Timeline() []report.TimelineEvent { return Timeline() }
func (Reports) Scores() []report.ScorePoint      { return Scores() }
