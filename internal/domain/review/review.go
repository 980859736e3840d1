package review

import (
	"strings"
	"time"

	"github.com/go-git/go-git/v5/utils/diff"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeType of a summarized change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

type Change struct {
	Type ChangeType `json:"type"`
	Text string     `json:"text"`
}

type AuditEntry struct {
	Action string    `json:"action"`
	At     time.Time `json:"at"`
}

// Decision is the auditor verdict.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Review is the human-in-the-loop comparison between the current policy and
// the AI proposal. The audit trail is kept newest first.
type Review struct {
	Current  string       `json:"current"`
	Proposed string       `json:"proposed"`
	Changes  []Change     `json:"changes"`
	Audit    []AuditEntry `json:"audit"`
	Decision Decision     `json:"decision"`
}

// New starts a review with the two initial audit entries.
func New(current, proposed string, changes []Change, now time.Time) *Review {
	return &Review{
		Current:  current,
		Proposed: proposed,
		Changes:  changes,
		Decision: DecisionPending,
		Audit: []AuditEntry{
			{Action: "Review started", At: now},
			{Action: "AI recommendations generated", At: now.Add(-time.Hour)},
		},
	}
}

func (r *Review) Approve(notes string, now time.Time) {
	r.Decision = DecisionApproved
	r.record("Approved changes", notes, now)
}

func (r *Review) Reject(notes string, now time.Time) {
	r.Decision = DecisionRejected
	r.record("Rejected changes", notes, now)
}

func (r *Review) Save(now time.Time) {
	r.record("Review saved", "", now)
}

func (r *Review) record(action, notes string, now time.Time) {
	if notes = strings.TrimSpace(notes); notes != "" {
		action += " with notes: " + notes
	}
	r.Audit = append([]AuditEntry{{Action: action, At: now}}, r.Audit...)
}

// Op of a diff line.
type Op string

const (
	OpEqual  Op = "equal"
	OpInsert Op = "insert"
	OpDelete Op = "delete"
)

type DiffLine struct {
	Op   Op
	Text string
}

// Diff compares the policies line by line.
func (r *Review) Diff() []DiffLine {
	var out []DiffLine
	for _, d := range diff.Do(r.Current, r.Proposed) {
		op := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		}
		text := strings.TrimSuffix(d.Text, "\n")
		for _, line := range strings.Split(text, "\n") {
			out = append(out, DiffLine{Op: op, Text: line})
		}
	}
	return out
}

// DiffStats counts inserted and deleted lines.
func (r *Review) DiffStats() (inserted, deleted int) {
	for _, l := range r.Diff() {
		switch l.Op {
		case OpInsert:
			inserted++
		case OpDelete:
			deleted++
		}
	}
	return inserted, deleted
}
