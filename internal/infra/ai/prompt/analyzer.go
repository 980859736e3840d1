package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// evidenceChars bounds the quoted evidence of a finding.
const evidenceChars = 80

// Hygiene controls: a control is compliant when its pattern matches.
var hygieneControls = []struct {
	kind    string
	re      *regexp.Regexp
	missing string
}{
	{"password", regexp.MustCompile(`(?i)password[^.\n]{0,80}(\d{2,})\s*(characters|chars|caract)`), "No minimum password length is defined."},
	{"mfa", regexp.MustCompile(`(?i)(multi[- ]?factor|two[- ]?factor|2fa|mfa)`), "Multi-factor authentication is not required."},
	{"encryption", regexp.MustCompile(`(?i)(encrypt|chiffr|aes[- ]?256|tls)`), "No encryption requirement for data at rest or in transit."},
	{"backup", regexp.MustCompile(`(?i)(backup|sauvegarde)`), "No backup or restore requirement."},
	{"logging", regexp.MustCompile(`(?i)(audit log|logging|journalis|log retention)`), "No logging or audit trail requirement."},
	{"access_control", regexp.MustCompile(`(?i)(least privilege|need[- ]to[- ]know|access review|moindre privil)`), "No least-privilege or access review rule."},
	{"patching", regexp.MustCompile(`(?i)(patch|security update|mise à jour)`), "No patch management rule."},
	{"incident_response", regexp.MustCompile(`(?i)(incident)`), "No incident response procedure."},
}

var secretPatterns = []struct {
	re    *regexp.Regexp
	title string
}{
	{regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`), "Private key material in policy text"},
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "AWS access key in policy text"},
	{regexp.MustCompile(`(?i)(api[_-]?key|client[_-]?secret|token)\s*[:=]\s*["']?[^\s"']{12,}`), "Credential literal in policy text"},
	{regexp.MustCompile(`://[^\s/:@]+:[^\s/@]+@`), "Credentials embedded in URL"},
}

// truncate keeps the first n characters of s, appending suffix when
// something was cut. It never splits a multi-byte character.
func truncate(s string, n int, suffix string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i, count := 0, 0
	for i = range s {
		if count == n {
			break
		}
		count++
	}
	return s[:i] + suffix
}

// AnalyzePolicyText checks policy text against a fixed set of hygiene
// controls without calling any model. It returns a JSON string in the same
// schema as GetSystemPrompt.
func AnalyzePolicyText(policy string) string {
	type Finding struct {
		Type   string `json:"type"`
		Status string `json:"status"`
		Data   string `json:"data"`
	}

	type Output struct {
		Summary     string    `json:"summary"`
		Findings    []Finding `json:"findings"`
		JiraTickets []any     `json:"jira_tickets"`
	}

	lower := strings.ToLower(policy)

	out := Output{JiraTickets: []any{}}
	findings := make([]Finding, 0, 16)
	missing := 0

	for _, c := range hygieneControls {
		if m := c.re.FindString(policy); m != "" {
			findings = append(findings, Finding{Type: c.kind, Status: "compliant", Data: "Policy states: " + truncate(strings.TrimSpace(m), evidenceChars, "...")})
			continue
		}
		findings = append(findings, Finding{Type: c.kind, Status: "non-compliant", Data: c.missing})
		missing++
	}

	// Secrets pasted into a policy document are a finding on their own
	for _, s := range secretPatterns {
		if s.re.MatchString(policy) {
			findings = append(findings, Finding{Type: "secret_exposure", Status: "non-compliant", Data: s.title})
			missing++
		}
	}

	// Plain http links to internal services
	if strings.Contains(lower, "http://") {
		findings = append(findings, Finding{Type: "transport", Status: "non-compliant", Data: "Policy references plain HTTP endpoints."})
		missing++
	}

	out.Findings = findings
	switch {
	case strings.TrimSpace(policy) == "":
		out.Summary = "The policy is empty."
	case missing == 0:
		out.Summary = "The policy covers every hygiene control that was checked."
	default:
		out.Summary = fmt.Sprintf("The policy misses %d of %d checks. Address the non-compliant controls before the next audit.", missing, len(findings))
	}

	b, err := json.Marshal(out)
	if err != nil {
		return `{"summary":"analysis error","findings":[],"jira_tickets":[]}`
	}
	return string(b)
}
