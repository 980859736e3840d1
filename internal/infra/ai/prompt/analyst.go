package prompt

import "fmt"

// MaxPolicyChars bounds the policy text embedded in a prompt.
const MaxPolicyChars = 60000

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior information security compliance auditor. You review an organisation's security policy (PSSI) against common hygiene frameworks such as the ANSSI hygiene guide and ISO 27001. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- summary is two or three sentences on the overall compliance posture.
- findings is an array of objects; type is a short control name (for example "password", "mfa", "encryption", "backup", "logging").
- status is either "compliant" or "non-compliant".
- data states the evidence from the policy text or what is missing, in one sentence.
- jira_tickets is always an empty array; tickets are created by a separate step.

Schema (example with empty values):
{
  "summary": "<string>",
  "findings": [
    {"type": "<string>", "status": "<compliant|non-compliant>", "data": "<string>"}
  ],
  "jira_tickets": []
}`
}

// GetUserPrompt wraps the policy text, truncated to MaxPolicyChars.
func GetUserPrompt(policy string) string {
	truncated := ""
	if cut := truncate(policy, MaxPolicyChars, ""); len(cut) < len(policy) {
		policy = cut
		truncated = "\n(the policy was truncated)"
	}
	return fmt.Sprintf("Review the following security policy and respond with the JSON per schema.%s\n\n---\n%s\n---", truncated, policy)
}
