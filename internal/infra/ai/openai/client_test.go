package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/ai"
)

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"}},
	}
}

func TestFastAnalyzeDecodesCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req["model"])
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completion(`{"summary":"ok","findings":[{"type":"mfa","status":"compliant","data":"MFA required"}],"jira_tickets":[]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", "", srv.URL+"/v1")
	out, err := c.FastAnalyze(context.Background(), "MFA is required")
	require.NoError(t, err)
	require.True(t, out.Parsed())
	assert.Equal(t, "ok", out.Value.Summary)
	assert.True(t, out.Value.Findings[0].Compliant())
}

func TestFastAnalyzeQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", "gpt-4o-mini", srv.URL+"/v1")
	_, err := c.FastAnalyze(context.Background(), "policy")
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
}

func TestReasoningModelsUseCompletionTokens(t *testing.T) {
	c := NewClient("k", "o3-mini")
	req := c.request("p")
	assert.Equal(t, maxTokens, req.MaxCompletionTokens)
	assert.Zero(t, req.MaxTokens)

	c.Model = ""
	req = c.request("p")
	assert.Equal(t, DefaultModel, req.Model)
	assert.Equal(t, maxTokens, req.MaxTokens)
}
