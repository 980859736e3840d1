package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second)
}

func TestUploadSendsFileParts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("pssi")
		require.NoError(t, err)
		b, _ := io.ReadAll(f)
		assert.Equal(t, "pssi.pdf", hdr.Filename)
		assert.Equal(t, "policy bytes", string(b))
		_, _, err = r.FormFile("norm")
		require.NoError(t, err)
		w.Write([]byte(`{"norm_id":"n1","pssi_id":"p1"}`))
	})

	ids, err := c.Upload(context.Background(), []analysis.Document{
		{Field: "norm", Filename: "norm.pdf", Data: []byte("norm bytes")},
		{Field: "pssi", Filename: "pssi.pdf", Data: []byte("policy bytes")},
	})
	require.NoError(t, err)
	assert.Equal(t, analysis.UploadIDs{NormID: "n1", PSSIID: "p1"}, ids)
}

func TestNon2xxSurfacesStatusAndBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "norm not indexed", http.StatusUnprocessableEntity)
	})

	_, err := c.Analyze(context.Background(), analysis.AnalyzeRequest{PSSIID: "p1", NormName: "anssi.pdf"})
	var se *analysis.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.Code)
	assert.Contains(t, err.Error(), "422 Unprocessable Entity")
	assert.Contains(t, err.Error(), "norm not indexed")
}

func TestAnalyzeSendsIdentifiersAndFallsBackToRaw(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "p1", r.FormValue("pssi_id"))
		assert.Equal(t, "anssi.pdf", r.FormValue("norm_name"))
		assert.Empty(t, r.FormValue("norm_id"))
		w.Write([]byte("Analysis finished, 3 gaps found"))
	})

	out, err := c.Analyze(context.Background(), analysis.AnalyzeRequest{PSSIID: "p1", NormName: "anssi.pdf"})
	require.NoError(t, err)
	assert.False(t, out.Parsed())
	assert.Equal(t, "Analysis finished, 3 gaps found", out.Raw)
}

func TestFastAnalyzeParsesJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fast_analyze", r.URL.Path)
		assert.Equal(t, "passwords rotate yearly", r.FormValue("policy"))
		w.Write([]byte(`{"summary":"weak","findings":[{"type":"password","status":"non-compliant","data":"rotation"}],"jira_tickets":[{"key":"SEC-1"}]}`))
	})

	out, err := c.FastAnalyze(context.Background(), "passwords rotate yearly")
	require.NoError(t, err)
	require.True(t, out.Parsed())
	assert.False(t, out.Value.Findings[0].Compliant())
	assert.Equal(t, "SEC-1", out.Value.JiraTickets[0].Key)
}

func TestReflectTooLarge(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		w.Write([]byte("payload too large"))
	})

	_, err := c.ReflectAnalyze(context.Background(), strings.Repeat("x", 1024))
	require.ErrorIs(t, err, analysis.ErrPayloadTooLarge)
	assert.Contains(t, err.Error(), "too large")

	var se *analysis.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 413, se.Code)
}

func TestCreateTicketJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Fix S3", body["summary"])
		w.Write([]byte(`{"result":"Issue created successfully: SEC-9"}`))
	})

	rec, err := c.CreateTicket(context.Background(), "Fix S3", "enable SSE")
	require.NoError(t, err)
	assert.Equal(t, "Issue created successfully: SEC-9", rec.Label())
}

func TestNormsAndPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"norms":["anssi.pdf"]}`))
	})

	list, err := c.Norms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"anssi.pdf"}, list.Names())
	assert.NoError(t, c.Ping(context.Background()))

	dead := NewClient("http://127.0.0.1:1", time.Second)
	assert.Error(t, dead.Ping(context.Background()))
}

func TestOversizedBodyIsAnError(t *testing.T) {
	body := strings.Repeat("x", 64)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body)
	})
	c.maxBody = 64
	out, err := c.FastAnalyze(context.Background(), "policy")
	require.NoError(t, err)
	assert.Equal(t, body, out.Raw)

	c.maxBody = 63
	_, err = c.FastAnalyze(context.Background(), "policy")
	assert.ErrorIs(t, err, analysis.ErrResponseTooLarge)
	assert.ErrorContains(t, err, "/fast_analyze")
}
