package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/compliance-dashboard/internal/application/workflow"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/dashboard"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/progress"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/upload"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"SESSION_DRIVER", "AI_PROVIDER", "BACKEND_URL", "OPENAI_API_KEY", "DEMO_SAMPLE_FILE", "PORT"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	clearEnv(t)
	cmd := NewRootCommand("dev", "none", "unknown")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func testBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pssi_id":"p-1"}`)
	})
	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"document_analysis":{"processed":{"score":91}},"infrastructure_analysis":{"processed":{"score":83}}}`)
	})
	mux.HandleFunc("/fast_analyze", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"summary":"Two controls missing","findings":[{"type":"backup","status":"non-compliant"}]}`)
	})
	mux.HandleFunc("/reflect_analyze", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too big", http.StatusRequestEntityTooLarge)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "compliancectl development (local-build)")
}

func TestRenderSample(t *testing.T) {
	out, err := execute(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "render")
	require.NoError(t, err)
	assert.Contains(t, out, "Compliance dashboard")
	assert.Contains(t, out, "sample data")
	assert.Contains(t, out, "78%")
	assert.Contains(t, out, "Infrastructure Security Gaps")
	assert.Contains(t, out, "Combined")
}

func TestRenderInputAsJSON(t *testing.T) {
	input := writeFile(t, "result.json", `{"document_analysis":{"processed":{"score":91,"tickets":[]}},"infrastructure_analysis":{"processed":{"score":70}}}`)
	out, err := execute(t, "render", "--input", input, "-o", "json")
	require.NoError(t, err)

	var v dashboard.View
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	require.Len(t, v.Scorecards, 2)
	assert.Equal(t, 91, v.Scorecards[0].Score)
	assert.Empty(t, v.Uncertainties)
	assert.False(t, v.UsingSample)
}

func TestRenderRejectsNonResult(t *testing.T) {
	input := writeFile(t, "notes.txt", "Analysis complete")
	_, err := execute(t, "render", "--input", input)
	assert.ErrorContains(t, err, "not an analysis result")
}

func TestFastCommand(t *testing.T) {
	srv := testBackend(t)
	policy := writeFile(t, "policy.txt", "Backups are not documented.")
	cfg := filepath.Join(t.TempDir(), "none.yaml")

	out, err := execute(t, "--config", cfg, "--backend", srv.URL, "fast", "--file", policy)
	require.NoError(t, err)
	assert.Contains(t, out, "Two controls missing")
	assert.Contains(t, out, "backup")

	_, err = execute(t, "--config", cfg, "--backend", srv.URL, "fast", "--file", policy, "--reflect")
	assert.ErrorContains(t, err, "too large")

	out, err = execute(t, "--config", cfg, "--backend", srv.URL, "fast", "--file", policy, "--reflect", "--fallback")
	require.NoError(t, err)
	assert.Contains(t, out, "falling back to fast analysis")
	assert.Contains(t, out, "Two controls missing")
}

func TestFastCommandLocalProvider(t *testing.T) {
	cfg := writeFile(t, "config.yaml", "ai:\n  provider: local\n")
	policy := writeFile(t, "policy.txt", "All administrators must use multi-factor authentication.")

	out, err := execute(t, "--config", cfg, "fast", "--file", policy, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"summary"`)
	assert.Contains(t, out, `"findings"`)
}

func TestAnalyzeWithoutTUI(t *testing.T) {
	srv := testBackend(t)
	cfg := writeFile(t, "config.yaml", "progress:\n  total: 50ms\n  tick: 10ms\n")
	pssi := writeFile(t, "pssi.pdf", "policy")

	out, err := execute(t, "--config", cfg, "--backend", srv.URL, "--no-tui", "analyze", "--pssi", pssi)
	require.NoError(t, err)
	assert.Contains(t, out, "91%")
	assert.Contains(t, out, "83%")
	assert.NotContains(t, out, "sample data")
}

func TestAnalyzeRequiresPSSI(t *testing.T) {
	_, err := execute(t, "analyze")
	assert.Error(t, err)
}

func TestProgressModel(t *testing.T) {
	run := &workflow.Run{Presenter: progress.NewPresenter(progress.Config{Total: time.Second, Tick: 100 * time.Millisecond})}
	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	run.Presenter.Start(start)

	m := newProgressModel(run, fixedClock(start))
	assert.Equal(t, 100*time.Millisecond, m.tick)

	m.clock = fixedClock(start.Add(500 * time.Millisecond))
	next, cmd := m.Update(tickMsg(start))
	pm := next.(progressModel)
	assert.NotNil(t, cmd)
	assert.False(t, pm.finished)
	assert.Equal(t, progress.StateAnimating, pm.snap.State)
	assert.Contains(t, pm.View(), "50%")

	// animation over but the call has not returned
	pm.clock = fixedClock(start.Add(5 * time.Second))
	next, cmd = pm.Update(tickMsg(start))
	pm = next.(progressModel)
	assert.NotNil(t, cmd)
	assert.Contains(t, pm.View(), "Waiting for the analysis service")

	next, _ = pm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.True(t, next.(progressModel).quitting)
	assert.Contains(t, next.View(), "Interrupted")
}

func TestRenderSnapshotChecklist(t *testing.T) {
	p := progress.NewPresenter(progress.DefaultConfig())
	start := time.Now()
	p.Start(start)
	out := renderSnapshot(p.Snapshot(start.Add(3100*time.Millisecond)), false)
	assert.Contains(t, out, "Documents received")
	assert.Contains(t, out, "Framework requirements extracted")
	assert.NotContains(t, out, "Policy coverage mapped")
	assert.True(t, strings.Contains(out, "Initializing security protocols"))
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func TestFormFromFiles(t *testing.T) {
	pssi := writeFile(t, "pssi.pdf", "policy")
	annex := writeFile(t, "annex.pdf", "annex")
	norm := writeFile(t, "iso27001.pdf", "norm")

	form, err := formFromFiles([]string{pssi}, "")
	require.NoError(t, err)
	assert.Equal(t, upload.ModeSingle, form.Mode)
	assert.True(t, form.CanSubmit())

	_, err = formFromFiles([]string{pssi, annex}, "")
	assert.ErrorContains(t, err, "need a --norm")

	form, err = formFromFiles([]string{pssi, annex}, norm)
	require.NoError(t, err)
	assert.Equal(t, upload.ModePair, form.Mode)
	docs, err := form.Documents()
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "iso27001.pdf", docs[0].Filename)
	assert.Equal(t, "pssi.pdf", docs[1].Filename)
	assert.Equal(t, "annex.pdf", docs[2].Filename)
}
