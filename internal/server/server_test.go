package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/compliance-dashboard/internal/config"
	"github.com/bryanwahyu/compliance-dashboard/internal/infra/ai/local"
	aiopenai "github.com/bryanwahyu/compliance-dashboard/internal/infra/ai/openai"
	memstore "github.com/bryanwahyu/compliance-dashboard/internal/infra/session"
)

func loadConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	for _, k := range []string{"SESSION_DRIVER", "AI_PROVIDER", "BACKEND_URL", "OPENAI_API_KEY", "DEMO_SAMPLE_FILE"} {
		t.Setenv(k, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestNewWiresMemoryStore(t *testing.T) {
	cfg := loadConfig(t, "ai:\n  provider: local\n")
	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.IsType(t, &memstore.MemoryStore{}, app.Store)
	assert.IsType(t, local.Analyzer{}, app.Workflow.Fast)
	assert.Equal(t, cfg.Backend.Timeout, app.Workflow.Timeout)

	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "showing sample data")
}

func TestNewRejectsBadBackendURL(t *testing.T) {
	cfg := loadConfig(t, "backend:\n  url: ftp://analysis\n")
	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "backend url")
}

func TestNewFailsOnUnreadableSample(t *testing.T) {
	sample := filepath.Join(t.TempDir(), "sample.json")
	require.NoError(t, os.WriteFile(sample, []byte("not json"), 0o600))
	cfg := loadConfig(t, "demo:\n  sampleFile: "+sample+"\n")
	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "demo sample")
}

func TestFastAnalyzerSelection(t *testing.T) {
	cfg := &config.Config{}
	assert.Nil(t, FastAnalyzer(cfg))

	cfg.AI.Provider = config.ProviderLocal
	assert.IsType(t, local.Analyzer{}, FastAnalyzer(cfg))

	cfg.AI.Provider = config.ProviderOpenAI
	cfg.AI.APIKey = "sk-test"
	cfg.AI.BaseURL = "http://localhost:1234/v1"
	c, ok := FastAnalyzer(cfg).(*aiopenai.Client)
	require.True(t, ok)
	assert.Equal(t, "", c.Model)
}
