package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandForBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  Band
	}{
		{-5, BandRed},
		{0, BandRed},
		{59, BandRed},
		{60, BandAmber},
		{79, BandAmber},
		{80, BandGreen},
		{100, BandGreen},
		{140, BandGreen},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BandFor(tc.score), "score %d", tc.score)
	}
}

func TestBandColors(t *testing.T) {
	assert.Equal(t, "#4CAF50", BandGreen.Color())
	assert.Equal(t, "#FFC107", BandAmber.Color())
	assert.Equal(t, "#F44336", BandRed.Color())
	assert.Equal(t, "#333", BandAmber.TextColor())
	assert.Equal(t, "white", BandRed.TextColor())
}

func TestScoreUnmarshalAcceptsLooseNumbers(t *testing.T) {
	var p struct {
		A Score `json:"a"`
		B Score `json:"b"`
		C Score `json:"c"`
		D Score `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 78, "b": 64.6, "c": "91%", "d": 130}`), &p))
	assert.Equal(t, 78, p.A.Int())
	assert.Equal(t, 65, p.B.Int())
	assert.Equal(t, 91, p.C.Int())
	assert.Equal(t, 100, p.D.Int())

	var bad struct {
		A Score `json:"a"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"a": "high"}`), &bad))
}

func TestDecodeOutcomeFallsBackToRaw(t *testing.T) {
	ok := DecodeOutcome[FastAnalysis]([]byte(`{"summary":"fine","findings":[{"type":"mfa","status":"compliant"}]}`))
	require.True(t, ok.Parsed())
	assert.Equal(t, "fine", ok.Value.Summary)
	assert.True(t, ok.Value.Findings[0].Compliant())

	raw := DecodeOutcome[FastAnalysis]([]byte("The policy looks mostly fine."))
	assert.False(t, raw.Parsed())
	assert.Equal(t, "The policy looks mostly fine.", raw.Raw)

	empty := DecodeOutcome[Result]([]byte("  "))
	assert.False(t, empty.Parsed())
}

func TestSubAnalysisNilSafe(t *testing.T) {
	var sub *SubAnalysis
	assert.Equal(t, 0, sub.Score())
	assert.Nil(t, sub.TicketList())
	assert.Nil(t, sub.IssueList())
}

func TestTicketReceiptLabel(t *testing.T) {
	assert.Equal(t, "SEC-12", TicketReceipt{Key: "SEC-12", Result: "ignored"}.Label())
	assert.Equal(t, "Issue created successfully: SEC-13", TicketReceipt{Result: "Issue created successfully: SEC-13"}.Label())
}

func TestNormNames(t *testing.T) {
	var n NormList
	require.NoError(t, json.Unmarshal([]byte(`{"norms":["anssi.pdf",{"name":"iso27001"},{"id":"nis2"},42]}`), &n))
	assert.Equal(t, []string{"anssi.pdf", "iso27001", "nis2"}, n.Names())
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{Endpoint: "/analyze", Code: 500, Status: "500 Internal Server Error", Body: "boom\n"}
	assert.Equal(t, "/analyze: server returned 500 Internal Server Error: boom", err.Error())
	assert.Equal(t, "/norms: server returned 404 Not Found", (&StatusError{Endpoint: "/norms", Status: "404 Not Found"}).Error())
}
