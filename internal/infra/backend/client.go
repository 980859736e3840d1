package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
)

// MaxBody caps how much of a response is read.
const MaxBody = 32 << 20

// Client talks to the analysis backend. It implements analysis.Backend.
// No call is retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxBody    int64
}

// NewClient creates a backend client; timeout 0 means no client timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxBody:    MaxBody,
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

type part struct {
	field    string
	filename string // empty for plain fields
	data     []byte
}

func multipartBody(parts []part) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, p := range parts {
		if p.filename == "" {
			if err := w.WriteField(p.field, string(p.data)); err != nil {
				return nil, "", err
			}
			continue
		}
		fw, err := w.CreateFormFile(p.field, p.filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(p.data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// do sends the request and returns the body of a 2xx response. Non-2xx
// responses become *analysis.StatusError with the body kept verbatim.
func (c *Client) do(ctx context.Context, method, endpoint, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request %s: %w", endpoint, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%s: %w (over %d bytes)", endpoint, analysis.ErrResponseTooLarge, c.maxBody)
	}

	log.WithFields(log.Fields{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"bytes":    len(data),
		"duration": time.Since(start),
	}).Debug("backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &analysis.StatusError{
			Endpoint: endpoint,
			Code:     resp.StatusCode,
			Status:   resp.Status,
			Body:     string(data),
		}
	}
	return data, nil
}

func (c *Client) postMultipart(ctx context.Context, endpoint string, parts []part) ([]byte, error) {
	body, ct, err := multipartBody(parts)
	if err != nil {
		return nil, fmt.Errorf("failed to build form for %s: %w", endpoint, err)
	}
	return c.do(ctx, http.MethodPost, endpoint, ct, body)
}

// Upload posts the documents, one file part per document field.
func (c *Client) Upload(ctx context.Context, docs []analysis.Document) (analysis.UploadIDs, error) {
	parts := make([]part, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, part{field: d.Field, filename: d.Filename, data: d.Data})
	}
	data, err := c.postMultipart(ctx, "/upload", parts)
	if err != nil {
		return analysis.UploadIDs{}, err
	}
	var ids analysis.UploadIDs
	if err := json.Unmarshal(data, &ids); err != nil {
		return analysis.UploadIDs{}, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if ids.PSSIID == "" {
		return analysis.UploadIDs{}, fmt.Errorf("upload response has no pssi_id: %s", strings.TrimSpace(string(data)))
	}
	return ids, nil
}

// Analyze sends norm_id or norm_name along with pssi_id.
func (c *Client) Analyze(ctx context.Context, r analysis.AnalyzeRequest) (analysis.Outcome[analysis.Result], error) {
	parts := []part{{field: "pssi_id", data: []byte(r.PSSIID)}}
	if r.NormID != "" {
		parts = append(parts, part{field: "norm_id", data: []byte(r.NormID)})
	}
	if r.NormName != "" {
		parts = append(parts, part{field: "norm_name", data: []byte(r.NormName)})
	}
	data, err := c.postMultipart(ctx, "/analyze", parts)
	if err != nil {
		return analysis.Outcome[analysis.Result]{}, err
	}
	return analysis.DecodeOutcome[analysis.Result](data), nil
}

func (c *Client) FastAnalyze(ctx context.Context, policy string) (analysis.Outcome[analysis.FastAnalysis], error) {
	data, err := c.postMultipart(ctx, "/fast_analyze", []part{{field: "policy", data: []byte(policy)}})
	if err != nil {
		return analysis.Outcome[analysis.FastAnalysis]{}, err
	}
	return analysis.DecodeOutcome[analysis.FastAnalysis](data), nil
}

// ReflectAnalyze maps 413 to analysis.ErrPayloadTooLarge, still wrapping the
// status error.
func (c *Client) ReflectAnalyze(ctx context.Context, policy string) (analysis.Outcome[analysis.ReflectAnalysis], error) {
	data, err := c.postMultipart(ctx, "/reflect_analyze", []part{{field: "policy", data: []byte(policy)}})
	if err != nil {
		var se *analysis.StatusError
		if errors.As(err, &se) && se.Code == http.StatusRequestEntityTooLarge {
			return analysis.Outcome[analysis.ReflectAnalysis]{}, fmt.Errorf("%w: %w", analysis.ErrPayloadTooLarge, se)
		}
		return analysis.Outcome[analysis.ReflectAnalysis]{}, err
	}
	return analysis.DecodeOutcome[analysis.ReflectAnalysis](data), nil
}

type ticketRequest struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

func (c *Client) CreateTicket(ctx context.Context, summary, description string) (analysis.TicketReceipt, error) {
	body, err := json.Marshal(ticketRequest{Summary: summary, Description: description})
	if err != nil {
		return analysis.TicketReceipt{}, fmt.Errorf("failed to marshal ticket: %w", err)
	}
	data, err := c.do(ctx, http.MethodPost, "/create-ticket", "application/json", bytes.NewReader(body))
	if err != nil {
		return analysis.TicketReceipt{}, err
	}
	var rec analysis.TicketReceipt
	if err := json.Unmarshal(data, &rec); err != nil {
		// some deployments answer with plain text
		rec.Result = strings.TrimSpace(string(data))
	}
	log.WithField("ticket", rec.Label()).Info("ticket created")
	return rec, nil
}

func (c *Client) Norms(ctx context.Context) (analysis.NormList, error) {
	data, err := c.do(ctx, http.MethodGet, "/norms", "", nil)
	if err != nil {
		return analysis.NormList{}, err
	}
	var list analysis.NormList
	if err := json.Unmarshal(data, &list); err != nil {
		return analysis.NormList{}, fmt.Errorf("failed to decode norms: %w", err)
	}
	return list, nil
}

// Ping reports whether the backend answers at all; any HTTP status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/norms", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()
	return nil
}
