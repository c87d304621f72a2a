package olmhttp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
	"github.com/pakornb/moto-loan-intake/internal/infrastructure/resilience"
)

// Client talks to the OCR service over HTTP. The service exposes dedicated
// routes per document type and returns raw text plus a parsed field map;
// the income route additionally returns a normalized block.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 90 * time.Second},
		executor:   executor,
	}
}

type ocrRequest struct {
	ImageBase64 string `json:"image_base64"`
	Filename    string `json:"filename"`
}

type ocrResponse struct {
	DocType    string         `json:"doc_type"`
	Raw        string         `json:"raw"`
	Parsed     map[string]any `json:"parsed"`
	Normalized map[string]any `json:"normalized"`
}

func (c *Client) ReadIDCard(ctx context.Context, path string) (domain.IDCardFields, error) {
	out, err := c.post(ctx, "/v1/ocr/id", path, "ocr_id")
	if err != nil {
		return domain.IDCardFields{}, err
	}

	fields := domain.IDCardFields{
		NationalID: stringField(out.Parsed, "National Identification Number"),
		PersonName: stringField(out.Parsed, "First and Last Name"),
		Raw:        stringifyMap(out.Parsed),
	}
	return fields, nil
}

func (c *Client) ReadIncomeProof(ctx context.Context, path string) (domain.IncomeFields, error) {
	out, err := c.post(ctx, "/v1/ocr/income", path, "ocr_income")
	if err != nil {
		return domain.IncomeFields{}, err
	}

	// The normalized block is authoritative; parsed fields fill gaps. Older
	// service builds put the holder under parsed["name"].
	holder := stringField(out.Normalized, "holder_name")
	if holder == "" {
		holder = stringField(out.Parsed, "holder_name")
	}
	if holder == "" {
		holder = stringField(out.Parsed, "name")
	}

	income := intField(out.Normalized, "monthly_income_thb")
	if income == nil {
		income = intField(out.Parsed, "monthly_income_thb")
	}

	employer := stringField(out.Normalized, "employer")
	if employer == "" {
		employer = stringField(out.Parsed, "employer")
	}
	period := stringField(out.Normalized, "period")
	if period == "" {
		period = stringField(out.Parsed, "period")
	}

	return domain.IncomeFields{
		HolderName:       holder,
		MonthlyIncomeTHB: income,
		Employer:         employer,
		Period:           period,
		Raw:              stringifyMap(out.Parsed),
	}, nil
}

func (c *Client) post(ctx context.Context, route, path, operation string) (ocrResponse, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ocrResponse{}, fmt.Errorf("read document %s: %w", filepath.Base(path), err)
	}

	body, err := json.Marshal(ocrRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(raw),
		Filename:    filepath.Base(path),
	})
	if err != nil {
		return ocrResponse{}, fmt.Errorf("marshal %s request: %w", operation, err)
	}

	var out ocrResponse
	err = c.executor.Do(ctx, operation, classifyOCRError, func(callCtx context.Context) error {
		resp, callErr := c.doRequest(callCtx, route, body, operation)
		if callErr != nil {
			return callErr
		}
		out = resp
		return nil
	})
	if err != nil {
		return ocrResponse{}, wrapTemporaryIfNeeded(operation, err)
	}
	return out, nil
}

func (c *Client) doRequest(ctx context.Context, route string, body []byte, operation string) (ocrResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(body))
	if err != nil {
		return ocrResponse{}, fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ocrResponse{}, fmt.Errorf("ocr %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return ocrResponse{}, &StatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	var out ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ocrResponse{}, fmt.Errorf("decode %s response: %w", operation, err)
	}
	return out, nil
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// intField reads an integer amount. Only integral JSON numbers count; a
// fractional or string-typed amount means the service failed to normalize
// and the document is treated as unverified.
func intField(m map[string]any, key string) *int {
	if m == nil {
		return nil
	}
	if v, ok := m[key].(float64); ok && v == math.Trunc(v) {
		n := int(v)
		return &n
	}
	return nil
}

func stringifyMap(m map[string]any) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case string:
			out[k] = t
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out
}
