// Package nlp is the client for the external parse service. The service does
// the actual natural-language understanding; this client only consumes its
// structured output and guards against malformed responses.
package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"bank-chatbot/internal/common/logger"
	"bank-chatbot/internal/common/metrics"
)

var (
	ErrParseFailed  = errors.New("NLP_PARSE_FAILED")
	ErrParseTimeout = errors.New("NLP_API_TIMEOUT")
)

// ParseResult is the structured parse returned by the collaborator. Intent is
// one of the canonical intent names or "UNKNOWN"; slot keys of interest are
// customer_id, name and n.
type ParseResult struct {
	Intent     string                 `json:"intent"`
	Confidence float64                `json:"confidence"`
	Slots      map[string]interface{} `json:"slots"`
	FollowUp   string                 `json:"follow_up"`
	Safety     map[string]interface{} `json:"safety"`
}

// parseResultSchema rejects responses that would otherwise poison the router
// with wrongly-typed fields. The collaborator is loosely typed, so the shape
// is checked before anything is trusted.
const parseResultSchema = `{
	"type": "object",
	"required": ["intent"],
	"properties": {
		"intent": {"type": "string"},
		"confidence": {"type": "number"},
		"slots": {"type": "object"},
		"follow_up": {"type": ["string", "null"]},
		"safety": {"type": ["object", "null"]}
	}
}`

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

type Client struct {
	config *Config
	client *http.Client
	schema *gojsonschema.Schema
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(parseResultSchema))
	if err != nil {
		// The schema is a compile-time constant; failing to parse it is a
		// programming error, not a runtime condition.
		panic(fmt.Sprintf("nlp: invalid parse result schema: %v", err))
	}
	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		schema: schema,
		logger: log.WithFields(map[string]interface{}{"component": "nlp"}),
	}
}

// Parse submits the raw message to the collaborator and returns its
// structured parse. Transport failures are retried with exponential backoff
// up to MaxRetries; timeouts surface as ErrParseTimeout.
func (c *Client) Parse(ctx context.Context, message string) (*ParseResult, error) {
	payload, _ := json.Marshal(map[string]string{"message": message})

	start := time.Now()
	body, err := c.post(ctx, payload)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.NLPRequestDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: validate response: %v", ErrParseFailed, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("%w: unexpected response shape: %v", ErrParseFailed, result.Errors())
	}

	var parsed ParseResult
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrParseFailed, err)
	}
	if parsed.Slots == nil {
		parsed.Slots = map[string]interface{}{}
	}

	c.logger.Debug("message parsed", map[string]interface{}{
		"intent":     parsed.Intent,
		"confidence": parsed.Confidence,
		"slotCount":  len(parsed.Slots),
	})

	return &parsed, nil
}

func (c *Client) post(ctx context.Context, payload []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrParseTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/parse", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)

		// If the context expired during the request, report a timeout
		// immediately rather than retrying against a dead deadline.
		if ctx.Err() != nil ||
			errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(err, context.Canceled) {
			return nil, ErrParseTimeout
		}

		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusOK {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return nil, fmt.Errorf("%w: read body: %v", ErrParseFailed, readErr)
			}
			return body, nil
		}

		resp.Body.Close()
		lastErr = fmt.Errorf("status %d", resp.StatusCode)
	}

	if errors.Is(lastErr, context.DeadlineExceeded) {
		return nil, ErrParseTimeout
	}
	return nil, fmt.Errorf("%w: %v", ErrParseFailed, lastErr)
}
