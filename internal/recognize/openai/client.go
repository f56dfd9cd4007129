package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parvezamm3/receipt-agent/internal/fields"
	"github.com/parvezamm3/receipt-agent/internal/recognize"
)

// Recognize implements recognize.Recognizer over vision chat/completions.
// All pages of the document go into a single request so the model can merge
// multi-page receipts itself.
func (c *Client) Recognize(ctx context.Context, imagePaths []string) (fields.ReceiptFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("recognize.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"pages", len(imagePaths),
	)

	if len(imagePaths) == 0 {
		return fields.ReceiptFields{}, nil, fmt.Errorf("no page images to recognize")
	}

	schema := recognize.BuildReceiptJSONSchema()

	content := []map[string]any{
		{"type": "text", "text": buildUserPrompt(len(imagePaths))},
	}
	for _, p := range imagePaths {
		u, err := c.readAsDataURL(p)
		if err != nil {
			c.logger.Error("recognize.attach_error", "req_id", rid, "path", p, "error", err)
			return fields.ReceiptFields{}, nil, fmt.Errorf("attach page image: %w", err)
		}
		content = append(content, map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": u},
		})
	}

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": buildSystemPrompt()},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
			{"role": "user", "content": content},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, httpErr := c.post(ctx, endpoint, body)
	if httpErr != nil {
		c.logger.Error("recognize.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return fields.ReceiptFields{}, nil, httpErr
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("recognize.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return fields.ReceiptFields{}, raw, fmt.Errorf("decode model response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("recognize.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return fields.ReceiptFields{}, raw, fmt.Errorf("no choices in model response")
	}

	rawContent := []byte(recognize.StripCodeFences(cc.Choices[0].Message.Content))

	if err := recognize.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		cleaned, dropped, sErr := recognize.SanitizeRecognizedJSON(rawContent, c.logger)
		if sErr != nil {
			c.logger.Error("recognize.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return fields.ReceiptFields{}, rawContent, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := recognize.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.logger.Error("recognize.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", string(rawContent),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return fields.ReceiptFields{}, rawContent, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.logger.Warn("recognize.sanitize_applied",
			"req_id", rid, "dropped", dropped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	var out fields.ReceiptFields
	if err := json.Unmarshal(rawContent, &out); err != nil {
		c.logger.Error("recognize.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return fields.ReceiptFields{}, rawContent, fmt.Errorf("unmarshal fields: %w", err)
	}

	c.logger.Info("recognize.ok",
		"req_id", rid,
		"vendor", out.Vendor.Name,
		"date", out.TxDate,
		"amount", out.Amount,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision endpoint http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("response body close error", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(resp.Body)
		return nil, fmt.Errorf("vision endpoint status %d: %s", resp.StatusCode, buf.String())
	}

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	return buf.Bytes(), nil
}
