package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/markdave123-py/counsel/internal/core"
)

var ErrEmptyCompletion = errors.New("empty completion")

// HuggingFaceGateway calls the hosted inference API with the catalog's provider model.
type HuggingFaceGateway struct {
	baseURL string
	apiKey  string
	catalog *Catalog
	client  *http.Client
}

var _ core.InferenceGateway = (*HuggingFaceGateway)(nil)

func NewHuggingFaceGateway(baseURL, apiKey string, catalog *Catalog, client *http.Client) (*HuggingFaceGateway, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key required for huggingface inference")
	}
	if client == nil {
		client = &http.Client{}
	}
	return &HuggingFaceGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		catalog: catalog,
		client:  client,
	}, nil
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfOutput struct {
	GeneratedText string `json:"generated_text"`
	SummaryText   string `json:"summary_text"`
	Error         string `json:"error"`
}

func (g *HuggingFaceGateway) Complete(ctx context.Context, modelID string, p core.Prompt) (string, error) {
	model := g.catalog.Resolve(modelID)
	prompt := buildPrompt(p)

	jsonBody, err := json.Marshal(hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens: 512,
			Temperature:  0.7,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/models/"+model.ProviderModel, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	out, err := parseHFOutput(body)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(strings.TrimPrefix(out, prompt))
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// parseHFOutput accepts either a list of outputs or a single object.
func parseHFOutput(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	var outs []hfOutput
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &outs); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
	} else {
		var one hfOutput
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		outs = append(outs, one)
	}
	if len(outs) == 0 {
		return "", ErrEmptyCompletion
	}
	if outs[0].Error != "" {
		return "", fmt.Errorf("provider error: %s", outs[0].Error)
	}
	if outs[0].GeneratedText != "" {
		return outs[0].GeneratedText, nil
	}
	return outs[0].SummaryText, nil
}
