package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/civicgrid/complaint-intake/internal/core/domain"
	"github.com/civicgrid/complaint-intake/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *httpDoer
}

func New(baseURL, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		timeout:    timeout,
		httpClient: newHTTPDoer(timeout),
	}
}

// Structurer drives the complaint-structuring call against the Ollama
// generate endpoint and enforces the strict four-field output contract.
type Structurer struct {
	client   *Client
	executor *resilience.Executor
}

func NewStructurer(client *Client, executor *resilience.Executor) *Structurer {
	return &Structurer{client: client, executor: executor}
}

// forbiddenSummaryPhrases marks model output that describes the act of
// translating or transcribing instead of summarizing the complaint itself.
var forbiddenSummaryPhrases = []string{"written in", "translated"}

const inputErrorText = "Error: No complaint text provided."

func (s *Structurer) Structure(ctx context.Context, rawText string) domain.StructuredResult {
	if strings.TrimSpace(rawText) == "" {
		return domain.StructuredResult{
			ProcessedText: inputErrorText,
			Issue:         "Input Error",
			Area:          domain.NotSpecified,
			Time:          domain.NotSpecified,
			Err:           true,
		}
	}

	raw, err := s.generate(ctx, buildStructuringPrompt(rawText))
	if err != nil {
		return failureResult(err)
	}

	span, ok := extractJSONObject(raw)
	if !ok {
		return failureResult(errors.New("no JSON object in model output"))
	}

	var parsed struct {
		ProcessedText string `json:"processed_text"`
		Issue         string `json:"issue"`
		Area          string `json:"area"`
		Time          string `json:"time"`
	}
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return failureResult(err)
	}

	if hasMetaCommentary(parsed.ProcessedText) {
		return failureResult(errors.New("model provided meta-commentary instead of summary"))
	}

	return domain.StructuredResult{
		ProcessedText: parsed.ProcessedText,
		Issue:         parsed.Issue,
		Area:          parsed.Area,
		Time:          parsed.Time,
	}
}

func (s *Structurer) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  s.client.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": 0.1,
			"num_predict": 150,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, s.client.timeout)
	defer cancel()

	var response struct {
		Response string `json:"response"`
	}
	call := func(ctx context.Context) error {
		return s.client.httpClient.postJSON(ctx, s.client.baseURL+"/api/generate", reqBody, &response, "generate")
	}

	var err error
	if s.executor != nil {
		err = s.executor.Execute(ctx, "ollama.generate", call, classifyStructuringError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func failureResult(cause error) domain.StructuredResult {
	return domain.StructuredResult{
		ProcessedText: "Error: Failed to process complaint (System Busy: " + cause.Error() + ").",
		Issue:         "Other Civic Issue",
		Area:          domain.NotSpecified,
		Time:          domain.NotSpecified,
		Err:           true,
	}
}

func hasMetaCommentary(summary string) bool {
	lowered := strings.ToLower(summary)
	for _, phrase := range forbiddenSummaryPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// extractJSONObject tolerates prose around the payload: only the span from the
// first '{' to the last '}' is treated as candidate JSON.
func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
