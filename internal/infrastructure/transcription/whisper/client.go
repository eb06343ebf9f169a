package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Sentinels mirror the acoustic backend's contract: Transcribe always returns
// text, never an error.
const (
	SentinelFileNotFound = "Audio file not found."
	SentinelNoSpeech     = "No speech detected"

	failurePrefix = "Transcription failed: "
)

// Transcriber is the general-purpose multilingual backend, speaking to a
// whisper.cpp server. The server decodes arbitrary containers natively, so no
// normalization step is needed.
type Transcriber struct {
	baseURL    string
	language   string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Transcriber {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Transcriber{
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   "Auto-Detected",
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (t *Transcriber) Language() string { return t.language }

func (t *Transcriber) IsSentinel(text string) bool {
	switch text {
	case SentinelFileNotFound, SentinelNoSpeech:
		return true
	}
	return strings.HasPrefix(text, failurePrefix)
}

func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) string {
	f, err := os.Open(audioPath)
	if err != nil {
		if os.IsNotExist(err) {
			return SentinelFileNotFound
		}
		return failurePrefix + err.Error()
	}
	defer f.Close()

	text, err := t.inference(ctx, filepath.Base(audioPath), f)
	if err != nil {
		return failurePrefix + err.Error()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return SentinelNoSpeech
	}
	return text
}

func (t *Transcriber) inference(ctx context.Context, filename string, audio io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create multipart field: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("write form field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("create inference request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			return "", fmt.Errorf("whisper inference status: %s", resp.Status)
		}
		return "", fmt.Errorf("whisper inference status: %s: %s", resp.Status, msg)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode inference response: %w", err)
	}
	return parsed.Text, nil
}
