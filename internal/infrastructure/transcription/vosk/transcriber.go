package vosk

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"

	"github.com/civicgrid/complaint-intake/internal/infrastructure/audio"
)

// Failure sentinels. Transcribe never returns an error: the intake pipeline
// always receives text, and downstream validation decides whether a request
// can still be rejected cleanly.
const (
	SentinelModelNotFound = "Vosk model not found. Please download and place it in the models folder."
	SentinelFileNotFound  = "Audio file not found."
	SentinelBadFormat     = "Audio file must be WAV format mono PCM."
	SentinelNoSpeech      = "No speech detected"

	failurePrefix = "Transcription failed: "
)

const recognizerSampleRate = 16000

// Transcriber is the classic acoustic-model backend. The model is loaded once
// per process and shared read-only across requests.
type Transcriber struct {
	modelPath string
	language  string
	converter *audio.Converter

	loadOnce sync.Once
	model    *vosk.VoskModel
	loadErr  error
}

func New(modelPath, languageLabel string, converter *audio.Converter) *Transcriber {
	if languageLabel == "" {
		languageLabel = "Hindi"
	}
	return &Transcriber{
		modelPath: modelPath,
		language:  languageLabel,
		converter: converter,
	}
}

func (t *Transcriber) Language() string { return t.language }

func (t *Transcriber) IsSentinel(text string) bool {
	switch text {
	case SentinelModelNotFound, SentinelFileNotFound, SentinelBadFormat, SentinelNoSpeech:
		return true
	}
	return strings.HasPrefix(text, failurePrefix)
}

func (t *Transcriber) loadModel() (*vosk.VoskModel, error) {
	t.loadOnce.Do(func() {
		if _, err := os.Stat(t.modelPath); err != nil {
			t.loadErr = fmt.Errorf("model path: %w", err)
			return
		}
		t.model, t.loadErr = vosk.NewModel(t.modelPath)
	})
	return t.model, t.loadErr
}

func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) string {
	model, err := t.loadModel()
	if err != nil {
		return SentinelModelNotFound
	}
	if _, err := os.Stat(audioPath); err != nil {
		return SentinelFileNotFound
	}

	// Convert unconditionally, even if the upload claims to be WAV already.
	wavPath, err := t.converter.ToWavMono16k(ctx, audioPath)
	if err != nil {
		return failurePrefix + err.Error()
	}

	pcm, err := readWavPCM(wavPath)
	if err != nil {
		if err == errUnsupportedFormat {
			return SentinelBadFormat
		}
		return failurePrefix + err.Error()
	}

	rec, err := vosk.NewRecognizer(model, recognizerSampleRate)
	if err != nil {
		return failurePrefix + err.Error()
	}
	defer rec.Free()
	rec.SetWords(1)

	var text strings.Builder
	// 4000 frames of 16-bit samples per recognizer feed.
	const chunkBytes = 8000
	for offset := 0; offset < len(pcm); offset += chunkBytes {
		end := min(offset+chunkBytes, len(pcm))
		if rec.AcceptWaveform(pcm[offset:end]) != 0 {
			appendSegment(&text, rec.Result())
		}
	}
	appendSegment(&text, rec.FinalResult())

	out := strings.TrimSpace(text.String())
	if out == "" {
		return SentinelNoSpeech
	}
	return out
}

func appendSegment(b *strings.Builder, rawResult string) {
	var segment struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(rawResult), &segment); err != nil {
		return
	}
	if segment.Text == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(segment.Text)
}
