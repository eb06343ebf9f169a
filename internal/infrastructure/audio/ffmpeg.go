package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Converter normalizes arbitrary audio containers to WAV mono 16-bit PCM at
// 16kHz, the only input the acoustic recognizer accepts. The converted file is
// written next to the input with a .wav extension, inside the same scratch
// scope, so the request cleanup removes both.
type Converter struct {
	ffmpegBin string
}

func NewConverter(ffmpegBin string) *Converter {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	return &Converter{ffmpegBin: ffmpegBin}
}

func (c *Converter) ToWavMono16k(ctx context.Context, inputPath string) (string, error) {
	// The suffix keeps the output distinct even when the upload is already
	// named .wav; ffmpeg cannot write its own input in place.
	outputPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "_16k.wav"

	cmd := exec.CommandContext(ctx, c.ffmpegBin,
		"-y",
		"-i", inputPath,
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := lastLine(stderr.String())
		if detail == "" {
			return "", fmt.Errorf("ffmpeg convert: %w", err)
		}
		return "", fmt.Errorf("ffmpeg convert: %w: %s", err, detail)
	}
	return outputPath, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
