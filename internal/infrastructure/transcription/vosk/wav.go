package vosk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

var errUnsupportedFormat = errors.New("unsupported wav format")

// readWavPCM walks the RIFF chunks of the ffmpeg-normalized file and returns
// the raw sample data. Rejects anything that is not mono 16-bit PCM.
func readWavPCM(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wav: %w", err)
	}
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, errUnsupportedFormat
	}

	var (
		sawFormat bool
		data      []byte
	)
	offset := 12
	for offset+8 <= len(raw) {
		chunkID := string(raw[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(raw[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(raw) {
			return nil, fmt.Errorf("truncated wav chunk %q", chunkID)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, errUnsupportedFormat
			}
			audioFormat := binary.LittleEndian.Uint16(raw[body : body+2])
			channels := binary.LittleEndian.Uint16(raw[body+2 : body+4])
			bitsPerSample := binary.LittleEndian.Uint16(raw[body+14 : body+16])
			if audioFormat != 1 || channels != 1 || bitsPerSample != 16 {
				return nil, errUnsupportedFormat
			}
			sawFormat = true
		case "data":
			data = raw[body : body+chunkSize]
		}

		// Chunks are word-aligned.
		if chunkSize%2 == 1 {
			chunkSize++
		}
		offset = body + chunkSize
	}

	if !sawFormat || data == nil {
		return nil, errUnsupportedFormat
	}
	return data, nil
}
