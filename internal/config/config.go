package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort  string
	LogLevel string

	DBPath     string
	BackupPath string

	OllamaURL               string
	OllamaModel             string
	StructureTimeoutSeconds int

	TranscriberBackend string
	VoskModelPath      string
	VoskLanguageLabel  string
	WhisperURL         string
	FFmpegBin          string
	ScratchPath        string

	RejectTranscriptionSentinel bool

	FrontendDist string

	NATSEnabled bool
	NATSURL     string
	NATSSubject string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		DBPath:     mustEnv("DB_PATH", "./data/complaints.db"),
		BackupPath: mustEnv("BACKUP_PATH", "./data/backup_complaints.json"),

		OllamaURL:               mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:             mustEnv("OLLAMA_MODEL", "llama2"),
		StructureTimeoutSeconds: mustEnvInt("STRUCTURE_TIMEOUT_SECONDS", 180),

		TranscriberBackend: mustEnv("TRANSCRIBER_BACKEND", "vosk"),
		VoskModelPath:      mustEnv("VOSK_MODEL_PATH", "models/vosk-model-hi-0.22"),
		VoskLanguageLabel:  mustEnv("VOSK_LANGUAGE_LABEL", "Hindi"),
		WhisperURL:         mustEnv("WHISPER_URL", "http://localhost:8178"),
		FFmpegBin:          mustEnv("FFMPEG_BIN", "ffmpeg"),
		ScratchPath:        mustEnv("SCRATCH_PATH", os.TempDir()),

		RejectTranscriptionSentinel: mustEnvBool("INTAKE_REJECT_TRANSCRIPTION_SENTINEL", false),

		FrontendDist: mustEnv("FRONTEND_DIST", "../frontend/dist"),

		NATSEnabled: mustEnvBool("NATS_ENABLED", false),
		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "complaints.committed"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
