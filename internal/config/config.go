// Package config holds the service configuration, sourced from flags and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	// Port the HTTP server listens on.
	Port int
	// DownloadsDir is the root of the video library on disk.
	DownloadsDir string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	// AllowedHosts widens the base-URL host allowlist, for proxies.
	AllowedHosts []string

	// WhisperBin and WhisperModel switch transcription to a local
	// whisper.cpp binary instead of the OpenAI audio API.
	WhisperBin   string
	WhisperModel string

	// YouTubeAPIKey enables candidate-video discovery for analyze requests
	// that carry no explicit video URLs. Optional.
	YouTubeAPIKey string

	YTDLPPath   string
	FFmpegPath  string
	FFprobePath string

	// ChunkLength and WindowLength are in seconds.
	ChunkLength      int
	WindowLength     int
	MaxAnalyzeVideos int
}

// FromEnv builds a Config from the environment, falling back to defaults.
func FromEnv() Config {
	return Config{
		Port:             getenvInt("PORT", 3001),
		DownloadsDir:     getenvDefault("DOWNLOADS_DIR", "downloads"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getenvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		AllowedHosts:     splitHostList(os.Getenv("OPENAI_ALLOWED_HOSTS")),
		WhisperBin:       os.Getenv("WHISPER_BIN"),
		WhisperModel:     os.Getenv("WHISPER_MODEL"),
		YouTubeAPIKey:    os.Getenv("YOUTUBE_API_KEY"),
		YTDLPPath:        getenvDefault("YTDLP_PATH", "yt-dlp"),
		FFmpegPath:       getenvDefault("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:      getenvDefault("FFPROBE_PATH", "ffprobe"),
		ChunkLength:      getenvInt("CHUNK_LENGTH", 120),
		WindowLength:     getenvInt("WINDOW_LENGTH", 120),
		MaxAnalyzeVideos: getenvInt("MAX_ANALYZE_VIDEOS", 3),
	}
}

func (c Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return errors.New("OPENAI_API_KEY is required (set it in .env)")
	}
	if c.OpenAIBaseURL != "" {
		if err := ValidateBaseURL(c.OpenAIBaseURL, c.AllowedHosts); err != nil {
			return err
		}
	}
	if c.WhisperBin != "" && c.WhisperModel == "" {
		return errors.New("WHISPER_MODEL is required when WHISPER_BIN is set")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DownloadsDir == "" {
		return errors.New("downloads directory must not be empty")
	}
	if c.ChunkLength <= 0 {
		return errors.New("chunk length must be > 0")
	}
	if c.WindowLength <= 0 || c.WindowLength > 2*c.ChunkLength {
		return errors.New("window length must be in (0, 2*chunk length]")
	}
	if c.MaxAnalyzeVideos <= 0 {
		return errors.New("max analyze videos must be > 0")
	}
	return nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
