package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LLMPrefer         string // gemini, openrouter
	GeminiKey         string
	GeminiModel       string
	GeminiBaseURL     string
	OpenRouterKey     string
	OpenRouterModel   string // pins a model; empty means pick the best free one
	OpenRouterBaseURL string
	OpenRouterVendor  string // bias free-model discovery, e.g. "deepseek"
	RateLimitBlock    bool
	RateLimitMaxWait  time.Duration

	OpenWeatherMapKey string
	TicketmasterKey   string
	Crawl4AIURL       string
	ElevenLabsKey     string
	ElevenLabsVoice   string

	ReportsDir          string
	CacheDir            string
	AudioDir            string
	PersonalizationPath string

	ReportCron   string
	SpeakReports bool
	HTTPAddr     string
	CORSOrigin   string

	DiscordToken     string
	DiscordChannelID string
	DiscordWebhook   string

	LogLevel  string
	LogFormat string // console, json
}

func Load() *Config {
	_ = godotenv.Load() // ignore error if no .env

	return &Config{
		LLMPrefer:         envOr("LLM_PREFER", "gemini"),
		GeminiKey:         os.Getenv("GEMINI_KEY"),
		GeminiModel:       envOr("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		GeminiBaseURL:     envOr("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		OpenRouterKey:     os.Getenv("OPENROUTER_KEY"),
		OpenRouterModel:   os.Getenv("OPENROUTER_MODEL"),
		OpenRouterBaseURL: envOr("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterVendor:  os.Getenv("OPENROUTER_VENDOR"),
		RateLimitBlock:    envBool("RATE_LIMIT_BLOCK", false),
		RateLimitMaxWait:  envDuration("RATE_LIMIT_MAX_WAIT", time.Hour),

		OpenWeatherMapKey: os.Getenv("OPENWEATHERMAP_KEY"),
		TicketmasterKey:   os.Getenv("TICKETMASTER_API_KEY"),
		Crawl4AIURL:       envOr("CRAWL4AI_URL", "http://crawl4ai:11235"),
		ElevenLabsKey:     os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsVoice:   envOr("ELEVENLABS_VOICE", "Rachel"),

		ReportsDir:          envOr("REPORTS_DIR", "./reports"),
		CacheDir:            envOr("CACHE_DIR", "./cache"),
		AudioDir:            envOr("AUDIO_DIR", "./audio"),
		PersonalizationPath: envOr("PERSONALIZATION_PATH", "./personalization.json"),

		ReportCron:   envOr("REPORT_CRON", "@every 60m"),
		SpeakReports: envBool("SPEAK_REPORTS", false),
		HTTPAddr:     envOr("HTTP_ADDR", ":8000"),
		CORSOrigin:   envOr("CORS_ORIGIN", "http://localhost:5173"),

		DiscordToken:     os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		DiscordWebhook:   os.Getenv("DISCORD_WEBHOOK_URL"),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "console"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
