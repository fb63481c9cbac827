// Package speech converts report text to audio, and audio back to text, with
// ElevenLabs.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chris/briefing/internal/logging"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	modelID        = "eleven_multilingual_v2"
	outputFormat   = "mp3_44100_128"
)

var ErrNotConfigured = errors.New("text-to-speech is not configured (ELEVENLABS_API_KEY)")

type Voice struct {
	Name    string `json:"name"`
	VoiceID string `json:"voice_id"`
}

// Voices are the premade ElevenLabs voices that can be selected by name.
var Voices = []Voice{
	{"Rachel", "21m00Tcm4TlvDq8ikWAM"},
	{"Domi", "AZnzlk1XvdvUeBnXmlld"},
	{"Bella", "EXAVITQu4vr4xnSDxMaL"},
	{"Antoni", "ErXwobaYiN019PkySvjV"},
	{"Elli", "MF3mGyEYCl7XYWbV9V6O"},
	{"Josh", "TxGEqnHWrfWFTfGW9XjX"},
	{"Arnold", "VR6AewLTigWG4xSOukaG"},
	{"Adam", "pNInz6obpgDQGcFmaJgB"},
	{"Sam", "yoZ06aMxZJJ28mfd3POQ"},
}

// VoiceID resolves a voice name; unknown names are taken as ids.
func VoiceID(voice string) string {
	for _, v := range Voices {
		if strings.EqualFold(v.Name, voice) {
			return v.VoiceID
		}
	}
	return voice
}

type Client struct {
	apiKey       string
	defaultVoice string
	baseURL      string
	http         *http.Client
	log          zerolog.Logger
}

func New(apiKey, defaultVoice string) *Client {
	if defaultVoice == "" {
		defaultVoice = "Rachel"
	}
	return &Client{
		apiKey:       apiKey,
		defaultVoice: defaultVoice,
		baseURL:      defaultBaseURL,
		http:         &http.Client{Timeout: 2 * time.Minute},
		log:          logging.For("speech"),
	}
}

func (c *Client) Enabled() bool { return c.apiKey != "" }

// Synthesize returns MP3 audio for text. An empty voice uses the default.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is empty")
	}
	if voice == "" {
		voice = c.defaultVoice
	}

	payload, err := json.Marshal(map[string]string{"text": text, "model_id": modelID})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", c.baseURL, url.PathEscape(VoiceID(voice)), outputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TTS generation failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS generation failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// SaveFile synthesizes text into path, creating parent directories.
func (c *Client) SaveFile(ctx context.Context, text, voice, path string) error {
	audio, err := c.Synthesize(ctx, text, voice)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return fmt.Errorf("writing audio: %w", err)
	}
	c.log.Info().Str("path", path).Int("bytes", len(audio)).Msg("audio saved")
	return nil
}

// AudioName maps a report file name to its audio file name.
func AudioName(reportName string) string {
	return strings.TrimSuffix(reportName, filepath.Ext(reportName)) + ".mp3"
}
