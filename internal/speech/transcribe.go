package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const transcribeModelID = "scribe_v1"

type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Type  string  `json:"type"` // word, spacing or audio_event
}

type Transcript struct {
	LanguageCode        string  `json:"language_code"`
	LanguageProbability float64 `json:"language_probability"`
	Text                string  `json:"text"`
	Words               []Word  `json:"words"`
}

// Transcribe sends audio to ElevenLabs speech-to-text with word timestamps
// and audio-event tagging, for a single English speaker.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (*Transcript, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	if len(audio) == 0 {
		return nil, errors.New("audio is empty")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"model_id", transcribeModelID},
		{"tag_audio_events", "true"},
		{"language_code", "eng"},
		{"diarize", "false"},
		{"num_speakers", "1"},
		{"timestamps_granularity", "word"},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/speech-to-text", &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("STT transcription failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("STT transcription failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var t Transcript
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, fmt.Errorf("decoding transcript: %w", err)
	}
	c.log.Info().Int("words", len(t.Words)).Str("language", t.LanguageCode).Msg("audio transcribed")
	return &t, nil
}
