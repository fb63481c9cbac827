package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/chris/briefing/internal/llm"
	"github.com/chris/briefing/internal/personalization"
	"github.com/chris/briefing/internal/render"
	"github.com/chris/briefing/internal/reports"
	"github.com/chris/briefing/internal/speech"
	"github.com/chris/briefing/internal/tools"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// reportResponse carries the full file text in "report", which is what the
// web frontend renders.
type reportResponse struct {
	Message     string `json:"message,omitempty"`
	Report      string `json:"report"`
	Name        string `json:"name"`
	GeneratedAt string `json:"generated_at"`
	Body        string `json:"body"`
}

func toResponse(r *reports.Report) reportResponse {
	return reportResponse{
		Report:      r.Content(),
		Name:        r.Name,
		GeneratedAt: r.GeneratedAt.Format("2006-01-02T15:04:05.000000"),
		Body:        r.Body,
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	report, err := s.generator.Generate(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("report generation failed")
		status := http.StatusInternalServerError
		if errors.Is(err, llm.ErrNoProvider) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}
	resp := toResponse(report)
	resp.Message = "Report generation triggered successfully."
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	report, err := s.reports.Latest()
	s.writeReport(w, r, report, err)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.reports.Read(r.PathValue("name"))
	s.writeReport(w, r, report, err)
}

func (s *Server) writeReport(w http.ResponseWriter, r *http.Request, report *reports.Report, err error) {
	switch {
	case errors.Is(err, reports.ErrNoReports):
		writeError(w, http.StatusNotFound, "No reports found")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(render.HTML(report.Body))
		return
	}
	writeJSON(w, http.StatusOK, toResponse(report))
}

func (s *Server) handleListReports(w http.ResponseWriter, _ *http.Request) {
	names, err := s.reports.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": names})
}

// handleListTools returns tool definitions in the OpenAI function format.
func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	defs := s.tools.Definitions()
	out := make([]map[string]any, 0, len(defs))
	for _, d := range defs {
		out = append(out, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        d.Name,
				"description": d.Description,
				"parameters":  d.Parameters,
			},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": out})
}

func (s *Server) handleInvokeTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var args json.RawMessage
	if err := decodeBody(r, &args); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	out, err := s.tools.Invoke(r.Context(), name, string(args))
	if errors.Is(err, tools.ErrToolNotPermitted) {
		msg := fmt.Sprintf("unknown tool %q", name)
		if hints := s.tools.Suggest(name); len(hints) > 0 {
			msg += "; did you mean " + strings.Join(hints, ", ") + "?"
		}
		writeError(w, http.StatusNotFound, msg)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(out))
}

func (s *Server) handleGetPersonalization(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, personalization.Load(s.opts.PersonalizationPath))
}

func (s *Server) handleSavePersonalization(w http.ResponseWriter, r *http.Request) {
	var prefs personalization.Preferences
	if err := decodeBody(r, &prefs); err != nil {
		writeError(w, http.StatusBadRequest, "personalization must be a JSON object")
		return
	}
	if err := personalization.Save(s.opts.PersonalizationPath, prefs); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Personalization saved."})
}

type speechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// handleTextToSpeech speaks the given text, or the latest report when no
// text is sent.
func (s *Server) handleTextToSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	text := req.Text
	if strings.TrimSpace(text) == "" {
		latest, err := s.reports.Latest()
		if err != nil {
			writeError(w, http.StatusNotFound, "No text given and no reports found")
			return
		}
		text = latest.Body
	}
	s.speak(w, r, text, req.Voice)
}

// handleReportAudio speaks the latest report with the default voice.
func (s *Server) handleReportAudio(w http.ResponseWriter, r *http.Request) {
	latest, err := s.reports.Latest()
	if err != nil {
		writeError(w, http.StatusNotFound, "No reports found")
		return
	}
	s.speak(w, r, latest.Body, "")
}

func (s *Server) speak(w http.ResponseWriter, r *http.Request, md, voice string) {
	audio, err := s.speaker.Synthesize(r.Context(), render.PlainText(md), voice)
	if err != nil {
		writeSpeechError(w, err)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	_, _ = w.Write(audio)
}

// handleTranscribeLatest speaks the latest report and transcribes the audio
// back, a round trip for checking both speech directions.
func (s *Server) handleTranscribeLatest(w http.ResponseWriter, r *http.Request) {
	latest, err := s.reports.Latest()
	if err != nil {
		writeError(w, http.StatusNotFound, "No reports found")
		return
	}
	audio, err := s.speaker.Synthesize(r.Context(), render.PlainText(latest.Body), "")
	if err != nil {
		writeSpeechError(w, err)
		return
	}
	transcript, err := s.speaker.Transcribe(r.Context(), audio, speech.AudioName(latest.Name))
	if err != nil {
		writeSpeechError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": latest.Name, "transcription": transcript})
}

func writeSpeechError(w http.ResponseWriter, err error) {
	if errors.Is(err, speech.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}

func (s *Server) handleVoices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, speech.Voices)
}
