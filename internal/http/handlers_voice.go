package http

import (
	"encoding/json"
	"net/http"
)

// Voice endpoints are stubs: transcription returns a fixed Hindi sample and
// speech synthesis echoes the text without audio.

type voiceInputRequest struct {
	AudioBase64 string `json:"audio_base64"`
	Language    string `json:"language"`
}

type textToSpeechRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (s *Server) handleVoiceTranscribe(w http.ResponseWriter, r *http.Request) {
	var req voiceInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"text":     "यह एक नमूना प्रतिलेख है",
		"language": "hi",
	})
}

func (s *Server) handleVoiceSpeak(w http.ResponseWriter, r *http.Request) {
	var req textToSpeechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"audio_url": nil,
		"text":      req.Text,
		"message":   "TTS feature available - voice synthesis",
	})
}
