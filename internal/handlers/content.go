package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ai-textbook/backend/internal/gemini"
	"github.com/ai-textbook/backend/internal/middleware"
	"github.com/ai-textbook/backend/internal/models"
)

// translateTargetLanguage is fixed: the book ships with an Urdu translation feature.
const translateTargetLanguage = "Urdu"

// personalizePrompt tailors chapter content to the reader's stated backgrounds.
// Output must be bare HTML with no conversational filler.
const personalizePrompt = `You are an AI assistant specialized in Physical AI and Humanoid Robotics. Your task is to personalize the provided chapter content for a user with specific technical backgrounds.

User's Background:
- Username: %s
- Software Background: %s
- Hardware Background: %s

Original Chapter Content:
---
%s
---

Instructions for Personalization:
1.  Tailor the explanation of concepts to best resonate with the user's stated software and hardware background.
2.  Provide examples or analogies that relate to their background.
3.  Suggest practical applications or next steps relevant to their skills.
4.  Maintain the core information and academic rigor of the original content.
5.  Present the personalized content in clear, readable HTML format, suitable for a technical textbook. Ensure all content is within appropriate HTML tags (e.g., <p>, <h2>, <ul>, <ol>, <code>, <pre>).
6.  The output should only be the personalized content, without any conversational filler or introductory/concluding remarks.`

// ==========================
// Content Handler
// ==========================
type ContentHandler struct {
	Provider gemini.Provider
}

// ==========================
// Personalize (prompt built from the caller's stored backgrounds)
// ==========================
func (h *ContentHandler) Personalize(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if input.Content == "" {
		JSONValidationError(w, "validation failed", map[string]string{"content": "required"}, http.StatusBadRequest)
		return
	}

	user, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	prompt := buildPersonalizePrompt(user, input.Content)
	text, err := h.Provider.Generate(r.Context(), prompt)
	if err != nil {
		providerFailed(w, "personalize", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"personalized_content": text})
}

// ==========================
// Translate (English -> Urdu, HTML output)
// ==========================
func (h *ContentHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if input.Content == "" {
		JSONValidationError(w, "validation failed", map[string]string{"content": "required"}, http.StatusBadRequest)
		return
	}

	text, err := h.Provider.Translate(r.Context(), input.Content, translateTargetLanguage)
	if err != nil {
		providerFailed(w, "translate", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"translated_content": text})
}

// ==========================
// Generate (free-form prompt)
// ==========================
func (h *ContentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if input.Prompt == "" {
		JSONValidationError(w, "validation failed", map[string]string{"prompt": "required"}, http.StatusBadRequest)
		return
	}

	text, err := h.Provider.Generate(r.Context(), input.Prompt)
	if err != nil {
		providerFailed(w, "generate", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"response_text": text})
}

// ==========================
// Chat (history + new message)
// ==========================
func (h *ContentHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var input struct {
		History []gemini.Message `json:"history"`
		Message string           `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if input.Message == "" {
		JSONValidationError(w, "validation failed", map[string]string{"message": "required"}, http.StatusBadRequest)
		return
	}

	text, err := h.Provider.Chat(r.Context(), input.History, input.Message)
	if err != nil {
		providerFailed(w, "chat", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"response_text": text})
}

func buildPersonalizePrompt(user *models.User, chapterContent string) string {
	software := user.SoftwareBackground
	if software == "" {
		software = "not specified"
	}
	hardware := user.HardwareBackground
	if hardware == "" {
		hardware = "not specified"
	}
	return fmt.Sprintf(personalizePrompt, user.Username, software, hardware, chapterContent)
}

// providerFailed logs the upstream cause and returns a generic 502. Raw
// provider errors stay out of response bodies.
func providerFailed(w http.ResponseWriter, op string, err error) {
	slog.Error("provider call failed", "operation", op, "error", err)
	JSONError(w, "failed to generate content, please try again", http.StatusBadGateway)
}
