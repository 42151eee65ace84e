package ai

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	openai "github.com/sashabaranov/go-openai"
)

// Tone of a motivational note.
type Tone string

const (
	ToneWarm         Tone = "calido"
	ToneProfessional Tone = "profesional"
	ToneFun          Tone = "divertido"
)

// Language of a motivational note.
type Language string

const (
	LanguageSpanish Language = "es"
	LanguageEnglish Language = "en"
)

const maxNoteFieldChars = 200

var notePolicy = bluemonday.StrictPolicy()

func (t Tone) valid() bool {
	return t == ToneWarm || t == ToneProfessional || t == ToneFun
}

func (t Tone) promptName() string {
	switch t {
	case ToneProfessional:
		return "profesional y cercano"
	case ToneFun:
		return "divertido y desenfadado, sin perder el respeto"
	default:
		return "cálido y empático"
	}
}

func (l Language) valid() bool {
	return l == LanguageSpanish || l == LanguageEnglish
}

func (l Language) promptName() string {
	if l == LanguageEnglish {
		return "inglés"
	}
	return "español"
}

// NoteRequest asks for a short note for one patient.
type NoteRequest struct {
	PatientName string   `json:"nombre_paciente" validate:"required,max=200"`
	Treatment   string   `json:"tratamiento" validate:"required,max=200"`
	Tone        Tone     `json:"tono"`
	Language    Language `json:"idioma"`
}

func (r *NoteRequest) normalize() error {
	r.PatientName = strings.TrimSpace(r.PatientName)
	r.Treatment = strings.TrimSpace(r.Treatment)
	if r.PatientName == "" || r.Treatment == "" {
		return fmt.Errorf("%w: patient name and treatment are required", ErrInvalidInput)
	}
	if len([]rune(r.PatientName)) > maxNoteFieldChars || len([]rune(r.Treatment)) > maxNoteFieldChars {
		return fmt.Errorf("%w: fields are limited to %d characters", ErrInvalidInput, maxNoteFieldChars)
	}

	if r.Tone == "" {
		r.Tone = ToneWarm
	}
	if !r.Tone.valid() {
		return fmt.Errorf("%w: unknown tone %q", ErrInvalidInput, r.Tone)
	}
	if r.Language == "" {
		r.Language = LanguageSpanish
	}
	if !r.Language.valid() {
		return fmt.Errorf("%w: unsupported language %q", ErrInvalidInput, r.Language)
	}
	return nil
}

// MotivationalNote writes a short plain-text note for the patient.
func (c *Client) MotivationalNote(ctx context.Context, req NoteRequest) (string, error) {
	if err := req.normalize(); err != nil {
		return "", err
	}

	userContent := fmt.Sprintf("Paciente: %s\nTratamiento: %s", req.PatientName, req.Treatment)
	content, err := c.complete(ctx, "motivational_note", openai.ChatCompletionRequest{
		Model:       c.opts.Model,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildNotePrompt(req.Tone, req.Language, c.opts.NoteMaxChars)},
			{Role: openai.ChatMessageRoleUser, Content: wrapUserContent(userContent)},
		},
	})
	if err != nil {
		return "", err
	}

	note := cleanNote(content, c.opts.NoteMaxChars)
	if note == "" {
		return "", ErrEmptyResponse
	}
	return note, nil
}

// cleanNote strips markup and cuts the note at maxChars runes, preferring a
// word boundary. The result is plain text, not HTML.
func cleanNote(text string, maxChars int) string {
	note := html.UnescapeString(notePolicy.Sanitize(text))
	note = strings.TrimSpace(strings.Trim(strings.TrimSpace(note), `"`))
	runes := []rune(note)
	if len(runes) <= maxChars {
		return note
	}

	runes = runes[:maxChars]
	for i := len(runes) - 1; i > maxChars/2; i-- {
		if runes[i] == ' ' || runes[i] == '\n' {
			runes = runes[:i]
			break
		}
	}
	return strings.TrimSpace(string(runes))
}
