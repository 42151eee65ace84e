package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	maxDigitizeTextChars = 20000
	maxImageBytes        = 8 << 20
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// DigitizeRequest is free text, a photo of a paper agenda, or both.
type DigitizeRequest struct {
	Text          string `json:"texto"`
	ImageBase64   string `json:"imagen_base64"`
	MimeType      string `json:"mime_type"`
	ReferenceDate string `json:"fecha_referencia"`
}

// DigitizedAppointment is one appointment extracted by the model.
type DigitizedAppointment struct {
	Patient   string `json:"paciente"`
	Phone     string `json:"telefono"`
	Date      string `json:"fecha"`
	StartTime string `json:"hora_inicio"`
	EndTime   string `json:"hora_fin"`
	Reason    string `json:"motivo"`
	Notes     string `json:"notas"`
}

// DigitizeResult holds the appointments plus anything dropped on the way.
type DigitizeResult struct {
	Appointments []DigitizedAppointment `json:"citas"`
	Warnings     []string               `json:"advertencias"`
}

func (r DigitizeRequest) validate() error {
	text := strings.TrimSpace(r.Text)
	if text == "" && r.ImageBase64 == "" {
		return fmt.Errorf("%w: text or image is required", ErrInvalidInput)
	}
	if len([]rune(text)) > maxDigitizeTextChars {
		return fmt.Errorf("%w: text exceeds %d characters", ErrInvalidInput, maxDigitizeTextChars)
	}
	if r.ImageBase64 != "" {
		if !allowedImageTypes[r.MimeType] {
			return fmt.Errorf("%w: unsupported image type %q", ErrInvalidInput, r.MimeType)
		}
		if base64.StdEncoding.DecodedLen(len(r.ImageBase64)) > maxImageBytes {
			return fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidInput, maxImageBytes)
		}
		if _, err := base64.StdEncoding.DecodeString(r.ImageBase64); err != nil {
			return fmt.Errorf("%w: image is not valid base64", ErrInvalidInput)
		}
	}
	if r.ReferenceDate != "" {
		if _, err := time.Parse(dateLayout, r.ReferenceDate); err != nil {
			return fmt.Errorf("%w: reference date must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	return nil
}

// DigitizeAppointments extracts structured appointments from the request.
func (c *Client) DigitizeAppointments(ctx context.Context, req DigitizeRequest) (*DigitizeResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	referenceDate := req.ReferenceDate
	if referenceDate == "" {
		referenceDate = c.now().Format(dateLayout)
	}

	userMessage := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		text = "(sin texto, ver imagen adjunta)"
	}
	model := c.opts.Model
	if req.ImageBase64 != "" {
		model = c.opts.VisionModel
		userMessage.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: wrapUserContent(text)},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    "data:" + req.MimeType + ";base64," + req.ImageBase64,
					Detail: openai.ImageURLDetailHigh,
				},
			},
		}
	} else {
		userMessage.Content = wrapUserContent(text)
	}

	content, err := c.complete(ctx, "digitize_appointments", openai.ChatCompletionRequest{
		Model:       model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildDigitizePrompt(referenceDate)},
			userMessage,
		},
	})
	if err != nil {
		return nil, err
	}

	var raw DigitizeResult
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		c.logger.Warn().Err(err).Msg("AI returned malformed appointment JSON")
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrUpstream, err)
	}

	return normalizeAppointments(raw.Appointments), nil
}

// normalizeAppointments drops fields that do not parse instead of guessing them.
func normalizeAppointments(in []DigitizedAppointment) *DigitizeResult {
	result := &DigitizeResult{
		Appointments: make([]DigitizedAppointment, 0, len(in)),
		Warnings:     []string{},
	}

	for i, a := range in {
		n := i + 1
		a.Patient = strings.TrimSpace(a.Patient)
		a.Phone = strings.TrimSpace(a.Phone)
		a.Reason = strings.TrimSpace(a.Reason)
		a.Notes = strings.TrimSpace(a.Notes)

		if a.Date = strings.TrimSpace(a.Date); a.Date != "" {
			if _, err := time.Parse(dateLayout, a.Date); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("cita %d: fecha %q no válida, se descartó", n, a.Date))
				a.Date = ""
			}
		}

		var start, end time.Time
		var ok bool
		if a.StartTime, start, ok = normalizeClock(a.StartTime); !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("cita %d: hora de inicio no válida, se descartó", n))
		}
		if a.EndTime, end, ok = normalizeClock(a.EndTime); !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("cita %d: hora de fin no válida, se descartó", n))
		}
		if a.StartTime != "" && a.EndTime != "" && !end.After(start) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("cita %d: la hora de fin no es posterior a la de inicio, se descartó", n))
			a.EndTime = ""
		}

		if a.Patient == "" && a.Date == "" && a.StartTime == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("cita %d: sin paciente, fecha ni hora, se omitió", n))
			continue
		}
		result.Appointments = append(result.Appointments, a)
	}
	return result
}

// normalizeClock accepts H:MM or HH:MM and returns HH:MM. An empty value is
// valid and stays empty.
func normalizeClock(value string) (string, time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", time.Time{}, true
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return "", time.Time{}, false
	}
	return t.Format(timeLayout), t, true
}
