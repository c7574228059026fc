package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/iaejovem/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	chatMaxTokens   = 500
	chatTemperature = 0.8
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a provider-neutral chat completion call.
type ChatRequest struct {
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatStreamer produces a reply incrementally. onChunk receives text as it
// arrives; an error returned by onChunk aborts the stream.
type ChatStreamer interface {
	StreamChat(ctx context.Context, req ChatRequest, onChunk func(string) error) error
}

// ChatService runs the companion conversation a student has before the
// transcript is submitted for scoring.
type ChatService struct {
	db       *gorm.DB
	streamer ChatStreamer
}

// NewChatService accepts a nil streamer; Stream then fails with
// ErrChatUnavailable.
func NewChatService(db *gorm.DB, streamer ChatStreamer) *ChatService {
	return &ChatService{db: db, streamer: streamer}
}

// Stream sends the history to the provider under the companion persona and
// forwards the reply through onChunk.
func (s *ChatService) Stream(ctx context.Context, userID uint, history []ChatMessage, onChunk func(string) error) error {
	if s.streamer == nil {
		return ErrChatUnavailable
	}

	messages := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "user" && role != "assistant" {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		messages = append(messages, ChatMessage{Role: role, Content: m.Content})
	}
	if len(messages) == 0 {
		return validationError("messages are required")
	}

	student, err := findStudent(s.db.WithContext(ctx), userID)
	if err != nil {
		return err
	}

	name := student.FirstName()
	if name == "" {
		name = "estudante"
	}
	err = s.streamer.StreamChat(ctx, ChatRequest{
		System:      companionPrompt(name),
		Messages:    messages,
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	}, onChunk)
	if err != nil {
		return fmt.Errorf("chat stream for user %d: %w", userID, err)
	}

	logger.Debug().Uint("user_id", userID).Int("turns", len(messages)).Msg("chat reply streamed")
	return nil
}

func companionPrompt(name string) string {
	return fmt.Sprintf(`Você é a Ayla, uma companheira empática e acolhedora que conversa com estudantes para oferecer apoio emocional.

PERSONALIDADE:
- Empática, jovem, acolhedora e compreensiva
- Usa linguagem natural e humanizada (NUNCA se refere como IA, chatbot ou assistente)
- Fala como uma amiga próxima que se importa genuinamente
- Valida sentimentos sem julgamento
- Faz perguntas abertas para ajudar o estudante a se expressar

DIRETRIZES:
- Use o nome "%s" ocasionalmente de forma natural
- Responda de forma concisa (máximo 3 frases por vez)
- Seja sempre positiva, mas realista sobre dificuldades
- Ofereça encorajamento e perspectivas construtivas
- Se o estudante mencionar problemas sérios (autolesão, abuso, etc.), sugira buscar ajuda de adultos de confiança

EVITE:
- Dar conselhos médicos ou psicológicos específicos
- Usar linguagem técnica ou formal demais
- Responder de forma genérica ou robotizada
- Mencionar que é uma IA ou sistema

Converse de forma natural e acolhedora, como uma amiga que realmente se importa com o bem-estar do estudante.`, name)
}
