package chat

import (
	"time"

	"github.com/fdg312/nutri-coach/internal/storage"
	"github.com/google/uuid"
)

type ChatMessageDTO struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type SendMessageResponse struct {
	UserMessage      ChatMessageDTO `json:"user_message"`
	AssistantMessage ChatMessageDTO `json:"assistant_message"`
	// Degraded is set when the model failed and the fallback reply was stored.
	Degraded bool `json:"degraded"`
}

type ListMessagesResponse struct {
	Messages   []ChatMessageDTO `json:"messages"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func messageToDTO(msg storage.ChatMessage) ChatMessageDTO {
	return ChatMessageDTO{
		ID:        msg.ID,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

func messageToTurn(msg storage.ChatMessage) Turn {
	return Turn{Role: msg.Role, Text: msg.Content}
}
