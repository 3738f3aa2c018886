package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/fdg312/nutri-coach/internal/ai"
	"github.com/fdg312/nutri-coach/internal/nutrition"
	"github.com/fdg312/nutri-coach/internal/storage"
	"github.com/fdg312/nutri-coach/internal/userctx"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrReplyInProgress = errors.New("reply already in progress")
)

const (
	defaultHistoryLimit = 100
	maxContentLength    = 4000
)

type Service struct {
	chatStorage  storage.ChatStorage
	targets      *nutrition.Service
	provider     ai.Provider
	builder      *ContextBuilder
	historyLimit int

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewService(chatStorage storage.ChatStorage, targets *nutrition.Service, provider ai.Provider, builder *ContextBuilder, historyLimit int) *Service {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &Service{
		chatStorage:  chatStorage,
		targets:      targets,
		provider:     provider,
		builder:      builder,
		historyLimit: historyLimit,
		pending:      make(map[string]struct{}),
	}
}

func (s *Service) ListMessages(ctx context.Context, limit int, before *time.Time) (*ListMessagesResponse, error) {
	owner := userctx.OwnerID(ctx)

	rows, nextCursorTime, err := s.chatStorage.ListMessages(ctx, owner, normalizeLimit(limit), before)
	if err != nil {
		return nil, err
	}

	messages := make([]ChatMessageDTO, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, messageToDTO(row))
	}

	var nextCursor *string
	if nextCursorTime != nil {
		cursor := nextCursorTime.UTC().Format(time.RFC3339Nano)
		nextCursor = &cursor
	}

	return &ListMessagesResponse{
		Messages:   messages,
		NextCursor: nextCursor,
	}, nil
}

// SendMessage stores the user turn, asks the model and stores its reply. A
// model failure stores FallbackReply instead and sets Degraded.
func (s *Service) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error) {
	owner := userctx.OwnerID(ctx)

	content := strings.TrimSpace(req.Content)
	switch {
	case content == "":
		return nil, fmt.Errorf("%w: content is empty", ErrInvalidRequest)
	case utf8.RuneCountInString(content) > maxContentLength:
		return nil, fmt.Errorf("%w: content exceeds %d characters", ErrInvalidRequest, maxContentLength)
	}

	if !s.acquire(owner) {
		return nil, ErrReplyInProgress
	}
	defer s.release(owner)

	targets, sp, err := s.targets.ForOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	rows, _, err := s.chatStorage.ListMessages(ctx, owner, s.historyLimit, nil)
	if err != nil {
		return nil, err
	}
	history := windowHistory(rows)

	userMessage, err := s.chatStorage.InsertMessage(ctx, owner, RoleUser, content)
	if err != nil {
		return nil, err
	}

	turn := Turn{Role: RoleUser, Text: content}
	thread := AppendTurn(history, turn)
	degraded := false
	reply, err := s.provider.Generate(ctx, ai.Request{
		Messages: s.builder.Build(sp.Profile, targets, history, turn),
		Purpose:  ai.PurposeChat,
	})
	text := strings.TrimSpace(reply.Text)
	if err != nil || text == "" {
		if err == nil {
			err = ai.ErrEmptyResponse
		}
		log.Warn().Err(err).Str("owner", owner).Msg("chat reply failed, storing fallback")
		thread = RecoverFromFailure(thread)
		degraded = true
	} else {
		thread = AppendTurn(thread, Turn{Role: RoleAssistant, Text: text})
	}

	// The user turn is already stored, the turns after it must follow.
	stored, err := s.commit(context.WithoutCancel(ctx), owner, thread[len(history)+1:])
	if err != nil {
		return nil, err
	}

	return &SendMessageResponse{
		UserMessage:      messageToDTO(userMessage),
		AssistantMessage: messageToDTO(stored[len(stored)-1]),
		Degraded:         degraded,
	}, nil
}

// commit appends turns to the owner's stored history in order.
func (s *Service) commit(ctx context.Context, owner string, turns []Turn) ([]storage.ChatMessage, error) {
	stored := make([]storage.ChatMessage, 0, len(turns))
	for _, t := range turns {
		msg, err := s.chatStorage.InsertMessage(ctx, owner, t.Role, t.Text)
		if err != nil {
			return nil, err
		}
		stored = append(stored, msg)
	}
	return stored, nil
}

// Reset clears the owner's history.
func (s *Service) Reset(ctx context.Context) error {
	owner := userctx.OwnerID(ctx)
	if err := s.chatStorage.DeleteMessages(ctx, owner); err != nil {
		return err
	}
	log.Info().Str("owner", owner).Msg("chat history reset")
	return nil
}

func (s *Service) acquire(owner string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.pending[owner]; busy {
		return false
	}
	s.pending[owner] = struct{}{}
	return true
}

func (s *Service) release(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, owner)
}

// windowHistory converts stored rows to turns. A window cut by the history
// limit may start with an assistant turn; it is dropped so the context
// starts with the user.
func windowHistory(rows []storage.ChatMessage) []Turn {
	turns := make([]Turn, 0, len(rows))
	for _, row := range rows {
		if len(turns) == 0 && row.Role != RoleUser {
			continue
		}
		turns = append(turns, messageToTurn(row))
	}
	return turns
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}
