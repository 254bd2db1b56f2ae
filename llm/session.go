package llm

import (
	"context"
	"sync"

	"hustle-genie/utils"
)

// ChatSession is a stateful conversation with the model
type ChatSession interface {
	// SendText never fails: a backend error yields ChatFailureReply
	SendText(ctx context.Context, text string) string

	// History returns a copy of the turns accepted so far
	History() []Turn
}

type session struct {
	provider    Provider
	instruction string
	logger      *utils.Logger

	mu      sync.Mutex
	history []Turn
}

func newSession(provider Provider, logger *utils.Logger, history []Turn, instruction string) *session {
	return &session{
		provider:    provider,
		instruction: instruction,
		logger:      logger,
		history:     append([]Turn(nil), history...),
	}
}

func (s *session) SendText(ctx context.Context, text string) string {
	s.mu.Lock()
	turns := make([]Turn, 0, len(s.history)+1)
	turns = append(turns, s.history...)
	s.mu.Unlock()

	turns = append(turns, Turn{Role: RoleUser, Text: text})

	reply, err := s.provider.Chat(ctx, s.instruction, turns)
	if err != nil {
		s.logger.Error("chat message failed", "provider", s.provider.Name(), "error", err)
		return ChatFailureReply
	}

	s.mu.Lock()
	s.history = append(s.history, Turn{Role: RoleUser, Text: text}, Turn{Role: RoleModel, Text: reply})
	s.mu.Unlock()

	return reply
}

func (s *session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.history...)
}
