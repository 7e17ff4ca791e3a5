package handlers

import (
	"net/http"
	"strings"
	"time"

	"opslink/internal/models"
	"opslink/internal/utils"

	"github.com/google/uuid"
)

// ChatSummary is one row of the chat list.
type ChatSummary struct {
	ID           uuid.UUID   `json:"id"`
	Participants []uuid.UUID `json:"participants"`
	LastMessage  string      `json:"lastMessage"`
}

// HandleListChats returns every chat the caller participates in,
// most recently active first.
func (s *Server) HandleListChats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, appErr := currentUser(r)
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		chats, err := s.DB.GetChatsForUser(r.Context(), user.ID)
		if err != nil {
			s.respondError(w, err)
			return
		}

		summaries := make([]ChatSummary, 0, len(chats))
		for _, c := range chats {
			summaries = append(summaries, ChatSummary{
				ID:           c.ID,
				Participants: c.Participants,
				LastMessage:  c.LastMessage(),
			})
		}
		s.respondJSON(w, http.StatusOK, summaries)
	}
}

// HandleGetChat loads one chat with its messages. Participants only.
func (s *Server) HandleGetChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, appErr := currentUser(r)
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		id, appErr := parseIDParam(r, "id")
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		chat, err := s.DB.GetChat(r.Context(), id)
		if err != nil {
			s.respondError(w, err)
			return
		}
		if !chat.HasParticipant(user.ID) {
			s.respondError(w, utils.NewForbiddenError("not a participant of this chat"))
			return
		}

		s.respondJSON(w, http.StatusOK, chat)
	}
}

// HandleSendMessage appends a message to a chat.
func (s *Server) HandleSendMessage() http.HandlerFunc {
	type request struct {
		Content string `json:"content"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user, appErr := currentUser(r)
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		id, appErr := parseIDParam(r, "id")
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		var req request
		if appErr := decodeBody(r, &req); appErr != nil {
			s.respondError(w, appErr)
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			s.respondError(w, utils.NewValidationError("message content is required"))
			return
		}

		chat, err := s.DB.GetChat(r.Context(), id)
		if err != nil {
			s.respondError(w, err)
			return
		}
		if !chat.HasParticipant(user.ID) {
			s.respondError(w, utils.NewForbiddenError("not a participant of this chat"))
			return
		}

		now := time.Now()
		chat.Messages = append(chat.Messages, models.ChatMessage{
			ID:        uuid.New(),
			Sender:    user.ID,
			Content:   req.Content,
			CreatedAt: now,
		})
		chat.UpdatedAt = now

		if err := s.DB.SaveChat(r.Context(), chat); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, MessageResponse{Message: "Message sent"})
	}
}

// HandleStartChat opens (or reuses) a chat with the user holding the
// given Discord username.
func (s *Server) HandleStartChat() http.HandlerFunc {
	type request struct {
		Username string `json:"username"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user, appErr := currentUser(r)
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		var req request
		if appErr := decodeBody(r, &req); appErr != nil {
			s.respondError(w, appErr)
			return
		}
		if req.Username == "" {
			s.respondError(w, utils.NewValidationError("username is required"))
			return
		}

		target, err := s.DB.GetUserByDiscordUsername(r.Context(), req.Username)
		if err != nil {
			s.respondError(w, err)
			return
		}
		if target.ID == user.ID {
			s.respondError(w, utils.NewValidationError("cannot start a chat with yourself"))
			return
		}

		chat, err := s.DB.FindChatBetween(r.Context(), user.ID, target.ID)
		if err != nil && !utils.IsErrorCode(err, utils.ErrNotFound) {
			s.respondError(w, err)
			return
		}
		if chat == nil {
			now := time.Now()
			chat = &models.Chat{
				ID:           uuid.New(),
				Participants: []uuid.UUID{user.ID, target.ID},
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := s.DB.SaveChat(r.Context(), chat); err != nil {
				s.respondError(w, err)
				return
			}
		}

		s.respondJSON(w, http.StatusOK, map[string]string{"chatId": chat.ID.String()})
	}
}
