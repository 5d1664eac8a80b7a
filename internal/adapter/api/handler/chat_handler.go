package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"handcraft/internal/adapter/api/middleware"
	"handcraft/internal/domain/entity"
	"handcraft/internal/usecase"
	"handcraft/pkg/response"
)

// ChatHandler serves the conversation REST surface. These endpoints double
// as the polling fallback for clients whose websocket is down, so their
// response bodies are a fixed contract and bypass the standard envelope.
type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{chatUseCase: chatUseCase}
}

type conversationListResponse struct {
	Success     bool           `json:"success"`
	Chats       []*entity.Chat `json:"chats"`
	TotalUnread int            `json:"totalUnread"`
}

type conversationResponse struct {
	Success bool         `json:"success"`
	Chat    *entity.Chat `json:"chat"`
}

type markReadResponse struct {
	Success bool `json:"success"`
}

func (h *ChatHandler) List(c echo.Context) error {
	chats, totalUnread, err := h.chatUseCase.ListConversations(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	if chats == nil {
		chats = []*entity.Chat{}
	}
	return c.JSON(http.StatusOK, conversationListResponse{
		Success:     true,
		Chats:       chats,
		TotalUnread: totalUnread,
	})
}

func (h *ChatHandler) Get(c echo.Context) error {
	chat, err := h.chatUseCase.GetChat(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return c.JSON(http.StatusOK, conversationResponse{Success: true, Chat: chat})
}

type startConversationRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Content   string `json:"content"`
}

func (h *ChatHandler) Start(c echo.Context) error {
	var req startConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatUseCase.StartConversation(c.Request().Context(), middleware.UserID(c), req.ProductID, req.Content)
	if err != nil {
		return response.Error(c, err)
	}
	return c.JSON(http.StatusCreated, conversationResponse{Success: true, Chat: chat})
}

// MarkRead is the REST half of the read receipt; clients also send it over
// the socket when connected.
func (h *ChatHandler) MarkRead(c echo.Context) error {
	if err := h.chatUseCase.MarkRead(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return c.JSON(http.StatusOK, markReadResponse{Success: true})
}
