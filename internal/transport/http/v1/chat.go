package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/solkit/solkit/internal/domain"
	"github.com/solkit/solkit/internal/service"
)

// Chat runs one chat turn and streams the response as chunked plain
// text. The first line of the stream is a JSON object carrying the
// conversation key; everything after it is response text.
// POST /v1/chat
func (h *Handler) Chat(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}

	resp := c.Response()
	started := false

	err := h.service.StreamChat(c.Request().Context(), req, func(text string) error {
		if !started {
			resp.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
			resp.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := resp.Write([]byte(text)); err != nil {
			return err
		}
		resp.Flush()
		return nil
	})
	if err != nil && !started {
		return rejectionResponse(c, err)
	}
	return nil
}

// rejectionResponse delivers a gating rejection as the body of an
// otherwise-normal response: the caller's stream contract is that an
// early rejection arrives as a single JSON object with an error field,
// not as a transport-level failure.
func rejectionResponse(c echo.Context, err error) error {
	message := service.ClientMessage(err)
	if message == "" {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, map[string]string{"error": message})
}

// LastConversations lists the caller's most recent conversations.
// POST /v1/chat/conversations
func (h *Handler) LastConversations(c echo.Context) error {
	var req domain.LastConversationsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	resp, err := h.service.LastConversations(c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

// GetConversation returns the full history of one conversation.
// POST /v1/chat/conversation
func (h *Handler) GetConversation(c echo.Context) error {
	var req domain.GetConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.ConversationKey == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "conversation_key is required"})
	}

	resp, err := h.service.GetConversation(c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}
