package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/smart-seats/internal/assistant"
    "github.com/iliyamo/smart-seats/internal/model"
)

// Concierge answers one chat turn.
type Concierge interface {
    Chat(ctx context.Context, messages []model.ChatMessage) (*model.ChatReply, error)
}

// ChatHandler serves the concierge chat.
type ChatHandler struct {
    Assistant Concierge
}

type chatRequest struct {
    Messages []model.ChatMessage `json:"messages"`
}

// Chat answers POST /v1/assistant/chat with {reply, highlight_seats,
// seat_details}.  Invalid conversations get 400.
func (h *ChatHandler) Chat(c echo.Context) error {
    var req chatRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON"})
    }
    reply, err := h.Assistant.Chat(c.Request().Context(), req.Messages)
    if err != nil {
        var ve *assistant.ValidationError
        if errors.As(err, &ve) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error()})
        }
        c.Logger().Errorf("chat: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
    return c.JSON(http.StatusOK, reply)
}
