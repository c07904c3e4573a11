package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rentacar-server/chat-api/internal/interfaces/httpserver/handlers"
	"rentacar-server/chat-api/internal/interfaces/httpserver/middlewares"
	"rentacar-server/chat-api/internal/interfaces/httpserver/responses"
	"rentacar-server/chat-api/internal/interfaces/httpserver/responses/chatres"
	"rentacar-server/chat-api/internal/utils/platformerrors"
)

// RegisterChatRoutes registers the chat REST routes. router must already
// require authentication.
func RegisterChatRoutes(router gin.IRoutes, handler *handlers.ChatHandler) {
	router.GET("/conversation", getMyConversation(handler))

	admin := middlewares.RequireAdmin()
	router.GET("/conversations", admin, listConversations(handler))
	router.GET("/conversations/:id/messages", admin, listConversationMessages(handler))
	router.PATCH("/conversations/:id/close", admin, closeConversation(handler))
}

// getMyConversation godoc
// @Summary      Get my conversation
// @Description  Returns the caller's support conversation with its full history, creating an open conversation on first contact.
// @Tags         Chat API
// @Produce      json
// @Success      200 {object} chatres.MyConversationResponse
// @Failure      401 {object} responses.ErrorResponse
// @Failure      500 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /chat/conversation [get]
func getMyConversation(handler *handlers.ChatHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middlewares.GetPrincipal(c)
		if !ok {
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required")
			return
		}

		conv, history, err := handler.MyConversation(c.Request.Context(), principal)
		if err != nil {
			responses.HandleError(c, err, "failed to load conversation")
			return
		}

		c.JSON(http.StatusOK, chatres.NewMyConversationResponse(conv, history))
	}
}

// listConversations godoc
// @Summary      List conversations
// @Description  Lists every conversation with owner name and email, last message and customer message count, most recently active first.
// @Tags         Chat Admin API
// @Produce      json
// @Success      200 {array}  chatres.SummaryResponse
// @Failure      401 {object} responses.ErrorResponse
// @Failure      403 {object} responses.ErrorResponse
// @Failure      500 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /chat/conversations [get]
func listConversations(handler *handlers.ChatHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		summaries, err := handler.ListConversations(c.Request.Context())
		if err != nil {
			responses.HandleError(c, err, "failed to list conversations")
			return
		}

		c.JSON(http.StatusOK, chatres.NewSummaryListResponse(summaries))
	}
}

// listConversationMessages godoc
// @Summary      List conversation messages
// @Description  Returns messages oldest first. Without after and limit the full history is returned.
// @Tags         Chat Admin API
// @Produce      json
// @Param        id    path  int true  "Conversation ID"
// @Param        after query int false "Return messages after this message id"
// @Param        limit query int false "Maximum number of messages"
// @Success      200 {array}  chatres.MessageResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      401 {object} responses.ErrorResponse
// @Failure      403 {object} responses.ErrorResponse
// @Failure      404 {object} responses.ErrorResponse
// @Failure      500 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /chat/conversations/{id}/messages [get]
func listConversationMessages(handler *handlers.ChatHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		after, ok := queryUint(c, "after")
		if !ok {
			return
		}
		limit, ok := queryUint(c, "limit")
		if !ok {
			return
		}

		list, err := handler.ConversationMessages(c.Request.Context(), id, after, int(limit))
		if err != nil {
			responses.HandleError(c, err, "failed to list messages")
			return
		}

		c.JSON(http.StatusOK, chatres.NewMessageListResponse(list))
	}
}

// closeConversation godoc
// @Summary      Close a conversation
// @Description  Marks the conversation closed. Closing a closed conversation succeeds without changes.
// @Tags         Chat Admin API
// @Produce      json
// @Param        id path int true "Conversation ID"
// @Success      200 {object} chatres.ConversationResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      401 {object} responses.ErrorResponse
// @Failure      403 {object} responses.ErrorResponse
// @Failure      404 {object} responses.ErrorResponse
// @Failure      500 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /chat/conversations/{id}/close [patch]
func closeConversation(handler *handlers.ChatHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		conv, err := handler.CloseConversation(c.Request.Context(), id)
		if err != nil {
			responses.HandleError(c, err, "failed to close conversation")
			return
		}

		c.JSON(http.StatusOK, chatres.NewConversationResponse(conv))
	}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid conversation id")
		return 0, false
	}
	return uint(id), true
}

func queryUint(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}
