package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mjhajdugaNext/messenger/internal/apperr"
	"github.com/mjhajdugaNext/messenger/internal/auth"
	"github.com/mjhajdugaNext/messenger/internal/models"
	"github.com/mjhajdugaNext/messenger/internal/service"
)

// Handler groups the REST handlers over the service layer.
type Handler struct {
	accounts *service.UserService
	friends  *service.FriendService
	msgs     *service.MessageService
}

func NewHandler(accounts *service.UserService, friends *service.FriendService, msgs *service.MessageService) *Handler {
	return &Handler{accounts: accounts, friends: friends, msgs: msgs}
}

func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errInvalidPayload)
		return
	}
	u, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) Login(c *gin.Context) {
	var req service.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errInvalidPayload)
		return
	}
	res, err := h.accounts.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.accounts.GetUser(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) Friends(c *gin.Context) {
	friends, err := h.friends.FriendsOf(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

func (h *Handler) ActiveFriends(c *gin.Context) {
	friends, err := h.friends.ActiveFriendsOf(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// ListMessages returns the caller's conversation history, oldest first.
func (h *Handler) ListMessages(c *gin.Context) {
	msgs, err := h.msgs.MessagesFor(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *Handler) GetMessage(c *gin.Context) {
	m, err := h.participantMessage(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// UpdateMessage applies the supplied fields only.
func (h *Handler) UpdateMessage(c *gin.Context) {
	var req service.MessageUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errInvalidPayload)
		return
	}
	if _, err := h.participantMessage(c); err != nil {
		respondError(c, err)
		return
	}
	m, err := h.msgs.UpdateMessageByID(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DeleteMessage answers 204 whether or not the message existed.
func (h *Handler) DeleteMessage(c *gin.Context) {
	_, err := h.participantMessage(c)
	switch {
	case errors.Is(err, service.ErrMessageNotFound):
		c.Status(http.StatusNoContent)
		return
	case err != nil:
		respondError(c, err)
		return
	}
	if _, err := h.msgs.DeleteMessageByID(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// participantMessage loads :id and checks the caller sent or received it.
func (h *Handler) participantMessage(c *gin.Context) (*models.Message, error) {
	m, err := h.msgs.GetMessageByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	uid := auth.GetUserID(c)
	if m.Sender != uid && m.Receiver != uid {
		return nil, apperr.Forbidden("not a participant of this message")
	}
	return m, nil
}
