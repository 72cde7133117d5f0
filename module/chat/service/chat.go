package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	mid "EduChat/middleware"
	midsec "EduChat/middleware/security"
	chatmodel "EduChat/module/chat/model"
	usermodel "EduChat/module/user/model"
	"EduChat/tools/errs"
)

// Store is what the REST layer needs from the Chat Store; the concrete
// mongo store satisfies it, fakes satisfy it in tests.
type Store interface {
	CreateConversation(ctx context.Context, kind string, participantIDs []string, creatorID, groupName string) (*chatmodel.Chat, error)
	GetByID(ctx context.Context, chatID string) (*chatmodel.Chat, error)
	ListForUser(ctx context.Context, userID string) ([]*chatmodel.Chat, error)
	AppendMessage(ctx context.Context, chatID, senderID, content string, attachments []chatmodel.Attachment) (*chatmodel.Message, error)
	MarkRead(ctx context.Context, chatID, userID string) (int, error)
	EditMessage(ctx context.Context, chatID, messageID, editorID, content string) (*chatmodel.Message, error)
	UpdateGroupMetadata(ctx context.Context, chatID, actorID, groupName string, participants []string) (*chatmodel.Chat, error)
	SoftDelete(ctx context.Context, chatID, actorID string) error
	Stats(ctx context.Context, chatID string) (*chatmodel.Stats, error)
}

// Notifier is the realtime gateway seen from here: fire-and-forget room
// broadcasts, invoked only after the store has confirmed persistence.
type Notifier interface {
	NotifyNewMessage(chatID string, message any)
	NotifyMessageEdited(chatID string, message any)
}

// UserDirectory supplies display snapshots for populate-style responses.
type UserDirectory interface {
	GetMany(ctx context.Context, userIDs []string) (map[string]*usermodel.User, error)
}

type Handler struct {
	store  Store
	notify Notifier
	users  UserDirectory
}

func NewHandler(store Store, notify Notifier, users UserDirectory) *Handler {
	return &Handler{store: store, notify: notify, users: users}
}

// RegisterRoutes mounts the chat surface; every route is authenticated.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	auth := mid.RouteOpt{IsAuth: true}
	mid.POST(r, "/chats", h.CreateChat, auth)
	mid.GET(r, "/chats", h.ListChats, auth)
	mid.GET(r, "/chats/:chatId", h.GetChat, auth)
	mid.POST(r, "/chats/:chatId/messages", h.SendMessage, auth)
	mid.PATCH(r, "/chats/:chatId/messages/:messageId", h.EditMessage, auth)
	mid.PATCH(r, "/chats/:chatId/read", h.MarkRead, auth)
	mid.PATCH(r, "/chats/:chatId", h.UpdateChat, auth)
	mid.DELETE(r, "/chats/:chatId", h.DeleteChat, auth)
	mid.GET(r, "/chats/:chatId/stats", h.GetStats, auth)
}

// fail maps a typed error to its HTTP status; anything untyped collapses to
// a generic 500 so storage internals never leak.
func fail(c *gin.Context, err error) {
	var ce errs.CodeError
	if errors.As(err, &ce) {
		c.JSON(errs.HTTPStatus(ce.Code), gin.H{"error": ce.Msg, "message": ce.Detail})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

type createChatReq struct {
	Kind         string   `json:"kind" binding:"required"`
	Participants []string `json:"participants"`
	GroupName    string   `json:"groupName"`
}

// CreateChat creates a conversation. The creator joins the participant set
// whether or not the client listed them, and becomes the only admin.
func (h *Handler) CreateChat(c *gin.Context) {
	principal := midsec.Principal(c)
	var req createChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	chat, err := h.store.CreateConversation(c.Request.Context(), req.Kind, req.Participants, principal.UserID, req.GroupName)
	if err != nil {
		fail(c, err)
		return
	}
	h.populateParticipants(c.Request.Context(), chat)
	c.JSON(http.StatusCreated, chat)
}

// ListChats returns the principal's active conversations, latest activity
// first.
func (h *Handler) ListChats(c *gin.Context) {
	principal := midsec.Principal(c)
	chats, err := h.store.ListForUser(c.Request.Context(), principal.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	for _, chat := range chats {
		h.populateParticipants(c.Request.Context(), chat)
	}
	if chats == nil {
		chats = []*chatmodel.Chat{}
	}
	c.JSON(http.StatusOK, chats)
}

// GetChat returns the full conversation, messages included, soft-deleted or
// not. Participants only.
func (h *Handler) GetChat(c *gin.Context) {
	principal := midsec.Principal(c)
	chat, err := h.store.GetByID(c.Request.Context(), c.Param("chatId"))
	if err != nil {
		fail(c, err)
		return
	}
	if !chat.IsParticipant(principal.UserID) {
		fail(c, errs.ErrNoPermission.WithDetail("access denied"))
		return
	}
	h.populateParticipants(c.Request.Context(), chat)
	h.populateSenders(c.Request.Context(), chat)
	c.JSON(http.StatusOK, chat)
}

type sendMessageReq struct {
	Content     string                 `json:"content" binding:"required"`
	Attachments []chatmodel.Attachment `json:"attachments"`
}

// SendMessage appends a message and, only after the append is durable,
// broadcasts it to the conversation room — sender's other devices included.
// A failed append broadcasts nothing.
func (h *Handler) SendMessage(c *gin.Context) {
	principal := midsec.Principal(c)
	chatID := c.Param("chatId")
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	msg, err := h.store.AppendMessage(c.Request.Context(), chatID, principal.UserID, req.Content, req.Attachments)
	if err != nil {
		fail(c, err)
		return
	}
	msg.SenderName = principal.DisplayName()
	msg.SenderAvatar = principal.Avatar
	h.notify.NotifyNewMessage(chatID, msg)
	c.JSON(http.StatusCreated, msg)
}

type editMessageReq struct {
	Content string `json:"content" binding:"required"`
}

// EditMessage rewrites a message's content (sender only), keeping the prior
// revision in the edit history, then broadcasts the edit.
func (h *Handler) EditMessage(c *gin.Context) {
	principal := midsec.Principal(c)
	chatID := c.Param("chatId")
	var req editMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	msg, err := h.store.EditMessage(c.Request.Context(), chatID, c.Param("messageId"), principal.UserID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	msg.SenderName = principal.DisplayName()
	msg.SenderAvatar = principal.Avatar
	h.notify.NotifyMessageEdited(chatID, msg)
	c.JSON(http.StatusOK, msg)
}

// MarkRead stamps a receipt for the principal on every unread message.
// Safe to repeat.
func (h *Handler) MarkRead(c *gin.Context) {
	principal := midsec.Principal(c)
	if _, err := h.store.MarkRead(c.Request.Context(), c.Param("chatId"), principal.UserID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "messages marked as read"})
}

type updateChatReq struct {
	GroupName    string   `json:"groupName"`
	Participants []string `json:"participants"`
}

// UpdateChat renames the group and/or replaces the participant set. Admins
// only.
func (h *Handler) UpdateChat(c *gin.Context) {
	principal := midsec.Principal(c)
	var req updateChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	chat, err := h.store.UpdateGroupMetadata(c.Request.Context(), c.Param("chatId"), principal.UserID, req.GroupName, req.Participants)
	if err != nil {
		fail(c, err)
		return
	}
	h.populateParticipants(c.Request.Context(), chat)
	c.JSON(http.StatusOK, chat)
}

// DeleteChat soft-deletes: the conversation drops out of listings but the
// record survives.
func (h *Handler) DeleteChat(c *gin.Context) {
	principal := midsec.Principal(c)
	if err := h.store.SoftDelete(c.Request.Context(), c.Param("chatId"), principal.UserID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "chat deleted successfully"})
}

// GetStats returns the aggregate view for one conversation.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context(), c.Param("chatId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) populateParticipants(ctx context.Context, chat *chatmodel.Chat) {
	users, err := h.users.GetMany(ctx, chat.Participants)
	if err != nil {
		return // display decoration is best effort
	}
	chat.ParticipantsInfo = make([]chatmodel.ParticipantInfo, 0, len(chat.Participants))
	for _, id := range chat.Participants {
		u, ok := users[id]
		if !ok {
			chat.ParticipantsInfo = append(chat.ParticipantsInfo, chatmodel.ParticipantInfo{UserID: id})
			continue
		}
		chat.ParticipantsInfo = append(chat.ParticipantsInfo, chatmodel.ParticipantInfo{
			UserID:    u.UserID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Avatar:    u.Avatar,
		})
	}
}

func (h *Handler) populateSenders(ctx context.Context, chat *chatmodel.Chat) {
	senderIDs := make([]string, 0, len(chat.Messages))
	for i := range chat.Messages {
		senderIDs = append(senderIDs, chat.Messages[i].Sender)
	}
	users, err := h.users.GetMany(ctx, senderIDs)
	if err != nil {
		return
	}
	for i := range chat.Messages {
		if u, ok := users[chat.Messages[i].Sender]; ok {
			chat.Messages[i].SenderName = u.DisplayName()
			chat.Messages[i].SenderAvatar = u.Avatar
		}
	}
}
