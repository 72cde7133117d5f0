package store

import (
	"context"
	"strings"
	"time"

	chatmodel "EduChat/module/chat/model"
	"EduChat/tools/errs"
	"EduChat/tools/ids"
)

// AppendMessage appends one message to the conversation. The sender must be
// a current participant; the sender's own read receipt is written with the
// message so markRead never touches own messages. Append order under
// concurrent sends is fixed by the conversation lock.
func (s *Store) AppendMessage(ctx context.Context, chatID, senderID, content string, attachments []chatmodel.Attachment) (*chatmodel.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errs.ErrArgs.WithDetail("message content is empty")
	}
	for _, a := range attachments {
		if !chatmodel.ValidAttachmentType(a.Type) {
			return nil, errs.ErrArgs.WrapMsg("attachment type", "type", a.Type)
		}
		if strings.TrimSpace(a.URL) == "" {
			return nil, errs.ErrArgs.WithDetail("attachment url is empty")
		}
	}

	l := s.convLock(chatID)
	l.Lock()
	defer l.Unlock()

	c, err := s.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !c.IsParticipant(senderID) {
		return nil, errs.ErrNoPermission.WithDetail("sender is not a participant")
	}

	now := time.Now()
	msg := chatmodel.Message{
		MessageID:   "m_" + ids.GenerateString(),
		Sender:      senderID,
		Content:     content,
		Attachments: attachments,
		ReadBy:      []chatmodel.ReadReceipt{{User: senderID, ReadAt: now}},
		CreatedAt:   now,
	}
	c.Append(msg)

	if err := s.persistMessages(ctx, c, now); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkRead writes a receipt for user on every message that lacks one.
// Idempotent; the second call is a no-op and skips the write entirely.
// Returns the number of messages that gained a receipt.
func (s *Store) MarkRead(ctx context.Context, chatID, userID string) (int, error) {
	l := s.convLock(chatID)
	l.Lock()
	defer l.Unlock()

	c, err := s.load(ctx, chatID)
	if err != nil {
		return 0, err
	}
	if !c.IsParticipant(userID) {
		return 0, errs.ErrNoPermission.WithDetail("not a participant")
	}

	now := time.Now()
	changed := c.ApplyRead(userID, now)
	if changed == 0 {
		return 0, nil
	}
	if err := s.persistMessages(ctx, c, now); err != nil {
		return 0, err
	}
	return changed, nil
}

// EditMessage replaces a message's content, pushing the previous content
// onto its edit history. Sender only. Receipts are left alone: they record
// "seen", not "seen the latest revision".
func (s *Store) EditMessage(ctx context.Context, chatID, messageID, editorID, content string) (*chatmodel.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errs.ErrArgs.WithDetail("message content is empty")
	}

	l := s.convLock(chatID)
	l.Lock()
	defer l.Unlock()

	c, err := s.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !c.IsParticipant(editorID) {
		return nil, errs.ErrNoPermission.WithDetail("not a participant")
	}
	i := c.FindMessage(messageID)
	if i < 0 {
		return nil, errs.ErrNotFound.WrapMsg("message", "message_id", messageID)
	}
	m := &c.Messages[i]
	if m.Sender != editorID {
		return nil, errs.ErrNoPermission.WithDetail("only the sender can edit a message")
	}

	now := time.Now()
	m.EditHistory = append(m.EditHistory, chatmodel.EditRecord{Content: m.Content, EditedAt: now})
	m.Content = content
	m.IsEdited = true

	if err := s.persistMessages(ctx, c, now); err != nil {
		return nil, err
	}
	out := *m
	return &out, nil
}
