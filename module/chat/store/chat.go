package store

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	chatmodel "EduChat/module/chat/model"
	"EduChat/tools/errs"
	"EduChat/tools/ids"
)

// CreateConversation builds a new conversation. The creator is always a
// participant and the sole admin; a group requires a name; a private
// conversation has exactly two members.
func (s *Store) CreateConversation(ctx context.Context, kind string, participantIDs []string, creatorID, groupName string) (*chatmodel.Chat, error) {
	if kind != chatmodel.KindPrivate && kind != chatmodel.KindGroup {
		return nil, errs.ErrArgs.WithDetail("kind must be private or group")
	}
	groupName = strings.TrimSpace(groupName)
	if kind == chatmodel.KindGroup && groupName == "" {
		return nil, errs.ErrArgs.WithDetail("group name is required")
	}
	if kind == chatmodel.KindPrivate && groupName != "" {
		return nil, errs.ErrArgs.WithDetail("private chat cannot carry a group name")
	}

	participants := unionWith(participantIDs, creatorID)
	if len(participants) < 2 {
		return nil, errs.ErrArgs.WithDetail("participants must include someone besides the creator")
	}
	if kind == chatmodel.KindPrivate && len(participants) != 2 {
		return nil, errs.ErrArgs.WithDetail("private chat has exactly two participants")
	}
	if err := s.users.EnsureExist(ctx, participants); err != nil {
		return nil, err
	}

	now := time.Now()
	c := &chatmodel.Chat{
		ChatID:       "c_" + ids.GenerateString(),
		Kind:         kind,
		Participants: participants,
		Admins:       []string{creatorID},
		Messages:     []chatmodel.Message{},
		IsActive:     true,
		Metadata:     chatmodel.Metadata{TotalMessages: 0, LastActivity: now},
		CreateTime:   now,
		UpdateTime:   now,
	}
	if kind == chatmodel.KindGroup {
		c.GroupName = groupName
		c.GroupAvatar = chatmodel.DefaultGroupAvatar
	}

	if _, err := s.ChatColl.InsertOne(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID returns the conversation whether or not it is active; soft delete
// hides it from listings only.
func (s *Store) GetByID(ctx context.Context, chatID string) (*chatmodel.Chat, error) {
	return s.load(ctx, chatID)
}

// ListForUser returns the user's active conversations, most recent activity
// first. Only the tail message is projected in, and it is lifted into
// LastMessageInfo so list views carry a preview without the full history.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]*chatmodel.Chat, error) {
	cur, err := s.ChatColl.Find(ctx,
		bson.M{"participants": userID, "is_active": true},
		options.Find().
			SetSort(bson.D{{Key: "metadata.last_activity", Value: -1}}).
			SetProjection(bson.M{"messages": bson.M{"$slice": -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []*chatmodel.Chat
	for cur.Next(ctx) {
		var c chatmodel.Chat
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		liftLastMessage(&c)
		out = append(out, &c)
	}
	return out, cur.Err()
}

// liftLastMessage moves the projected tail message into the preview field,
// leaving the list document message-free.
func liftLastMessage(c *chatmodel.Chat) {
	if n := len(c.Messages); n > 0 {
		m := c.Messages[n-1]
		c.LastMessageInfo = &m
		c.Messages = nil
	}
}

// UpdateGroupMetadata renames the group and/or replaces its participant
// set. Admin only, groups only; a private conversation's shape is fixed at
// creation. A supplied participant set fully replaces the old one; admins
// are intersected with it so admins stay a subset of participants.
func (s *Store) UpdateGroupMetadata(ctx context.Context, chatID, actorID string, groupName string, participants []string) (*chatmodel.Chat, error) {
	l := s.convLock(chatID)
	l.Lock()
	defer l.Unlock()

	c, err := s.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	set, err := applyGroupUpdate(c, actorID, groupName, participants)
	if err != nil {
		return nil, err
	}
	if _, changed := set["participants"]; changed {
		if err := s.users.EnsureExist(ctx, c.Participants); err != nil {
			return nil, err
		}
	}
	if len(set) == 0 {
		return c, nil
	}

	now := time.Now()
	c.UpdateTime = now
	set["update_time"] = now
	if _, err := s.ChatColl.UpdateOne(ctx, bson.M{"chat_id": chatID}, bson.M{"$set": set}); err != nil {
		return nil, err
	}
	return c, nil
}

// SoftDelete flips is_active off. Group: admin only. Private: either
// participant. The record itself is never purged here.
func (s *Store) SoftDelete(ctx context.Context, chatID, actorID string) error {
	l := s.convLock(chatID)
	l.Lock()
	defer l.Unlock()

	c, err := s.load(ctx, chatID)
	if err != nil {
		return err
	}
	if c.Kind == chatmodel.KindGroup {
		if !c.IsAdmin(actorID) {
			return errs.ErrNoPermission.WithDetail("only admins can delete a group chat")
		}
	} else if !c.IsParticipant(actorID) {
		return errs.ErrNoPermission.WithDetail("not a participant")
	}

	_, err = s.ChatColl.UpdateOne(ctx, bson.M{"chat_id": chatID}, bson.M{"$set": bson.M{
		"is_active":   false,
		"update_time": time.Now(),
	}})
	return err
}

// Stats computes the aggregate view for one conversation.
func (s *Store) Stats(ctx context.Context, chatID string) (*chatmodel.Stats, error) {
	c, err := s.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	st := c.StatsFor(time.Now())
	return &st, nil
}

// applyGroupUpdate validates the patch against the loaded conversation and
// mutates it in memory, returning the fields to persist. Group shape is
// group-only territory: a private conversation keeps its two participants
// for life, the same rule CreateConversation enforces.
func applyGroupUpdate(c *chatmodel.Chat, actorID, groupName string, participants []string) (bson.M, error) {
	if !c.IsAdmin(actorID) {
		return nil, errs.ErrNoPermission.WithDetail("only admins can update the group")
	}
	set := bson.M{}
	if groupName = strings.TrimSpace(groupName); groupName != "" {
		if c.Kind != chatmodel.KindGroup {
			return nil, errs.ErrArgs.WithDetail("private chat cannot carry a group name")
		}
		c.GroupName = groupName
		set["group_name"] = groupName
	}
	if participants != nil {
		if c.Kind != chatmodel.KindGroup {
			return nil, errs.ErrArgs.WithDetail("private chat participants cannot be changed")
		}
		next := unionWith(participants, actorID)
		c.Participants = next
		c.Admins = intersect(c.Admins, next)
		set["participants"] = c.Participants
		set["admins"] = c.Admins
	}
	return set, nil
}

// unionWith dedups ids and guarantees must is a member.
func unionWith(idList []string, must string) []string {
	seen := make(map[string]struct{}, len(idList)+1)
	out := make([]string, 0, len(idList)+1)
	for _, id := range idList {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if _, ok := seen[must]; !ok {
		out = append(out, must)
	}
	return out
}

func intersect(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}
	out := make([]string, 0, len(a))
	for _, id := range a {
		if _, ok := inB[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
