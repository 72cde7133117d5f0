package store

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	chatmodel "EduChat/module/chat/model"
	"EduChat/tools/errs"
)

// UserLookup is the user-existence collaborator: confirm that every id
// resolves to a live account.
type UserLookup interface {
	EnsureExist(ctx context.Context, userIDs []string) error
}

// Store owns all durable chat state. Every mutation of one conversation is
// serialized by a per-conversation mutex; distinct conversations never
// contend. Nothing outside this package writes the chat collection.
type Store struct {
	ChatColl *mongo.Collection
	users    UserLookup

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(db *mongo.Database, users UserLookup) *Store {
	c := chatmodel.Chat{}
	return &Store{
		ChatColl: db.Collection(c.GetTableName()),
		users:    users,
		locks:    make(map[string]*sync.Mutex),
	}
}

// convLock returns the mutex serializing writes to one conversation. Locks
// are never reclaimed; one mutex per live conversation is cheap next to the
// document itself.
func (s *Store) convLock(chatID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[chatID] = l
	}
	return l
}

// load fetches one conversation, active or not.
func (s *Store) load(ctx context.Context, chatID string) (*chatmodel.Chat, error) {
	var c chatmodel.Chat
	err := s.ChatColl.FindOne(ctx, bson.M{"chat_id": chatID}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("chat", "chat_id", chatID)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// persistMessages writes back the message array together with the derived
// aggregates; must be called under the conversation lock.
func (s *Store) persistMessages(ctx context.Context, c *chatmodel.Chat, now time.Time) error {
	c.RecomputeMetadata(now)
	c.UpdateTime = now
	_, err := s.ChatColl.UpdateOne(ctx, bson.M{"chat_id": c.ChatID}, bson.M{"$set": bson.M{
		"messages":     c.Messages,
		"last_message": c.LastMessage,
		"metadata":     c.Metadata,
		"update_time":  c.UpdateTime,
	}})
	return err
}
