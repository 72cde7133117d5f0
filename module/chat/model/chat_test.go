package model

import (
	"math"
	"testing"
	"time"
)

func sampleGroup() *Chat {
	now := time.Now()
	return &Chat{
		ChatID:       "c_1",
		Kind:         KindGroup,
		GroupName:    "algorithms-101",
		Participants: []string{"a", "b", "c"},
		Admins:       []string{"a"},
		IsActive:     true,
		CreateTime:   now.Add(-48 * time.Hour),
	}
}

func TestCapabilityChecks(t *testing.T) {
	c := sampleGroup()
	if !c.IsParticipant("b") {
		t.Error("b should be a participant")
	}
	if c.IsParticipant("z") {
		t.Error("z should not be a participant")
	}
	if !c.IsAdmin("a") {
		t.Error("creator should be admin")
	}
	if c.IsAdmin("c") {
		t.Error("c should not be admin")
	}
}

func TestApplyReadIdempotent(t *testing.T) {
	c := sampleGroup()
	now := time.Now()
	c.Messages = []Message{
		{MessageID: "m1", Sender: "a", Content: "hello", ReadBy: []ReadReceipt{{User: "a", ReadAt: now}}},
		{MessageID: "m2", Sender: "b", Content: "hi", ReadBy: []ReadReceipt{{User: "b", ReadAt: now}}},
	}

	if got := c.ApplyRead("c", now); got != 2 {
		t.Fatalf("first ApplyRead changed %d, want 2", got)
	}
	if got := c.ApplyRead("c", now.Add(time.Minute)); got != 0 {
		t.Fatalf("second ApplyRead changed %d, want 0", got)
	}
	for _, m := range c.Messages {
		n := 0
		for _, r := range m.ReadBy {
			if r.User == "c" {
				n++
			}
		}
		if n != 1 {
			t.Fatalf("message %s has %d receipts for c, want 1", m.MessageID, n)
		}
	}
	// sender keeps exactly one implicit receipt
	if got := c.ApplyRead("a", now); got != 1 {
		t.Fatalf("a should gain a receipt only on m2, changed %d", got)
	}
}

func TestRecomputeMetadata(t *testing.T) {
	c := sampleGroup()
	now := time.Now()
	c.Messages = append(c.Messages, Message{MessageID: "m1"}, Message{MessageID: "m2"}, Message{MessageID: "m3"})
	c.RecomputeMetadata(now)
	if c.Metadata.TotalMessages != 3 {
		t.Fatalf("TotalMessages = %d, want 3", c.Metadata.TotalMessages)
	}
	if !c.Metadata.LastActivity.Equal(now) {
		t.Fatalf("LastActivity = %v, want %v", c.Metadata.LastActivity, now)
	}
}

func TestStatsForAgedConversation(t *testing.T) {
	c := sampleGroup() // created 48h ago
	c.Metadata.TotalMessages = 10
	s := c.StatsFor(time.Now())
	if s.ParticipantsCount != 3 {
		t.Fatalf("ParticipantsCount = %d, want 3", s.ParticipantsCount)
	}
	if math.Abs(s.MessagesPerDay-5.0) > 0.01 {
		t.Fatalf("MessagesPerDay = %f, want ~5.0", s.MessagesPerDay)
	}
	if s.ActiveTime < 47*60*60*1000 {
		t.Fatalf("ActiveTime = %d ms, too small", s.ActiveTime)
	}
}

func TestStatsForBrandNewConversationIsFinite(t *testing.T) {
	now := time.Now()
	c := &Chat{ChatID: "c_2", Kind: KindPrivate, Participants: []string{"a", "b"}, CreateTime: now.Add(-time.Minute)}
	c.Metadata.TotalMessages = 6
	s := c.StatsFor(now)
	// denominator floored at one hour: at most 24x count per day
	if s.MessagesPerDay > 6*24+0.01 {
		t.Fatalf("MessagesPerDay = %f, epsilon guard missing", s.MessagesPerDay)
	}
	if s.MessagesPerDay <= 0 {
		t.Fatalf("MessagesPerDay = %f, want > 0", s.MessagesPerDay)
	}
}

func TestFindMessage(t *testing.T) {
	c := sampleGroup()
	c.Messages = []Message{{MessageID: "m1"}, {MessageID: "m2"}}
	if i := c.FindMessage("m2"); i != 1 {
		t.Fatalf("FindMessage(m2) = %d, want 1", i)
	}
	if i := c.FindMessage("nope"); i != -1 {
		t.Fatalf("FindMessage(nope) = %d, want -1", i)
	}
}

func TestValidAttachmentType(t *testing.T) {
	for _, ok := range []string{AttachmentImage, AttachmentDocument, AttachmentLink} {
		if !ValidAttachmentType(ok) {
			t.Errorf("%s should be valid", ok)
		}
	}
	if ValidAttachmentType("video") {
		t.Error("video is not a supported attachment type")
	}
}

func TestAppendKeepsSendOrder(t *testing.T) {
	c := sampleGroup()
	now := time.Now()
	ids := []string{"m_1", "m_2", "m_3", "m_4", "m_5"}
	for i, id := range ids {
		c.Append(Message{MessageID: id, Sender: "a", Content: id, CreatedAt: now.Add(time.Duration(i) * time.Second)})
	}

	if len(c.Messages) != len(ids) {
		t.Fatalf("len = %d, want %d", len(c.Messages), len(ids))
	}
	for i, id := range ids {
		if c.Messages[i].MessageID != id {
			t.Fatalf("position %d holds %s, want %s", i, c.Messages[i].MessageID, id)
		}
	}
	if c.LastMessage != "m_5" {
		t.Fatalf("lastMessage = %q, want m_5", c.LastMessage)
	}

	c.RecomputeMetadata(now)
	if c.Metadata.TotalMessages != len(ids) {
		t.Fatalf("totalMessages = %d, want %d", c.Metadata.TotalMessages, len(ids))
	}
}
