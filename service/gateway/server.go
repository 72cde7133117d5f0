package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"EduChat/logger"
	midsec "EduChat/middleware/security"
	"EduChat/service/natsx"
	"EduChat/service/storage"
)

const (
	subjectRoomPrefix = "educhat.room." // + chat_id
	subjectPresence   = "educhat.presence"

	presenceTTL = 5 * time.Minute
)

type Config struct {
	NodeID        string
	SendQueueSize int
	FanoutWorkers int
	FanoutQueue   int
}

func (c *Config) norm() {
	if c.NodeID == "" {
		c.NodeID = "gw-1"
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 256
	}
	if c.FanoutWorkers <= 0 {
		c.FanoutWorkers = 4
	}
	if c.FanoutQueue <= 0 {
		c.FanoutQueue = 1024
	}
}

// Server is the realtime gateway: it owns the connection registry and the
// fan-out pool, and optionally bridges room/presence traffic across nodes
// over NATS. It relays events; it is never the source of truth for message
// content.
type Server struct {
	conf     Config
	reg      *Registry
	disp     *Dispatcher
	fanout   *Fanout
	resolver midsec.PrincipalResolver

	relay *natsx.Client // nil in single-node deployments
	subs  []*nats.Subscription
}

func NewServer(conf Config, resolver midsec.PrincipalResolver, relay *natsx.Client) *Server {
	conf.norm()
	s := &Server{
		conf:     conf,
		reg:      NewRegistry(),
		disp:     NewDispatcher(),
		fanout:   NewFanout(conf.FanoutWorkers, conf.FanoutQueue),
		resolver: resolver,
		relay:    relay,
	}
	registerHandlers(s.disp)
	return s
}

func (s *Server) Registry() *Registry { return s.reg }
func (s *Server) NodeID() string      { return s.conf.NodeID }

// relayEnvelope crosses nodes; Origin lets every node skip its own frames.
type relayEnvelope struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room,omitempty"`
	Frame  json.RawMessage `json:"frame"`
}

// Start subscribes to the relay subjects. No-op without NATS.
func (s *Server) Start() error {
	if s.relay == nil {
		return nil
	}
	roomSub, err := s.relay.Subscribe(subjectRoomPrefix+">", func(_ string, data []byte) {
		s.onRelayed(data, true)
	})
	if err != nil {
		return err
	}
	presSub, err := s.relay.Subscribe(subjectPresence, func(_ string, data []byte) {
		s.onRelayed(data, false)
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, roomSub, presSub)
	return nil
}

func (s *Server) onRelayed(data []byte, room bool) {
	var env relayEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		logger.Warnf("[gateway] bad relay envelope: %v", err)
		return
	}
	if env.Origin == s.conf.NodeID {
		return
	}
	if room {
		s.fanout.Broadcast(s.reg.RoomClients(env.Room, ""), env.Frame)
	} else {
		s.fanout.Broadcast(s.reg.AllClients(), env.Frame)
	}
}

func (s *Server) publishRelay(subject, room string, frame []byte) {
	if s.relay == nil || frame == nil {
		return
	}
	env, _ := json.Marshal(relayEnvelope{Origin: s.conf.NodeID, Room: room, Frame: frame})
	if err := s.relay.Publish(subject, env); err != nil {
		// best effort: local delivery already happened
		logger.Warnf("[gateway] relay publish failed subject=%s err=%v", subject, err)
	}
}

// RelayRoom sends an event to every connection in the room except
// excludeConnID, then forwards it to other nodes.
func (s *Server) RelayRoom(room, excludeConnID, event string, data any) {
	frame := BuildEvent(event, data)
	s.fanout.Broadcast(s.reg.RoomClients(room, excludeConnID), frame)
	s.publishRelay(subjectRoomPrefix+room, room, frame)
}

// BroadcastRoom sends to the whole room, sender's devices included.
func (s *Server) BroadcastRoom(room, event string, data any) {
	s.RelayRoom(room, "", event, data)
}

// PresenceChanged broadcasts a presence transition to every connection on
// every node.
func (s *Server) PresenceChanged(userID, status string) {
	frame := BuildEvent(EvtPresenceUpdate, PresenceEvent{UserID: userID, Status: status})
	s.fanout.Broadcast(s.reg.AllClients(), frame)
	s.publishRelay(subjectPresence, "", frame)
}

// NotifyNewMessage implements the Chat Service's notifier: called strictly
// after the store confirms persistence.
func (s *Server) NotifyNewMessage(chatID string, message any) {
	s.BroadcastRoom(chatID, EvtNewMessage, map[string]any{"chat": chatID, "message": message})
}

// NotifyMessageEdited mirrors NotifyNewMessage for edits.
func (s *Server) NotifyMessageEdited(chatID string, message any) {
	s.BroadcastRoom(chatID, EvtMessageEdited, map[string]any{"chat": chatID, "message": message})
}

// onDisconnect tears down one connection: registry removal, presence
// bookkeeping on the user's last connection, room memberships dropped.
func (s *Server) onDisconnect(c *Client) {
	last := s.reg.Remove(c)
	c.Close()
	if last {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := storage.PresenceOffline(ctx, c.UserID); err != nil {
			logger.Warnf("[gateway] presence offline user=%s err=%v", c.UserID, err)
		}
		s.PresenceChanged(c.UserID, "offline")
	}
	logger.Infof("[gateway] disconnected conn=%s user=%s last=%v", c.ConnID, c.UserID, last)
}

// Close tears the gateway down: presence offline for every connected user,
// registry cleared, fanout drained.
func (s *Server) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, c := range s.reg.AllClients() {
		_ = storage.PresenceOffline(ctx, c.UserID)
	}
	s.reg.Close()
	s.fanout.Close()
}
