package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tieubaoca/docchat-be/types"
	"go.uber.org/zap"
)

const (
	progressBuffer = 64
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	writeWait      = 10 * time.Second
)

// ProgressPublisher receives upload progress events from FileService.
type ProgressPublisher interface {
	Publish(event types.IngestEvent)
}

type subscriber struct {
	ownerID string
	events  chan types.IngestEvent
}

// ProgressService fans ingestion events out to websocket clients. A client
// only sees the uploads of its own owner.
type ProgressService struct {
	upgrader    websocket.Upgrader
	logger      *zap.Logger
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
}

func NewProgressService(logger *zap.Logger) *ProgressService {
	return &ProgressService{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:      logger,
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Publish never blocks. Subscribers that fall behind lose events.
func (s *ProgressService) Publish(event types.IngestEvent) {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for sub := range s.subscribers {
		if sub.ownerID != event.OwnerID {
			continue
		}
		select {
		case sub.events <- event:
		default:
			s.logger.Warn("dropping progress event for slow subscriber",
				zap.String("owner", sub.ownerID), zap.String("upload_id", event.UploadID))
		}
	}
}

// Subscribe registers a listener for ownerID. The returned func unregisters it.
func (s *ProgressService) Subscribe(ownerID string) (<-chan types.IngestEvent, func()) {
	sub := &subscriber{
		ownerID: ownerID,
		events:  make(chan types.IngestEvent, progressBuffer),
	}
	s.mu.Lock()
	s.subscribers[sub] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return sub.events, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, sub)
			s.mu.Unlock()
		})
	}
}

func (s *ProgressService) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// HandleProgress upgrades the request and streams ownerID's events until the
// client goes away. Clients may send {"type":"ping"} and get a pong back.
func (s *ProgressService) HandleProgress(w http.ResponseWriter, r *http.Request, ownerID string) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(4 * 1024)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe := s.Subscribe(ownerID)
	defer unsubscribe()

	// gorilla allows one concurrent writer; the read loop hands pongs to the writer
	pongs := make(chan struct{}, 1)
	go func() {
		defer cancel()
		for {
			_, p, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debug("websocket read error", zap.Error(err))
				}
				return
			}
			var req types.WebsocketRequest
			if err := json.Unmarshal(p, &req); err != nil || req.Type != types.EventPing {
				continue
			}
			select {
			case pongs <- struct{}{}:
			default:
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(v any) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(v)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			if err := write(event); err != nil {
				return
			}
		case <-pongs:
			if err := write(types.IngestEvent{Type: types.EventPong, Time: time.Now().UTC()}); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
