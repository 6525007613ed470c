package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/jason-s-yu/friends/internal/middleware"
	"github.com/jason-s-yu/friends/internal/models"
)

const defaultNoticeLimit = 50

// ListNoticesHandler returns the caller's newest notices. ?limit= caps the count.
func (s *Server) ListNoticesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	limit := defaultNoticeLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, 500)
	}
	list, err := s.Notices.ListNotices(r.Context(), userID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Notice{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) MarkNoticeReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	noticeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.Notices.MarkNoticeRead(r.Context(), userID, noticeID, time.Now()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NoticeWSHandler streams the caller's notices as they are stored. The client
// must speak the "notices" subprotocol; anything it sends is ignored.
func (s *Server) NoticeWSHandler(w http.ResponseWriter, r *http.Request) {
	if s.Broadcaster == nil {
		http.Error(w, "live notices are disabled", http.StatusServiceUnavailable)
		return
	}
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{"notices"},
	})
	if err != nil {
		s.Logger.WithError(err).Warn("websocket accept error")
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != "notices" {
		c.Close(BadSubprotocolError, "client must speak the notices subprotocol")
		return
	}

	// CloseRead cancels ctx once the client goes away.
	ctx := c.CloseRead(r.Context())
	sub := s.Broadcaster.Subscribe(ctx, userID)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		c.Close(StreamUnavailable, "notice stream unavailable")
		return
	}

	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, userID.String())
	err = s.pumpNotices(ctx, c, sub.Channel())
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, userID.String(), err)
}

func (s *Server) pumpNotices(ctx context.Context, c *websocket.Conn, ch <-chan *redis.Message) error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "")
			return nil
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, []byte(msg.Payload))
			cancel()
			if err != nil {
				return err
			}
		}
	}
}
