package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ka2n/sitelens/log"
	"github.com/ka2n/sitelens/state"
	"github.com/ka2n/sitelens/view"
)

var upgrader = websocket.Upgrader{}

// Region names used on the wire
const (
	RegionSiteData     = "site-data"
	RegionRelatedLinks = "related-links"
)

// Region operations used on the wire
const (
	OpClear  = "clear"
	OpAppend = "append"
	OpError  = "error"
)

// clientMessage is sent by the page
type clientMessage struct {
	Type   string `json:"type"` // "search"
	Domain string `json:"domain"`
}

// RegionUpdate is sent to the page
type RegionUpdate struct {
	Region string `json:"region"`
	Op     string `json:"op"`
	HTML   string `json:"html,omitempty"`
}

const (
	// writeWait bounds a single write to the page
	writeWait = 10 * time.Second
	// sendQueue is how many region updates may wait for the writer
	sendQueue = 64
)

// session owns the connection's write side. Region updates are queued and
// written by writeLoop, so store handlers never wait on the network for
// longer than one write deadline.
type session struct {
	id   string
	conn *websocket.Conn
	out  chan RegionUpdate
	done chan struct{}
}

func newSession(conn *websocket.Conn) *session {
	return &session{
		id:   uuid.NewString(),
		conn: conn,
		out:  make(chan RegionUpdate, sendQueue),
		done: make(chan struct{}),
	}
}

// send queues u. Updates are dropped once the writer has stopped.
func (s *session) send(u RegionUpdate) {
	select {
	case s.out <- u:
	case <-s.done:
	}
}

// writeLoop writes queued updates in order until stop is closed or a write
// fails. A failed write closes the connection, which ends the read loop.
func (s *session) writeLoop(stop <-chan struct{}) {
	defer close(s.done)
	for {
		select {
		case u := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(u); err != nil {
				log.Debug("Session write failed", "session", s.id, "error", err)
				s.conn.Close()
				return
			}
		case <-stop:
			return
		}
	}
}

// socketRegion forwards region operations to the page
type socketRegion struct {
	session *session
	name    string
}

func (r *socketRegion) Clear() {
	r.session.send(RegionUpdate{Region: r.name, Op: OpClear})
}

func (r *socketRegion) Append(fragment string) {
	r.session.send(RegionUpdate{Region: r.name, Op: OpAppend, HTML: fragment})
}

func (r *socketRegion) Fail(fragment string) {
	r.session.send(RegionUpdate{Region: r.name, Op: OpError, HTML: fragment})
}

// handleSession runs one page session for the lifetime of the connection
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess := newSession(conn)
	logger := log.Logger.With("session", sess.id)
	logger.Debug("Session started")

	stop := make(chan struct{})
	go sess.writeLoop(stop)
	defer func() {
		close(stop)
		<-sess.done
	}()

	ctx, cancel := context.WithCancel(r.Context())
	store := state.New(s.widget.Fetcher)
	page := view.NewPage(ctx, store, s.widget.Templates,
		&socketRegion{session: sess, name: RegionSiteData},
		&socketRegion{session: sess, name: RegionRelatedLinks},
	)
	defer page.Close()
	defer page.Wait()
	defer cancel()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Session read failed", "error", err)
			}
			logger.Debug("Session ended")
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Debug("Invalid session message", "error", err)
			continue
		}

		switch msg.Type {
		case "search":
			logger.Debug("Search submitted", "domain", msg.Domain)
			page.Input.Submit(msg.Domain)
		default:
			logger.Debug("Unknown message type", "type", msg.Type)
		}
	}
}
