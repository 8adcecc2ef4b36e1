// Package kumatest runs an in-process Uptime Kuma that speaks enough
// Socket.IO over WebSocket for client and CLI tests. Frames are built here
// independently of the kuma package codec.
package kumatest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

const (
	Username = "admin"
	Password = "secret"
)

type Server struct {
	URL string

	t testing.TB

	mu                 sync.Mutex
	omitNotificationID bool
	refuseConnect      bool
	rejectURLs         map[string]string
	nextID             int
	notifications      []map[string]any
	monitors           map[string]map[string]any
	addedMonitors      []map[string]any
	pongs              int
}

var upgrader = websocket.Upgrader{}

// NewServer starts a fake Uptime Kuma accepting Username and Password. It is
// shut down when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		t:          t,
		rejectURLs: map[string]string{},
		nextID:     1,
		monitors:   map[string]map[string]any{},
	}

	r := chi.NewRouter()
	r.Get("/socket.io/", s.serveWS)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	s.URL = srv.URL
	return s
}

// OmitNotificationID drops the id from addNotification acknowledgements.
func (s *Server) OmitNotificationID() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitNotificationID = true
}

// RefuseConnect answers the namespace connect with a connect error.
func (s *Server) RefuseConnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refuseConnect = true
}

// RejectURL makes "add" fail with msg for monitors targeting url.
func (s *Server) RejectURL(url, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectURLs[url] = msg
}

func (s *Server) SeedMonitor(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.monitors[strconv.Itoa(id)] = map[string]any{
		"id":       id,
		"name":     "Seeded",
		"url":      url,
		"type":     "http",
		"interval": 60,
	}
	return id
}

func (s *Server) SeedNotification(name string, cfg map[string]any) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.notifications = append(s.notifications, notificationRow(id, name, cfg))
	return id
}

// AddedMonitors returns the bodies of every "add" call, rejected ones
// included.
func (s *Server) AddedMonitors() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.addedMonitors...)
}

func (s *Server) Notifications() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.notifications...)
}

func (s *Server) Pongs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pongs
}

func notificationRow(id int, name string, cfg map[string]any) map[string]any {
	raw, _ := json.Marshal(cfg) //nolint:errcheck
	return map[string]any{
		"id":        id,
		"name":      name,
		"active":    true,
		"userId":    1,
		"isDefault": false,
		"config":    string(raw),
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("EIO") != "4" || r.URL.Query().Get("transport") != "websocket" {
		http.Error(w, "bad transport", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	send := func(frame string) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(frame)) //nolint:errcheck
	}

	send(`0{"sid":"eio-sid","upgrades":[],"pingInterval":25000,"pingTimeout":20000,"maxPayload":1000000}`)

	_, msg, err := conn.ReadMessage()
	if err != nil || string(msg) != "40" {
		return
	}

	s.mu.Lock()
	refuse := s.refuseConnect
	s.mu.Unlock()
	if refuse {
		send(`44{"message":"Not authorized"}`)
		return
	}
	send(`40{"sid":"sio-sid"}`)
	send("2")

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		switch {
		case string(msg) == "3":
			s.mu.Lock()
			s.pongs++
			s.mu.Unlock()
		case string(msg) == "41":
			return
		case bytes.HasPrefix(msg, []byte("42")):
			id, hasID, args, ok := s.parseEvent(msg[2:])
			if !ok {
				return
			}
			var name string
			if !assert.NoError(s.t, json.Unmarshal(args[0], &name)) {
				return
			}

			ack, pushes := s.handle(name, args[1:])
			for _, push := range pushes {
				send(push)
			}
			if hasID {
				send(s.ackFrame(id, ack))
			}
		}
	}
}

// parseEvent splits `<id>[...]` into the optional ack id and the arguments.
func (s *Server) parseEvent(b []byte) (int, bool, []json.RawMessage, bool) {
	i := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}

	id := -1
	if i > 0 {
		n, err := strconv.Atoi(string(b[:i]))
		if !assert.NoError(s.t, err) {
			return 0, false, nil, false
		}
		id = n
	}

	var args []json.RawMessage
	if !assert.NoError(s.t, json.Unmarshal(b[i:], &args)) || !assert.NotEmpty(s.t, args) {
		return 0, false, nil, false
	}
	return id, i > 0, args, true
}

func (s *Server) handle(name string, args []json.RawMessage) (map[string]any, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case "login":
		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		assert.NoError(s.t, json.Unmarshal(args[0], &creds))
		if creds.Username != Username || creds.Password != Password {
			return map[string]any{"ok": false, "msg": "Incorrect username or password."}, nil
		}
		return map[string]any{"ok": true, "token": "jwt"}, []string{s.notificationList(), s.monitorList()}

	case "addNotification":
		var cfg map[string]any
		assert.NoError(s.t, json.Unmarshal(args[0], &cfg))
		id := s.nextID
		s.nextID++
		name, _ := cfg["name"].(string)
		s.notifications = append(s.notifications, notificationRow(id, name, cfg))

		ack := map[string]any{"ok": true, "msg": "Saved."}
		if !s.omitNotificationID {
			ack["id"] = id
		}
		return ack, []string{s.notificationList()}

	case "add":
		var body map[string]any
		assert.NoError(s.t, json.Unmarshal(args[0], &body))
		s.addedMonitors = append(s.addedMonitors, body)

		url, _ := body["url"].(string)
		if msg, ok := s.rejectURLs[url]; ok {
			return map[string]any{"ok": false, "msg": msg}, nil
		}

		id := s.nextID
		s.nextID++
		stored := make(map[string]any, len(body)+1)
		for k, v := range body {
			stored[k] = v
		}
		stored["id"] = id
		s.monitors[strconv.Itoa(id)] = stored
		return map[string]any{"ok": true, "msg": "Added Successfully.", "monitorID": id}, []string{s.monitorList()}
	}

	return map[string]any{"ok": false, "msg": "unknown event " + name}, nil
}

// notificationList and monitorList must be called with s.mu held.
func (s *Server) notificationList() string {
	rows := s.notifications
	if rows == nil {
		rows = []map[string]any{}
	}
	return s.eventFrame("notificationList", rows)
}

func (s *Server) monitorList() string {
	return s.eventFrame("monitorList", s.monitors)
}

func (s *Server) eventFrame(name string, payload any) string {
	data, err := json.Marshal([]any{name, payload})
	assert.NoError(s.t, err)
	return "42" + string(data)
}

func (s *Server) ackFrame(id int, result any) string {
	data, err := json.Marshal([]any{result})
	assert.NoError(s.t, err)
	return "43" + strconv.Itoa(id) + string(data)
}
