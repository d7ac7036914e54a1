package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/microstitch/core/api/handlers"
	"github.com/microstitch/core/api/job"
	"github.com/microstitch/core/core/jwtparser"
)

// Runs the whole handshake against a live socket: /ws-connect for a token,
// upgrade with the token as a query param, then a job update broadcast
// arriving at the client
func Test_socketJobUpdatePush(t *testing.T) {
	ws, svcs := makeTestWSHandler([]int64{1234567890})

	ws.melody.HandleConnect(ws.HandleConnect)
	ws.melody.HandleDisconnect(ws.HandleDisconnect)
	ws.melody.HandleMessage(ws.HandleMessage)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.HandleSocketCreation(handlers.ApiHandlerGenericPublicParams{
			Svcs:    svcs,
			Writer:  w,
			Request: r,
		})
	}))
	defer srv.Close()

	user := jwtparser.JWTUserInfo{Name: "Niko Bellic", UserID: "600f2a0806b6c70071d3d174"}
	token := beginConnection(t, ws, svcs, user)

	wsUrl := url.URL{Scheme: "ws", Host: strings.TrimPrefix(srv.URL, "http://"), RawQuery: "token=" + token}
	conn, resp, err := websocket.DefaultDialer.Dial(wsUrl.String(), nil)
	if err != nil {
		t.Fatalf("WS connection failed: %v", err)
	}
	defer resp.Body.Close()
	defer conn.Close()

	// The session registers on the server a moment after the dial returns
	deadline := time.Now().Add(5 * time.Second)
	for ws.melody.Len() < 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Session never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	notifier := WSJobNotifier{Melody: ws.melody, Log: svcs.Log}
	notifier.NotifyJobUpdate(&job.JobStatus{
		JobID:  "stitch-00123",
		Status: job.StatusComplete,
	})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read job update: %v", err)
	}

	var pushed jobUpdateMessage
	if err := json.Unmarshal(msg, &pushed); err != nil {
		t.Fatalf("Failed to decode job update: %v", err)
	}
	if pushed.JobUpdate == nil {
		t.Fatalf("Job update missing from pushed message: %v", string(msg))
	}
	if pushed.JobUpdate.JobID != "stitch-00123" || pushed.JobUpdate.Status != job.StatusComplete {
		t.Errorf("Pushed wrong job update: %+v", pushed.JobUpdate)
	}
}

// A bad token has to close the socket straight away, not leave a session up
func Test_socketRejectsBadToken(t *testing.T) {
	ws, svcs := makeTestWSHandler([]int64{1234567890})

	ws.melody.HandleConnect(ws.HandleConnect)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.HandleSocketCreation(handlers.ApiHandlerGenericPublicParams{
			Svcs:    svcs,
			Writer:  w,
			Request: r,
		})
	}))
	defer srv.Close()

	wsUrl := url.URL{Scheme: "ws", Host: strings.TrimPrefix(srv.URL, "http://"), RawQuery: "token=never-issued"}
	conn, resp, err := websocket.DefaultDialer.Dial(wsUrl.String(), nil)
	if err != nil {
		t.Fatalf("WS connection failed: %v", err)
	}
	defer resp.Body.Close()
	defer conn.Close()

	// The upgrade itself succeeds, the rejection arrives as an immediate close
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected connection to be closed")
	}
	if strings.Contains(err.Error(), "timeout") {
		t.Errorf("Connection was left open: %v", err)
	}
}
