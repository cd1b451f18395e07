package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gorilla/websocket"

	"helpHub/internal/models"
	"helpHub/internal/realtime"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 25 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// clientFrame is what the client sends over the socket. ack_id, when set,
// is echoed back so the client can correlate the reply.
type clientFrame struct {
	Event string          `json:"event"`
	AckID string          `json:"ack_id,omitempty"`
	Data  json.RawMessage `json:"data"`
}

type sendMessagePayload struct {
	ReceiverID int    `json:"receiver_id"`
	RequestID  int    `json:"request_id"`
	Content    string `json:"content"`
}

// serveWS upgrades the connection and attaches it to the hub. The token
// travels as a query parameter because browser websocket dials cannot set
// an Authorization header.
func (app *application) serveWS(w http.ResponseWriter, r *http.Request) {
	userID, err := app.wsUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.errorLog.Printf("websocket upgrade: %v", err)
		return
	}

	app.hub.Join(userID, conn)
	app.infoLog.Printf("websocket connected: user %d", userID)

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	go app.wsPingLoop(conn)

	app.wsReadLoop(userID, conn)
}

func (app *application) wsUserID(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		return 0, fmt.Errorf("token missing")
	}

	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid || claims.UserID == 0 {
		return 0, fmt.Errorf("invalid token")
	}
	return int(claims.UserID), nil
}

func (app *application) wsPingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
			return
		}
	}
}

func (app *application) wsReadLoop(userID int, conn *websocket.Conn) {
	defer func() {
		app.hub.Leave(conn)
		conn.Close()
		app.infoLog.Printf("websocket disconnected: user %d", userID)
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				app.errorLog.Printf("websocket read: %v", err)
			}
			return
		}

		// a null ack is the only failure signal; error detail stays in the
		// server logs and never crosses the socket
		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			app.hub.Ack(conn, frame.AckID, nil)
			continue
		}

		switch frame.Event {
		case "sendMessage":
			app.wsSendMessage(userID, conn, frame)
		case "markNotificationsRead":
			if err := app.notificationService.MarkRead(context.Background(), userID, nil); err != nil {
				app.errorLog.Printf("websocket markNotificationsRead for user %d: %v", userID, err)
				app.hub.Ack(conn, frame.AckID, nil)
				continue
			}
			app.hub.Ack(conn, frame.AckID, map[string]bool{"read": true})
		default:
			app.hub.Ack(conn, frame.AckID, nil)
		}
	}
}

// wsSendMessage funnels socket sends through the same service path the
// HTTP endpoint uses, so the participant gate holds on both transports.
func (app *application) wsSendMessage(userID int, conn realtime.Conn, frame clientFrame) {
	var payload sendMessagePayload
	if err := json.Unmarshal(frame.Data, &payload); err != nil {
		app.hub.Ack(conn, frame.AckID, nil)
		return
	}

	msg, err := app.messageService.SendMessage(context.Background(), userID, payload.ReceiverID, payload.RequestID, payload.Content)
	if err != nil {
		app.errorLog.Printf("websocket sendMessage from user %d: %v", userID, err)
		app.hub.Ack(conn, frame.AckID, nil)
		return
	}
	app.hub.Ack(conn, frame.AckID, msg)
}
