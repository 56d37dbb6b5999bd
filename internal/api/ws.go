package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/victornm/etrivia/internal/errors"
	"github.com/victornm/etrivia/internal/game"
)

const (
	writeWait = 10 * time.Second

	messageView  = "view"
	messageError = "error"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// StreamGame upgrades to a websocket that pushes every view of the game and
// accepts the same commands as the REST endpoints: start, answer, next, home.
func (a *API) StreamGame(c *gin.Context) {
	g, ok := a.game(c)
	if !ok {
		return
	}

	conn, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "api: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	views, cancel := g.Subscribe()
	defer cancel()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	viewsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				slog.DebugContext(ctx, "api: websocket write failed", "error", err)
				// Unblocks the read loop.
				_ = conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(viewsDone)
		for {
			select {
			case v, ok := <-views:
				if !ok {
					// Game removed.
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game closed"),
						time.Now().Add(writeWait))
					return
				}
				if !enqueue(send, outboundMessage{Type: messageView, Payload: v}, closeSignals, writerDone) {
					return
				}
			case <-closeSignals:
				return
			case <-writerDone:
				return
			}
		}
	}()

	for {
		var in inboundMessage
		if err := conn.ReadJSON(&in); err != nil {
			break
		}

		// Views reach the client through the subscription, only errors are
		// sent back directly.
		if err := handleCommand(ctx, g, in); err != nil {
			if !enqueue(send, outboundMessage{Type: messageError, Payload: errors.Convert(err)}, closeSignals, writerDone) {
				break
			}
		}
	}

	close(closeSignals)
	<-viewsDone
	close(send)
	<-writerDone
}

// enqueue hands msg to the writer. It reports false once the connection is
// closing or the writer has stopped.
func enqueue(send chan<- outboundMessage, msg outboundMessage, closeSignals, writerDone <-chan struct{}) bool {
	select {
	case send <- msg:
		return true
	case <-closeSignals:
		return false
	case <-writerDone:
		return false
	}
}

func handleCommand(ctx context.Context, g *game.Controller, in inboundMessage) error {
	switch in.Type {
	case "start":
		var req StartGameRequest
		if err := decodePayload(in.Payload, &req); err != nil {
			return err
		}
		_, err := g.Start(ctx, req.Name, req.settings())
		return err
	case "answer":
		var req SubmitAnswerRequest
		if err := decodePayload(in.Payload, &req); err != nil {
			return err
		}
		_, err := submit(ctx, g, req)
		return err
	case "next":
		_, err := g.Next(ctx)
		return err
	case "home":
		_, err := g.Home(ctx)
		return err
	default:
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unsupported message type %q", in.Type))
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid payload"),
			errors.WithCause(err),
		)
	}
	return nil
}
