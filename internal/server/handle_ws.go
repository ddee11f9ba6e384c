package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/demovote/internal/booth"
)

// wsCommand is what a booth client sends over the socket.
type wsCommand struct {
	Type   string `json:"type"`
	Row    int    `json:"row,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// wsReply answers a command directly; events arrive separately.
type wsReply struct {
	Type     string          `json:"type"`
	Error    string          `json:"error,omitempty"`
	Outcome  *booth.Outcome  `json:"outcome,omitempty"`
	Snapshot *booth.Snapshot `json:"snapshot,omitempty"`
}

func handleBoothWS(logger *slog.Logger, booths *booth.Manager, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := booths.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
		defer cancel()

		ch := broker.Subscribe(sess.ID())
		defer broker.Unsubscribe(sess.ID(), ch)

		snap := sess.Snapshot()
		if err := wsjson.Write(ctx, conn, wsReply{Type: "snapshot", Snapshot: &snap}); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			for {
				var cmd wsCommand
				if err := wsjson.Read(ctx, conn, &cmd); err != nil {
					return err
				}
				if err := wsjson.Write(ctx, conn, applyCommand(sess, cmd)); err != nil {
					return err
				}
			}
		})
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case data := <-ch:
					if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
						return err
					}
				}
			}
		})

		err = g.Wait()
		if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}
		logger.Debug("booth websocket ended", "session", sess.ID(), "error", err)
	}
}

func applyCommand(sess *booth.Session, cmd wsCommand) wsReply {
	switch cmd.Type {
	case "press":
		out, err := sess.Press(cmd.Row)
		if err != nil {
			return wsReply{Type: "error", Error: err.Error()}
		}
		return wsReply{Type: "pressed", Outcome: &out}
	case "flip":
		snap, _ := sess.Flip()
		return wsReply{Type: "ack", Snapshot: &snap}
	case "close":
		reason, ok := booth.ParseCloseReason(cmd.Reason)
		if !ok {
			return wsReply{Type: "error", Error: "unknown close reason"}
		}
		snap, _ := sess.Close(reason)
		return wsReply{Type: "ack", Snapshot: &snap}
	}
	return wsReply{Type: "error", Error: "unknown command " + cmd.Type}
}
