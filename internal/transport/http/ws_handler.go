package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"classical-quiz-service/internal/app"
	"classical-quiz-service/internal/domain"
	"classical-quiz-service/internal/logger"
	"classical-quiz-service/internal/playback"
	"github.com/gorilla/websocket"
)

// DefaultRevealDelay is how long the answer stays on screen before the next question.
const DefaultRevealDelay = time.Second

// PlaybackFeed publishes media session state changes.
type PlaybackFeed interface {
	Subscribe() (<-chan playback.PlaybackState, func())
}

type WSHandler struct {
	service     *app.GameService
	feed        PlaybackFeed
	revealDelay time.Duration
	log         *logger.Logger
	upgrader    websocket.Upgrader
}

type Option func(*WSHandler)

// WithRevealDelay overrides DefaultRevealDelay.
func WithRevealDelay(d time.Duration) Option {
	return func(h *WSHandler) {
		if d >= 0 {
			h.revealDelay = d
		}
	}
}

// WithPlaybackFeed forwards playback state to clients as "playback" frames.
func WithPlaybackFeed(feed PlaybackFeed) Option {
	return func(h *WSHandler) { h.feed = feed }
}

func NewWSHandler(service *app.GameService, log *logger.Logger, opts ...Option) *WSHandler {
	h := &WSHandler{
		service:     service,
		revealDelay: DefaultRevealDelay,
		log:         log.With("component", "ws_handler"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	ItemID int `json:"itemId"`
}

type controlPayload struct {
	Action playback.Action `json:"action"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// ServeWS upgrades HTTP requests to websockets and drives one game per connection.
// A gameId query parameter resumes a game from its carried-over state.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	var joined app.GameView
	if gameID != "" {
		joined, err = h.service.ResumeGame(ctx, gameID)
	} else {
		joined, err = h.service.StartGame(ctx)
	}
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err.Error()))
		return
	}
	gameID = joined.GameID
	log := h.log.With("game_id", gameID)
	defer h.service.EndGame(context.Background(), gameID)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	var workers sync.WaitGroup

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn("ws write error", "error", err)
				return
			}
		}
	}()

	emit := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-closeSignals:
			return false
		case <-writerDone:
			return false
		}
	}

	if h.feed != nil {
		updates, cancel := h.feed.Subscribe()
		defer cancel()
		workers.Add(1)
		go func() {
			defer workers.Done()
			for {
				select {
				case state, ok := <-updates:
					if !ok {
						return
					}
					if !emit(outboundMessage[any]{Type: "playback", Payload: state}) {
						return
					}
				case <-closeSignals:
					return
				}
			}
		}()
	}

	advance := func() {
		h.service.Advance(ctx, gameID)
		emit(h.nextRound(ctx, gameID))
	}

	emit(outboundMessage[any]{Type: "joined", Payload: joined})
	emit(h.nextRound(ctx, gameID))

	var revealCancel chan struct{}
	stopReveal := func() {
		if revealCancel != nil {
			close(revealCancel)
			revealCancel = nil
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit(errorMessage("invalid answer payload"))
				continue
			}
			result, err := h.service.Answer(ctx, gameID, payload.ItemID)
			if err != nil {
				emit(errorMessage(err.Error()))
				continue
			}
			emit(outboundMessage[any]{Type: "answerResult", Payload: result})
			if result.GameOver {
				emit(outboundMessage[any]{Type: "gameOver", Payload: app.GameView{GameID: gameID, Scores: result.Scores}})
				continue
			}

			stopReveal()
			cancel := make(chan struct{})
			revealCancel = cancel
			workers.Add(1)
			go func() {
				defer workers.Done()
				timer := time.NewTimer(h.revealDelay)
				defer timer.Stop()
				select {
				case <-timer.C:
					advance()
				case <-cancel:
				case <-closeSignals:
				}
			}()
		case "next":
			stopReveal()
			advance()
		case "control":
			var payload controlPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit(errorMessage("invalid control payload"))
				continue
			}
			if err := h.service.Control(ctx, payload.Action); err != nil {
				emit(errorMessage(err.Error()))
			}
		default:
			emit(errorMessage("unsupported message type"))
		}
	}

	close(closeSignals)
	workers.Wait()
	close(send)
	<-writerDone
}

func (h *WSHandler) nextRound(ctx context.Context, gameID string) outboundMessage[any] {
	round, err := h.service.NextQuestion(ctx, gameID)
	if errors.Is(err, domain.ErrGameOver) {
		summary, err := h.service.Summary(ctx, gameID)
		if err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage[any]{Type: "gameOver", Payload: summary}
	}
	if err != nil {
		return errorMessage(err.Error())
	}
	return outboundMessage[any]{Type: "question", Payload: round}
}
