package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"pyq-analyzer/internal/app"
	"pyq-analyzer/internal/domain"
)

// WSHandler streams analysis runs over a websocket: clients send a "run"
// message and receive per-year "progress" snapshots followed by the final
// "report" payload.
type WSHandler struct {
	analyzer *app.Analyzer
	subject  string
	years    []int
	upgrader websocket.Upgrader
}

func NewWSHandler(analyzer *app.Analyzer, subject string, years []int) *WSHandler {
	return &WSHandler{
		analyzer: analyzer,
		subject:  subject,
		years:    years,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type readyPayload struct {
	Subject string `json:"subject"`
	Years   []int  `json:"years"`
}

// ServeWS upgrades the request and wires the connection into analysis runs.
// A single writer goroutine owns the connection; run goroutines hand their
// messages over the send channel and bail out on closeSignals.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancelRuns := context.WithCancel(r.Context())
	defer cancelRuns()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	trySend := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-closeSignals:
			return false
		}
	}

	send <- outboundMessage[any]{Type: "ready", Payload: readyPayload{Subject: h.subject, Years: h.years}}

	var runs sync.WaitGroup
	var mu sync.Mutex
	active := false

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "run":
			mu.Lock()
			if active {
				mu.Unlock()
				trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "run already in progress"}})
				continue
			}
			active = true
			mu.Unlock()

			runs.Add(1)
			go func() {
				defer runs.Done()
				defer func() {
					mu.Lock()
					active = false
					mu.Unlock()
				}()
				h.runOnce(ctx, trySend, closeSignals)
			}()
		default:
			trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	// Disconnect aborts any in-flight run; an aborted run writes no report.
	cancelRuns()
	close(closeSignals)
	runs.Wait()
	close(send)
	<-writerDone
}

func (h *WSHandler) runOnce(ctx context.Context, trySend func(outboundMessage[any]) bool, closeSignals <-chan struct{}) {
	run := app.NewRun(h.subject, h.years)
	updates, cancelSub := run.Subscribe()
	defer cancelSub()

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		for {
			select {
			case progress, ok := <-updates:
				if !ok {
					return
				}
				if !trySend(outboundMessage[any]{Type: "progress", Payload: progress}) {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	report, err := h.analyzer.Analyze(ctx, run)
	cancelSub()
	<-forwardDone

	if err != nil {
		trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	trySend(outboundMessage[any]{Type: "report", Payload: report})
}

// ReportLoader loads the most recently archived report for a subject.
type ReportLoader interface {
	LoadLatest(ctx context.Context, subjectCode string) (domain.PatternReport, error)
}
