package api

import (
	"context"
	"errors"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
	"github.com/GALIB-Dev/AI-Extension/internal/protocol"
)

// handleWebSocketExplain serves the persistent channel. Requests on one
// connection are handled concurrently; responses carry the request's
// correlation ID and may complete out of order. A single writer goroutine
// owns the connection's write side.
func (s *Server) handleWebSocketExplain(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	s.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("Persistent channel established")

	ctx, cancel := context.WithCancel(c.Request.Context())
	responses := make(chan *protocol.Response, 16)
	var wg sync.WaitGroup

	// Writer goroutine: sole owner of conn writes.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for resp := range responses {
			if err := conn.WriteJSON(resp); err != nil {
				s.logger.Debug().Err(err).Msg("Persistent channel write failed")
				cancel()
				return
			}
		}
	}()

	for {
		var req protocol.Request
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug().Err(err).Msg("Persistent channel read failed")
			}
			break
		}

		if req.Type != protocol.MsgExplainText {
			s.send(ctx, responses, protocol.FromError(req.CorrelationID, analysis.CodeTransport, "unsupported message type"))
			continue
		}

		wg.Add(1)
		go func(req protocol.Request) {
			defer wg.Done()
			s.send(ctx, responses, s.explainEnvelope(ctx, req))
		}(req)
	}

	cancel()
	wg.Wait()
	close(responses)
	<-writerDone

	if err := conn.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to close WebSocket connection")
	}
	s.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("Persistent channel closed")
}

// explainEnvelope runs one envelope through the orchestrator and wraps
// the outcome.
func (s *Server) explainEnvelope(ctx context.Context, req protocol.Request) *protocol.Response {
	result, err := s.orchestrator.Explain(ctx, analysis.Request{
		Text:          req.Payload.Text,
		PageContext:   req.Payload.PageContext,
		CorrelationID: req.CorrelationID,
		Options:       req.Payload.Options,
	})
	if err != nil {
		var analysisErr *analysis.Error
		if errors.As(err, &analysisErr) {
			return protocol.FromError(req.CorrelationID, analysisErr.Code, analysisErr.Message)
		}
		return protocol.FromError(req.CorrelationID, analysis.CodeProvider, "analysis failed")
	}
	return protocol.FromResult(req.CorrelationID, result)
}

// send delivers a response unless the connection is already going away.
func (s *Server) send(ctx context.Context, responses chan<- *protocol.Response, resp *protocol.Response) {
	select {
	case responses <- resp:
	case <-ctx.Done():
	}
}
