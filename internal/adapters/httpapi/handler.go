// Package httpapi exposes rooms and scoring over fasthttp.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/baditaflorin/go_compatibility/internal/core/domain"
	"github.com/baditaflorin/go_compatibility/internal/core/room"
	"github.com/baditaflorin/go_compatibility/internal/ports"
)

// DefaultRequestTimeout bounds the work done for one request.
const DefaultRequestTimeout = 30 * time.Second

// Scorer is what the API needs from the evaluator.
type Scorer interface {
	ports.Evaluator
	Local(a, b domain.AnswerSet) domain.Result
}

// Handler routes API requests.
type Handler struct {
	rooms   *room.Service
	scorer  Scorer
	logger  ports.Logger
	metrics fasthttp.RequestHandler
	newUID  func() string
	timeout time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithGatherer serves the gatherer's metrics on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) {
		h.metrics = fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}
}

// WithUIDGenerator replaces the participant id generator.
func WithUIDGenerator(fn func() string) Option {
	return func(h *Handler) {
		h.newUID = fn
	}
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// NewHandler creates the API handler.
func NewHandler(rooms *room.Service, scorer Scorer, logger ports.Logger, opts ...Option) *Handler {
	h := &Handler{
		rooms:   rooms,
		scorer:  scorer,
		logger:  logger,
		newUID:  uuid.NewString,
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeFastHTTP is the fasthttp request handler.
func (h *Handler) ServeFastHTTP(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	ctx.Response.Header.Set("Server", "CompatibilityServer")

	path := string(ctx.Path())
	switch {
	case path == "/health":
		h.handleHealthCheck(ctx)
	case path == "/metrics" && h.metrics != nil:
		h.metrics(ctx)
	case path == "/session":
		h.handleSession(ctx)
	case path == "/evaluate":
		h.handleEvaluate(ctx)
	case path == "/compatibility":
		h.handleCompatibility(ctx)
	case path == "/rooms":
		h.handleCreateRoom(ctx)
	case strings.HasPrefix(path, "/rooms/"):
		h.handleRoom(ctx, strings.TrimPrefix(path, "/rooms/"))
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		writeJSONError(ctx, h.logger, "Not found")
	}

	h.logger.Info("Request processed",
		"method", string(ctx.Method()),
		"path", path,
		"status", ctx.Response.StatusCode(),
		"ip", ctx.RemoteIP().String(),
		"duration", time.Since(startTime),
	)
}

func (h *Handler) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.timeout)
}

func (h *Handler) handleHealthCheck(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	writeJSONResponse(ctx, h.logger, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleSession(ctx *fasthttp.RequestCtx) {
	if !requirePost(ctx, h.logger) {
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	writeJSONResponse(ctx, h.logger, SessionResponse{UID: h.newUID()})
}

func (h *Handler) handleEvaluate(ctx *fasthttp.RequestCtx) {
	req, ok := decodePair(ctx, h.logger)
	if !ok {
		return
	}

	c, cancel := h.requestContext()
	defer cancel()

	result := h.scorer.Evaluate(c, *req.A, *req.B)
	ctx.SetStatusCode(fasthttp.StatusOK)
	writeJSONResponse(ctx, h.logger, NewResultResponse(result))
}

func (h *Handler) handleCompatibility(ctx *fasthttp.RequestCtx) {
	req, ok := decodePair(ctx, h.logger)
	if !ok {
		return
	}

	result := h.scorer.Local(*req.A, *req.B)
	ctx.SetStatusCode(fasthttp.StatusOK)
	writeJSONResponse(ctx, h.logger, NewResultResponse(result))
}

func (h *Handler) handleCreateRoom(ctx *fasthttp.RequestCtx) {
	if !requirePost(ctx, h.logger) {
		return
	}
	var req CreateRoomRequest
	if !decodeBody(ctx, h.logger, &req) {
		return
	}

	c, cancel := h.requestContext()
	defer cancel()

	r, err := h.rooms.Create(c, req.Name, req.UID)
	if err != nil {
		h.writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusCreated)
	writeJSONResponse(ctx, h.logger, NewRoomResponse(r))
}

// handleRoom serves /rooms/{key}, /rooms/{key}/join and /rooms/{key}/answers.
func (h *Handler) handleRoom(ctx *fasthttp.RequestCtx, rest string) {
	name, action, _ := strings.Cut(strings.Trim(rest, "/"), "/")
	key := room.Key(name)
	if key == "" {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		writeJSONError(ctx, h.logger, "Not found")
		return
	}

	c, cancel := h.requestContext()
	defer cancel()

	switch action {
	case "":
		if !ctx.IsGet() {
			ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
			writeJSONError(ctx, h.logger, "Method not allowed")
			return
		}
		r, err := h.rooms.Get(c, key)
		if err != nil {
			h.writeServiceError(ctx, err)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusOK)
		writeJSONResponse(ctx, h.logger, NewRoomResponse(r))

	case "join":
		if !requirePost(ctx, h.logger) {
			return
		}
		var req JoinRequest
		if !decodeBody(ctx, h.logger, &req) {
			return
		}
		r, err := h.rooms.Join(c, key, req.UID)
		if err != nil {
			h.writeServiceError(ctx, err)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusOK)
		writeJSONResponse(ctx, h.logger, NewRoomResponse(r))

	case "answers":
		if !requirePost(ctx, h.logger) {
			return
		}
		var req SubmitRequest
		if !decodeBody(ctx, h.logger, &req) {
			return
		}
		r, err := h.rooms.Submit(c, key, req.UID, req.AnswerSet)
		if err != nil {
			h.writeServiceError(ctx, err)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusOK)
		writeJSONResponse(ctx, h.logger, NewRoomResponse(r))

	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		writeJSONError(ctx, h.logger, "Not found")
	}
}

func (h *Handler) writeServiceError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, room.ErrNameRequired),
		errors.Is(err, room.ErrUIDRequired),
		errors.Is(err, room.ErrIncompleteAnswers):
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
	case errors.Is(err, room.ErrRoomExists):
		ctx.SetStatusCode(fasthttp.StatusConflict)
	case errors.Is(err, room.ErrRoomNotFound):
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	case errors.Is(err, room.ErrNotParticipant):
		ctx.SetStatusCode(fasthttp.StatusForbidden)
	default:
		h.logger.Error("Room operation failed", "error", err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		writeJSONError(ctx, h.logger, "Internal server error")
		return
	}
	writeJSONError(ctx, h.logger, err.Error())
}

func requirePost(ctx *fasthttp.RequestCtx, logger ports.Logger) bool {
	if ctx.IsPost() {
		return true
	}
	ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
	writeJSONError(ctx, logger, "Method not allowed")
	return false
}

func decodeBody(ctx *fasthttp.RequestCtx, logger ports.Logger, v interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		writeJSONError(ctx, logger, "Invalid request: "+err.Error())
		return false
	}
	return true
}

func decodePair(ctx *fasthttp.RequestCtx, logger ports.Logger) (PairRequest, bool) {
	var req PairRequest
	if !requirePost(ctx, logger) || !decodeBody(ctx, logger, &req) {
		return req, false
	}
	if req.A == nil || req.B == nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		writeJSONError(ctx, logger, "Missing a or b")
		return req, false
	}
	return req, true
}

// writeJSONResponse writes a JSON response to the context.
func writeJSONResponse(ctx *fasthttp.RequestCtx, logger ports.Logger, data interface{}) {
	response, err := json.Marshal(data)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		logger.Error("Error marshaling JSON response", "error", err)
		writeJSONError(ctx, logger, "Internal server error")
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetBody(response)
}

// writeJSONError writes a JSON error response to the context.
func writeJSONError(ctx *fasthttp.RequestCtx, logger ports.Logger, message string) {
	response, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		logger.Error("Error marshaling JSON error response", "error", err)
		ctx.SetBodyString(`{"error":"Internal server error"}`)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetBody(response)
}
