// Package server is a small REST backend for the pull variant of the
// client. It speaks the same contract the rest adapter expects and also
// pushes full snapshots over a websocket so the REST backend can drive
// the push variant.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/store"
	"github.com/idilsaglam/todo/internal/store/jsonstore"
)

// record is the wire shape of an item. The identifier travels as _id.
type record struct {
	ID        string `json:"_id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	CreatedAt int64  `json:"createdAt"`
}

type snapshotMessage struct {
	Items []record `json:"items"`
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

type Server struct {
	store *jsonstore.Store
	hub   *hub
	log   *slog.Logger
}

func New(st *jsonstore.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{store: st, hub: newHub(log), log: log}
}

// Close drops every websocket client.
func (s *Server) Close() { s.hub.close() }

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) listTodos(ctx *gin.Context) {
	items, err := s.store.List()
	if err != nil {
		s.fail(ctx, err, "failed to load todos")
		return
	}
	ctx.JSON(http.StatusOK, toRecords(items))
}

func (s *Server) createTodo(ctx *gin.Context) {
	var req createRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	it, err := s.store.Create(req.Title)
	if err != nil {
		s.fail(ctx, err, "failed to create todo")
		return
	}
	s.publish()
	ctx.JSON(http.StatusCreated, toRecord(it))
}

func (s *Server) updateTodo(ctx *gin.Context) {
	var req updateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	it, err := s.store.Patch(ctx.Param("id"), model.Patch{Title: req.Title, Completed: req.Completed})
	if err != nil {
		s.fail(ctx, err, "failed to update todo")
		return
	}
	s.publish()
	ctx.JSON(http.StatusOK, toRecord(it))
}

func (s *Server) deleteTodo(ctx *gin.Context) {
	if err := s.store.Delete(ctx.Param("id")); err != nil {
		s.fail(ctx, err, "failed to delete todo")
		return
	}
	s.publish()
	ctx.JSON(http.StatusOK, gin.H{"message": "todo deleted"})
}

func (s *Server) watchTodos(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		s.log.Error("failed to upgrade", "err", err)
		return
	}
	s.hub.serve(conn, s.snapshot)
}

// publish pushes the current list to every websocket client.
func (s *Server) publish() {
	msg, err := s.snapshot()
	if err != nil {
		s.log.Error("failed to build snapshot", "err", err)
		return
	}
	s.hub.broadcast(msg)
}

func (s *Server) snapshot() ([]byte, error) {
	items, err := s.store.List()
	if err != nil {
		return nil, err
	}
	return json.Marshal(snapshotMessage{Items: toRecords(items)})
}

func (s *Server) fail(ctx *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, store.ErrEmptyTitle):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
	case errors.Is(err, store.ErrNoChange):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
	case errors.Is(err, store.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
	default:
		s.log.Error(msg, "err", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		log.Info("handled",
			"method", ctx.Request.Method,
			"url", ctx.Request.URL.Path,
			"duration", time.Since(start),
			"status", ctx.Writer.Status(),
		)
	}
}

func toRecord(it model.Item) record {
	return record{ID: it.ID, Title: it.Title, Completed: it.Completed, CreatedAt: it.CreatedAt}
}

func toRecords(items []model.Item) []record {
	out := make([]record, 0, len(items))
	for _, it := range items {
		out = append(out, toRecord(it))
	}
	return out
}
