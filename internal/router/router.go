// Package router exposes the user registry over HTTP:
// GET /greet/{id} and POST /users.
package router

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/greeter/internal/gzippedhttp"
	"github.com/patric-chuzhbe/greeter/internal/logger"
	"github.com/patric-chuzhbe/greeter/internal/models"
)

type userRegistry interface {
	Get(ctx context.Context, id models.UserID) (models.User, bool, error)
	Insert(ctx context.Context, usr models.User) (models.UserID, error)
}

// Router holds the handlers of the service. All handlers share one registry.
type Router struct {
	db userRegistry
}

type initOptions struct {
	workers        int
	backlog        int
	backlogTimeout time.Duration
}

// InitOption configures New.
type InitOption func(*initOptions)

// WithWorkers bounds the number of requests served at once. Requests beyond
// workers wait in a backlog of the given size for at most backlogTimeout.
// A non-positive workers value disables the bound.
func WithWorkers(workers, backlog int, backlogTimeout time.Duration) InitOption {
	return func(options *initOptions) {
		options.workers = workers
		options.backlog = backlog
		options.backlogTimeout = backlogTimeout
	}
}

// GetGreet answers with "Hello, <name>" for a known id and with
// "User with id <id> not found" otherwise. Both are 200 responses.
func (router *Router) GetGreet(response http.ResponseWriter, request *http.Request) {
	rawID := chi.URLParam(request, "id")
	parsed, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		http.Error(response, fmt.Sprintf("can not parse %q as a user id", rawID), http.StatusNotFound)
		return
	}
	id := models.UserID(parsed)

	usr, found, err := router.db.Get(request.Context(), id)
	if err != nil {
		logger.Log.Errorw("registry lookup failed",
			"request_id", logger.RequestIDFromContext(request.Context()),
			"id", id,
			zap.Error(err),
		)
		http.Error(response, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	response.WriteHeader(http.StatusOK)

	greeting := fmt.Sprintf("User with id %d not found", id)
	if found {
		greeting = "Hello, " + usr.Name
	}

	if _, err := response.Write([]byte(greeting)); err != nil {
		logger.Log.Debugln("error writing the greeting:", zap.Error(err))
	}
}

// PostUsers stores the posted user under a new id and answers 201 with
// {"id": <id>, "name": <name>}. The name is stored as sent, empty included.
func (router *Router) PostUsers(response http.ResponseWriter, request *http.Request) {
	var payload models.CreateUserRequest
	if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
		http.Error(response, fmt.Sprintf("malformed JSON payload: %v", err), http.StatusBadRequest)
		return
	}
	if payload.Name == nil {
		http.Error(response, `malformed JSON payload: missing field "name"`, http.StatusBadRequest)
		return
	}

	usr := models.User{Name: *payload.Name}
	id, err := router.db.Insert(request.Context(), usr)
	if err != nil {
		logger.Log.Errorw("registry insert failed",
			"request_id", logger.RequestIDFromContext(request.Context()),
			zap.Error(err),
		)
		http.Error(response, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(http.StatusCreated)

	err = json.NewEncoder(response).Encode(models.CreateUserResponse{
		ID:   id,
		Name: usr.Name,
	})
	if err != nil {
		logger.Log.Debugln("error encoding the created user:", zap.Error(err))
	}
}

// New builds the chi router serving the registry.
func New(db userRegistry, optionsProto ...InitOption) *chi.Mux {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	myRouter := Router{db: db}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		logger.WithRecoverer,
	)
	if options.workers > 0 {
		router.Use(middleware.ThrottleBacklog(options.workers, options.backlog, options.backlogTimeout))
	}
	router.Use(
		middleware.Compress(gzip.BestSpeed, "text/plain", "application/json"),
		gzippedhttp.UngzipRequest,
	)

	router.Get(`/greet/{id}`, myRouter.GetGreet)
	router.Post(`/users`, myRouter.PostUsers)

	return router
}
