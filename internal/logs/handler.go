package logs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/olucas46/Pump-Di-rio/internal/telemetry/metrics"
	"github.com/olucas46/Pump-Di-rio/internal/telemetry/tracing"
	"github.com/olucas46/Pump-Di-rio/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=logs_mocks_test.go -package=logs_test

type logsRepo interface {
	Add(ctx context.Context, workoutLog WorkoutLog) (*WorkoutLog, error)
	Get(ctx context.Context, id string) (*WorkoutLog, error)
	List(ctx context.Context, userID string) ([]WorkoutLog, error)
	UpdateFeedback(ctx context.Context, id string, patch FeedbackPatch) error
}

// statsInvalidator drops any cached, derived stats of a user after the
// underlying log collection changed.
type statsInvalidator interface {
	InvalidateUser(userID string)
}

type UpdateLogResponse struct {
	UpdatedID string `json:"updatedId"`
}

type Handler struct {
	repo    logsRepo
	stats   statsInvalidator
	metrics *metrics.Manager
}

func NewHandler(repo logsRepo, stats statsInvalidator, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		stats:   stats,
		metrics: metricsManager,
	}
}

// SetupRoutes mounts the logs endpoints on the given (api) router.
func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/logs", handler.HandleAdd).
		Methods("POST", "OPTIONS").Name("logs-new")
	router.HandleFunc("/logs/{userId}", handler.HandleList).
		Methods("GET", "OPTIONS").Name("logs-list")
	router.HandleFunc("/logs/{id}", handler.HandleUpdateFeedback).
		Methods("PUT", "OPTIONS").Name("logs-feedback")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.list")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["userId"]
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}

	logsList, err := handler.repo.List(ctx, userID)
	if err != nil {
		log.Errorf("list logs for user [%s]: %s", userID, err)
		http.Error(w, "failed to get logs", http.StatusInternalServerError)
		return
	}

	logsJson, err := json.Marshal(logsList)
	if err != nil {
		log.Errorf("marshal logs error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, logsJson, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.new")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var workoutLog WorkoutLog
	if err := json.NewDecoder(r.Body).Decode(&workoutLog); err != nil {
		log.Tracef("new log, unmarshal json params: %s", err)
		http.Error(w, "add log failed", http.StatusBadRequest)
		return
	}

	if workoutLog.UserID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}
	if workoutLog.PlanID == "" {
		http.Error(w, "error, plan id empty", http.StatusBadRequest)
		return
	}

	if workoutLog.ID == "" {
		workoutLog.ID = uuid.NewString()
	}
	if workoutLog.Date.IsZero() {
		workoutLog.Date = time.Now()
	}

	addedLog, err := handler.repo.Add(ctx, workoutLog)
	if err != nil {
		log.Errorf("failed to add new log for user [%s], plan [%s]: %s", workoutLog.UserID, workoutLog.PlanID, err)
		http.Error(w, "error, failed to add new log", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterLogsCreated.Inc()
	handler.stats.InvalidateUser(addedLog.UserID)

	addedLogJson, err := json.Marshal(addedLog)
	if err != nil {
		log.Errorf("failed to marshal new log: %s", err)
		http.Error(w, "error, failed to add new log", http.StatusInternalServerError)
		return
	}

	log.Debugf("new log added: [%s] plan [%s]", addedLog.ID, addedLog.PlanName)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedLogJson, http.StatusCreated)
}

// HandleUpdateFeedback accepts only comments and rating. Anything else in
// the body is ignored, the stored snapshot never changes. A body with
// neither field is accepted and changes nothing.
func (handler *Handler) HandleUpdateFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.feedback")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	var patch FeedbackPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		log.Errorf("update log, unmarshal json params: %s", err)
		http.Error(w, "update log failed", http.StatusBadRequest)
		return
	}

	if patch.Empty() {
		// nothing to change, but the log must exist
		if _, err := handler.repo.Get(ctx, id); err != nil {
			if errors.Is(err, ErrLogNotFound) {
				http.Error(w, "log not found", http.StatusNotFound)
				return
			}
			log.Errorf("failed to get log %s: %s", id, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	} else if err := handler.repo.UpdateFeedback(ctx, id, patch); err != nil {
		if errors.Is(err, ErrLogNotFound) {
			log.Debugf("log %s not found", id)
			http.Error(w, "log not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update log [%s]: %s", id, err)
		http.Error(w, "error, failed to update log", http.StatusInternalServerError)
		return
	}

	updateRespJson, err := json.Marshal(UpdateLogResponse{
		UpdatedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal update response: %s", err)
		http.Error(w, "failed to marshal update response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(updateRespJson))
}
