package plans

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/olucas46/Pump-Di-rio/internal/telemetry/metrics"
	"github.com/olucas46/Pump-Di-rio/internal/telemetry/tracing"
	"github.com/olucas46/Pump-Di-rio/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=plans_mocks_test.go -package=plans_test

type plansRepo interface {
	Add(ctx context.Context, plan WorkoutPlan) (*WorkoutPlan, error)
	Get(ctx context.Context, id string) (*WorkoutPlan, error)
	List(ctx context.Context, userID string) ([]WorkoutPlan, error)
	Update(ctx context.Context, plan *WorkoutPlan) error
	Delete(ctx context.Context, id string) error
}

type DeletePlanResponse struct {
	DeletedID string `json:"deletedId"`
}

type UpdatePlanResponse struct {
	UpdatedID string `json:"updatedId"`
}

type Handler struct {
	repo    plansRepo
	metrics *metrics.Manager
}

func NewHandler(repo plansRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

// SetupRoutes mounts the plans endpoints on the given (api) router.
func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/plans", handler.HandleAdd).
		Methods("POST", "OPTIONS").Name("plans-new")
	router.HandleFunc("/plans/{userId}", handler.HandleList).
		Methods("GET", "OPTIONS").Name("plans-list")
	router.HandleFunc("/plans/{id}", handler.HandleUpdate).
		Methods("PUT", "OPTIONS").Name("plans-update")
	router.HandleFunc("/plans/{id}", handler.HandleDelete).
		Methods("DELETE", "OPTIONS").Name("plans-delete")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.list")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["userId"]
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}

	plansList, err := handler.repo.List(ctx, userID)
	if err != nil {
		log.Errorf("list plans for user [%s]: %s", userID, err)
		http.Error(w, "failed to get plans", http.StatusInternalServerError)
		return
	}

	plansJson, err := json.Marshal(plansList)
	if err != nil {
		log.Errorf("marshal plans error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, plansJson, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.new")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var plan WorkoutPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		log.Tracef("new plan, unmarshal json params: %s", err)
		http.Error(w, "add plan failed", http.StatusBadRequest)
		return
	}

	if plan.UserID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}
	if err := plan.Validate(); err != nil {
		log.Tracef("new plan, validate: %s", err)
		http.Error(w, "error, invalid plan: "+err.Error(), http.StatusBadRequest)
		return
	}

	// ids come from the client, but tolerate their absence
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}

	addedPlan, err := handler.repo.Add(ctx, plan)
	if err != nil {
		log.Errorf("failed to add new plan [%s] for user [%s]: %s", plan.Name, plan.UserID, err)
		http.Error(w, "error, failed to add new plan", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterPlansCreated.Inc()

	addedPlanJson, err := json.Marshal(addedPlan)
	if err != nil {
		log.Errorf("failed to marshal new plan: %s", err)
		http.Error(w, "error, failed to add new plan", http.StatusInternalServerError)
		return
	}

	log.Debugf("new plan added: [%s] %s", addedPlan.ID, addedPlan.Name)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedPlanJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.update")
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

	var plan WorkoutPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		log.Errorf("update plan, unmarshal json params: %s", err)
		http.Error(w, "update plan failed", http.StatusBadRequest)
		return
	}
	plan.ID = id

	if err := plan.Validate(); err != nil {
		log.Tracef("update plan, validate: %s", err)
		http.Error(w, "error, invalid plan: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.repo.Update(ctx, &plan); err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			log.Debugf("plan %s not found", id)
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update plan [%s]: %s", id, err)
		http.Error(w, "error, failed to update plan", http.StatusInternalServerError)
		return
	}

	updateRespJson, err := json.Marshal(UpdatePlanResponse{
		UpdatedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal update response: %s", err)
		http.Error(w, "failed to marshal update response", http.StatusInternalServerError)
		return
	}

	log.Debugf("plan updated: [%s] %s", id, plan.Name)
	pkg.WriteJSONResponseOK(w, string(updateRespJson))
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.delete")
	defer span.End()

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			log.Debugf("plan %s not found", id)
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete plan %s: %s", id, err)
		http.Error(w, "plan not deleted", http.StatusInternalServerError)
		return
	}

	deleteRespJson, err := json.Marshal(DeletePlanResponse{
		DeletedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "failed to marshal delete response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}
