package stats

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/olucas46/Pump-Di-rio/internal/telemetry/tracing"
	"github.com/olucas46/Pump-Di-rio/pkg"
)

type Handler struct {
	analyzer *Analyzer
	cache    *Cache
}

func NewHandler(analyzer *Analyzer, cache *Cache) *Handler {
	return &Handler{
		analyzer: analyzer,
		cache:    cache,
	}
}

// SetupRoutes mounts the stats endpoints on the given (api) router.
func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/stats/{userId}/evolution", handler.HandleEvolution).
		Methods("GET", "OPTIONS").Name("stats-evolution")
}

func (handler *Handler) HandleEvolution(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.evolution")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["userId"]
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}

	if evolution, ok := handler.cache.GetEvolution(userID); ok {
		log.Tracef("found evolution for user %s in cache", userID)
		writeEvolution(w, evolution)
		return
	}

	evolution, err := handler.analyzer.Evolution(ctx, userID)
	if err != nil {
		log.Errorf("failed to get evolution for user [%s]: %s", userID, err)
		http.Error(w, "failed to get evolution", http.StatusInternalServerError)
		return
	}

	handler.cache.SetEvolution(userID, evolution)
	writeEvolution(w, evolution)
}

func writeEvolution(w http.ResponseWriter, evolution *Evolution) {
	evolutionJson, err := json.Marshal(evolution)
	if err != nil {
		log.Errorf("failed to marshal evolution: %s", err)
		http.Error(w, "failed to marshal evolution", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, evolutionJson, http.StatusOK)
}
