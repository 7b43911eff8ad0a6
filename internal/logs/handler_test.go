package logs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/olucas46/Pump-Di-rio/internal/logs"
	"github.com/olucas46/Pump-Di-rio/internal/plans"
	"github.com/olucas46/Pump-Di-rio/internal/telemetry/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLog(userID string) logs.WorkoutLog {
	cardioCompleted := true
	return logs.WorkoutLog{
		ID:       "log-1",
		UserID:   userID,
		PlanID:   "plan-1",
		PlanName: "Upper A",
		Date:     time.Date(2024, 3, 14, 18, 30, 0, 0, time.UTC),
		Exercises: []plans.Exercise{
			{ID: "ex-1", Muscle: "Chest", Name: "Bench Press", Sets: "4", Reps: "8", Load: "60kg"},
		},
		Cardio: &plans.Cardio{
			Type:     "Treadmill",
			Duration: "20",
			Distance: "3,5",
		},
		CompletedExerciseIDs: []string{"ex-1"},
		CardioCompleted:      &cardioCompleted,
	}
}

func newLogsRouter(t *testing.T) (*mux.Router, *MocklogsRepo, *MockstatsInvalidator) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repoMock := NewMocklogsRepo(ctrl)
	statsMock := NewMockstatsInvalidator(ctrl)
	handler := logs.NewHandler(repoMock, statsMock, metrics.NewTestManager())

	r := mux.NewRouter()
	handler.SetupRoutes(r.PathPrefix("/api").Subrouter())
	return r, repoMock, statsMock
}

func TestHandler_Routes(t *testing.T) {
	r, _, _ := newLogsRouter(t)

	for caseName, route := range map[string]struct {
		path   string
		method string
	}{
		"logs-new":      {path: "/api/logs", method: "POST"},
		"logs-list":     {path: "/api/logs/user1", method: "GET"},
		"logs-feedback": {path: "/api/logs/log-1", method: "PUT"},
	} {
		t.Run(caseName, func(t *testing.T) {
			req, err := http.NewRequest(route.method, route.path, nil)
			require.NoError(t, err)

			routeMatch := &mux.RouteMatch{}
			assert.True(t, r.Match(req, routeMatch))
			require.NotNil(t, routeMatch.Route)
			assert.Equal(t, caseName, routeMatch.Route.GetName())
		})
	}
}

func TestHandler_HandleList(t *testing.T) {
	r, repoMock, _ := newLogsRouter(t)

	l1 := testLog("user1")
	l2 := testLog("user1")
	l2.ID = "log-2"
	l2.Cardio = nil
	l2.CardioCompleted = nil

	repoMock.EXPECT().
		List(gomock.Any(), "user1").
		Return([]logs.WorkoutLog{l2, l1}, nil)

	req, err := http.NewRequest("GET", "/api/logs/user1", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var gotLogs []logs.WorkoutLog
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &gotLogs))
	require.Len(t, gotLogs, 2)
	assert.Equal(t, "log-2", gotLogs[0].ID)
	assert.Nil(t, gotLogs[0].CardioCompleted)
	require.NotNil(t, gotLogs[1].CardioCompleted)
	assert.True(t, *gotLogs[1].CardioCompleted)
}

func TestHandler_HandleAdd(t *testing.T) {
	r, repoMock, statsMock := newLogsRouter(t)

	newLog := testLog("user1")
	newLogJson, err := json.Marshal(newLog)
	require.NoError(t, err)

	repoMock.EXPECT().
		Add(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, wl logs.WorkoutLog) (*logs.WorkoutLog, error) {
			assert.Equal(t, newLog.ID, wl.ID)
			assert.Equal(t, newLog.PlanID, wl.PlanID)
			assert.Equal(t, newLog.PlanName, wl.PlanName)
			assert.Equal(t, []string{"ex-1"}, wl.CompletedExerciseIDs)
			require.NotNil(t, wl.CardioCompleted)
			assert.True(t, *wl.CardioCompleted)
			return &wl, nil
		}).Times(1)
	statsMock.EXPECT().InvalidateUser("user1").Times(1)

	req, err := http.NewRequest("POST", "/api/logs", bytes.NewReader(newLogJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var addedLog logs.WorkoutLog
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &addedLog))
	assert.Equal(t, newLog.ID, addedLog.ID)
}

func TestHandler_HandleAdd_MissingFields(t *testing.T) {
	r, _, _ := newLogsRouter(t)

	for caseName, mangle := range map[string]func(wl *logs.WorkoutLog){
		"no user id": func(wl *logs.WorkoutLog) { wl.UserID = "" },
		"no plan id": func(wl *logs.WorkoutLog) { wl.PlanID = "" },
	} {
		t.Run(caseName, func(t *testing.T) {
			badLog := testLog("user1")
			mangle(&badLog)
			badLogJson, err := json.Marshal(badLog)
			require.NoError(t, err)

			req, err := http.NewRequest("POST", "/api/logs", bytes.NewReader(badLogJson))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestHandler_HandleUpdateFeedback(t *testing.T) {
	r, repoMock, _ := newLogsRouter(t)

	repoMock.EXPECT().
		UpdateFeedback(gomock.Any(), "log-1", gomock.Any()).
		DoAndReturn(func(ctx context.Context, id string, patch logs.FeedbackPatch) error {
			require.NotNil(t, patch.Comments)
			assert.Equal(t, "solid session", *patch.Comments)
			require.NotNil(t, patch.Rating)
			assert.Equal(t, "💪", *patch.Rating)
			return nil
		}).Times(1)

	body := `{"comments":"solid session","rating":"💪"}`
	req, err := http.NewRequest("PUT", "/api/logs/log-1", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"updatedId":"log-1"}`, rr.Body.String())
}

func TestHandler_HandleUpdateFeedback_IgnoresOtherFields(t *testing.T) {
	r, repoMock, _ := newLogsRouter(t)

	repoMock.EXPECT().
		UpdateFeedback(gomock.Any(), "log-1", gomock.Any()).
		DoAndReturn(func(ctx context.Context, id string, patch logs.FeedbackPatch) error {
			require.NotNil(t, patch.Comments)
			assert.Equal(t, "tweaked", *patch.Comments)
			assert.Nil(t, patch.Rating)
			return nil
		}).Times(1)

	// planName and exercises in the body must not reach the repo
	body := `{"comments":"tweaked","planName":"hacked","exercises":[]}`
	req, err := http.NewRequest("PUT", "/api/logs/log-1", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestHandler_HandleUpdateFeedback_EmptyPatch(t *testing.T) {
	r, repoMock, _ := newLogsRouter(t)

	existingLog := testLog("user1")
	repoMock.EXPECT().
		Get(gomock.Any(), "log-1").
		Return(&existingLog, nil)

	req, err := http.NewRequest("PUT", "/api/logs/log-1", strings.NewReader(`{}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"updatedId":"log-1"}`, rr.Body.String())
}

func TestHandler_HandleUpdateFeedback_NotFound(t *testing.T) {
	r, repoMock, _ := newLogsRouter(t)

	repoMock.EXPECT().
		UpdateFeedback(gomock.Any(), "missing", gomock.Any()).
		Return(logs.ErrLogNotFound)

	req, err := http.NewRequest("PUT", "/api/logs/missing", strings.NewReader(`{"comments":"x"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	repoMock.EXPECT().
		Get(gomock.Any(), "missing").
		Return(nil, logs.ErrLogNotFound)

	req, err = http.NewRequest("PUT", "/api/logs/missing", strings.NewReader(`{}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
