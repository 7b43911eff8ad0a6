package integration_testing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/olucas46/Pump-Di-rio/internal/client"
	"github.com/olucas46/Pump-Di-rio/internal/logs"
	"github.com/olucas46/Pump-Di-rio/internal/plans"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestLogin() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doRegister(ctx, t, testUsername, testPassword)

	cases := map[string]struct {
		creds              credentials
		expectedStatusCode int
		assertFunc         func(resp *http.Response)
	}{
		"good creds": {
			creds: credentials{
				Username: testUsername,
				Password: testPassword,
			},
			expectedStatusCode: http.StatusOK,
			assertFunc: func(resp *http.Response) {
				respBytes, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Contains(t, string(respBytes), "token")
			},
		},
		"bad password": {
			creds: credentials{
				Username: testUsername,
				Password: "bad-password",
			},
			expectedStatusCode: http.StatusUnauthorized,
			assertFunc: func(resp *http.Response) {
				respBytes, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, "error, wrong credentials", strings.TrimSpace(string(respBytes)))
			},
		},
		"unknown user": {
			creds: credentials{
				Username: "who-dis",
				Password: testPassword,
			},
			expectedStatusCode: http.StatusUnauthorized,
			assertFunc:         func(resp *http.Response) {},
		},
	}

	for name, tc := range cases {
		s.Run(name, func() {
			credsJson, err := json.Marshal(tc.creds)
			require.NoError(t, err)

			req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/a/login", serverEndpoint), bytes.NewBuffer(credsJson))
			require.NoError(t, err)
			req.Header.Set("User-Agent", "test-agent")
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatusCode, resp.StatusCode)
			tc.assertFunc(resp)
		})
	}
}

func (s *IntegrationTestSuite) TestLogout() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doRegister(ctx, t, testUsername, testPassword)
	token := doLogin(ctx, t)

	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/a/logout", serverEndpoint), nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-PUMP-TOKEN", token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "logged-out", string(respBytes))

	// the token is gone now, protected endpoints reject it
	req, err = http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/api/plans/user1", serverEndpoint), nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-PUMP-TOKEN", token)

	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func (s *IntegrationTestSuite) TestWorkoutFlow() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doRegister(ctx, t, testUsername, testPassword)
	token := doLogin(ctx, t)
	gateway := client.NewGateway(serverEndpoint, token, nil)

	userID := "flow-user"

	createdPlan, err := gateway.CreatePlan(ctx, plans.WorkoutPlan{
		UserID: userID,
		Name:   "Upper A",
		Exercises: []plans.Exercise{
			{ID: "ex-1", Muscle: "Chest", Name: "Bench Press", Sets: "4", Reps: "8-10", Rest: "90"},
			{ID: "ex-2", Muscle: "Back", Name: "Barbell Row", Sets: "4", Reps: "10", Rest: "2min"},
		},
		Cardio: &plans.Cardio{Type: "Treadmill", Duration: "20", Distance: "3"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, createdPlan.ID)
	require.Len(t, createdPlan.Exercises, 2)

	plansList, err := gateway.Plans(ctx, userID)
	require.NoError(t, err)
	require.Len(t, plansList, 1)
	assert.Equal(t, "Upper A", plansList[0].Name)

	// rename the plan and drop an exercise
	updatedPlan := plansList[0]
	updatedPlan.Name = "Upper A v2"
	updatedPlan.Exercises = updatedPlan.Exercises[:1]
	require.NoError(t, gateway.ReplacePlan(ctx, updatedPlan))

	plansList, err = gateway.Plans(ctx, userID)
	require.NoError(t, err)
	require.Len(t, plansList, 1)
	assert.Equal(t, "Upper A v2", plansList[0].Name)
	assert.Len(t, plansList[0].Exercises, 1)

	cardioDone := true
	createdLog, err := gateway.CreateLog(ctx, logs.WorkoutLog{
		UserID:   userID,
		PlanID:   createdPlan.ID,
		PlanName: "Upper A v2",
		Date:     time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC),
		Exercises: []plans.Exercise{
			{ID: "ex-1", Muscle: "Chest", Name: "Bench Press", Sets: "4", Reps: "8-10", Load: "60kg"},
		},
		Cardio:               &plans.Cardio{Type: "Treadmill", Duration: "25", Distance: "3,5"},
		CompletedExerciseIDs: []string{"ex-1"},
		CardioCompleted:      &cardioDone,
	})
	require.NoError(t, err)
	require.NotEmpty(t, createdLog.ID)

	require.NoError(t, gateway.UpdateLogFeedback(ctx, createdLog.ID, logs.FeedbackPatch{
		Comments: strPtr("felt strong"),
		Rating:   strPtr("💪"),
	}))

	logsList, err := gateway.Logs(ctx, userID)
	require.NoError(t, err)
	require.Len(t, logsList, 1)
	assert.Equal(t, "felt strong", logsList[0].Comments)
	assert.Equal(t, "💪", logsList[0].Rating)
	assert.Equal(t, "60kg", logsList[0].Exercises[0].Load)

	evolution, err := gateway.Evolution(ctx, userID)
	require.NoError(t, err)
	require.Len(t, evolution.WorkoutsPerMonth, 1)
	assert.Equal(t, "2024-03", evolution.WorkoutsPerMonth[0].Month)
	assert.Equal(t, 1, evolution.WorkoutsPerMonth[0].Count)
	require.Len(t, evolution.CardioDistancePerMonth, 1)
	assert.InDelta(t, 3.5, evolution.CardioDistancePerMonth[0].Total, 0.001)

	require.NoError(t, gateway.DeletePlan(ctx, createdPlan.ID))
	plansList, err = gateway.Plans(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, plansList)

	// the log outlives its plan
	logsList, err = gateway.Logs(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, logsList, 1)
}

func strPtr(s string) *string {
	return &s
}
