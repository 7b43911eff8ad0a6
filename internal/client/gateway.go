package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/olucas46/Pump-Di-rio/internal/logs"
	"github.com/olucas46/Pump-Di-rio/internal/plans"
	"github.com/olucas46/Pump-Di-rio/internal/stats"
	"github.com/olucas46/Pump-Di-rio/internal/telemetry/tracing"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

var ErrNotFound = errors.New("not found")

// Gateway is a typed client for the backend REST surface. Every call is
// a single request, no retries: a failed call surfaces to the caller as
// a rejected operation and changes nothing.
type Gateway struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewGateway(baseURL, token string, httpClient *http.Client) *Gateway {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Gateway{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
	}
}

func (g *Gateway) Plans(ctx context.Context, userID string) (_ []plans.WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gateway.plans.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	var plansList []plans.WorkoutPlan
	if err := g.doJSON(ctx, "GET", "/api/plans/"+userID, nil, &plansList); err != nil {
		return nil, err
	}
	return plansList, nil
}

func (g *Gateway) CreatePlan(ctx context.Context, plan plans.WorkoutPlan) (_ *plans.WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gateway.plans.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	createdPlan := &plans.WorkoutPlan{}
	if err := g.doJSON(ctx, "POST", "/api/plans", plan, createdPlan); err != nil {
		return nil, err
	}
	return createdPlan, nil
}

func (g *Gateway) ReplacePlan(ctx context.Context, plan plans.WorkoutPlan) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gateway.plans.replace")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan.id", plan.ID))

	return g.doJSON(ctx, "PUT", "/api/plans/"+plan.ID, plan, nil)
}

func (g *Gateway) DeletePlan(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gateway.plans.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan.id", id))

	return g.doJSON(ctx, "DELETE", "/api/plans/"+id, nil, nil)
}

func (g *Gateway) Logs(ctx context.Context, userID string) (_ []logs.WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gateway.logs.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	var logsList []logs.WorkoutLog
	if err := g.doJSON(ctx, "GET", "/api/logs/"+userID, nil, &logsList); err != nil {
		return nil, err
	}
	return logsList, nil
}

func (g *Gateway) CreateLog(ctx context.Context, workoutLog logs.WorkoutLog) (_ *logs.WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gateway.logs.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	createdLog := &logs.WorkoutLog{}
	if err := g.doJSON(ctx, "POST", "/api/logs", workoutLog, createdLog); err != nil {
		return nil, err
	}
	return createdLog, nil
}

func (g *Gateway) UpdateLogFeedback(ctx context.Context, id string, patch logs.FeedbackPatch) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gateway.logs.feedback")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("log.id", id))

	return g.doJSON(ctx, "PUT", "/api/logs/"+id, patch, nil)
}

func (g *Gateway) Evolution(ctx context.Context, userID string) (_ *stats.Evolution, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gateway.stats.evolution")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	evolution := &stats.Evolution{}
	if err := g.doJSON(ctx, "GET", "/api/stats/"+userID+"/evolution", nil, evolution); err != nil {
		return nil, err
	}
	return evolution, nil
}

// doJSON runs one request and decodes the response into out (skipped
// when out is nil). A 404 maps to ErrNotFound, other non-2xx statuses
// come back with the response body in the error.
func (g *Gateway) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(bodyJson)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.token != "" {
		req.Header.Set("X-PUMP-TOKEN", g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(respBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
