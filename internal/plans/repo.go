package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/olucas46/Pump-Di-rio/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrPlanNotFound = errors.New("plan not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, plan WorkoutPlan) (_ *WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan.id", plan.ID))

	exercisesJson, cardioJson, err := marshalPlanBlobs(&plan)
	if err != nil {
		return nil, err
	}

	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now()
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO workout_plan
				(id, user_id, name, exercises, cardio, created_at)
				VALUES ($1, $2, $3, $4, $5, $6);`,
		plan.ID, plan.UserID, plan.Name, exercisesJson, cardioJson, plan.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &plan, nil
}

// Update replaces the plan name, exercises and cardio wholesale. Owner
// and creation timestamp never change.
func (r *Repo) Update(ctx context.Context, plan *WorkoutPlan) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan.id", plan.ID))

	exercisesJson, cardioJson, err := marshalPlanBlobs(plan)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout_plan SET name = $1, exercises = $2, cardio = $3 WHERE id = $4;`,
		plan.Name, exercisesJson, cardioJson, plan.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan.id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout_plan WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan.id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name, exercises, cardio, created_at
			FROM workout_plan
			WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	plans, err := r.rows2plans(rows)
	if err != nil {
		return nil, err
	}

	if len(plans) != 1 {
		return nil, ErrPlanNotFound
	}

	return &plans[0], nil
}

// List returns all plans of a user, newest created first.
func (r *Repo) List(ctx context.Context, userID string) (_ []WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name, exercises, cardio, created_at
			FROM workout_plan
			WHERE user_id = $1
			ORDER BY created_at DESC;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	plans, err := r.rows2plans(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2plans: %w", err)
	}
	return plans, nil
}

func (r *Repo) rows2plans(rows pgx.Rows) ([]WorkoutPlan, error) {
	var plans []WorkoutPlan
	for rows.Next() {
		var id string
		var userID string
		var name string
		var exercisesBytes []byte
		var cardioBytes []byte
		var createdAt time.Time
		if err := rows.Scan(&id, &userID, &name, &exercisesBytes, &cardioBytes, &createdAt); err != nil {
			return nil, err
		}

		p := WorkoutPlan{
			ID:        id,
			UserID:    userID,
			Name:      name,
			CreatedAt: createdAt,
		}

		if len(exercisesBytes) > 0 {
			if err := json.Unmarshal(exercisesBytes, &p.Exercises); err != nil {
				return nil, fmt.Errorf("unmarshal exercises for plan %s: %w", id, err)
			}
		}
		if p.Exercises == nil {
			p.Exercises = make([]Exercise, 0)
		}

		if len(cardioBytes) > 0 {
			var cardio Cardio
			if err := json.Unmarshal(cardioBytes, &cardio); err != nil {
				return nil, fmt.Errorf("unmarshal cardio for plan %s: %w", id, err)
			}
			p.Cardio = &cardio
		}

		plans = append(plans, p)
	}

	if plans == nil {
		plans = make([]WorkoutPlan, 0)
	}

	return plans, nil
}

// marshalPlanBlobs prepares the JSONB columns. A plan without cardio is
// stored with a NULL cardio column.
func marshalPlanBlobs(plan *WorkoutPlan) (exercisesJson []byte, cardioJson []byte, err error) {
	if plan.Exercises == nil {
		plan.Exercises = make([]Exercise, 0)
	}
	exercisesJson, err = json.Marshal(plan.Exercises)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal exercises: %w", err)
	}

	if plan.Cardio != nil {
		cardioJson, err = json.Marshal(plan.Cardio)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal cardio: %w", err)
		}
	}

	return exercisesJson, cardioJson, nil
}
