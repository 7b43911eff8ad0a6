package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/olucas46/Pump-Di-rio/internal/plans"
	"github.com/olucas46/Pump-Di-rio/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrLogNotFound = errors.New("log not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, workoutLog WorkoutLog) (_ *WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("log.id", workoutLog.ID))

	if workoutLog.Exercises == nil {
		workoutLog.Exercises = make([]plans.Exercise, 0)
	}
	exercisesJson, err := json.Marshal(workoutLog.Exercises)
	if err != nil {
		return nil, fmt.Errorf("marshal exercises: %w", err)
	}

	if workoutLog.CompletedExerciseIDs == nil {
		workoutLog.CompletedExerciseIDs = make([]string, 0)
	}
	completedIdsJson, err := json.Marshal(workoutLog.CompletedExerciseIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal completed exercise ids: %w", err)
	}

	var cardioJson []byte
	if workoutLog.Cardio != nil {
		cardioJson, err = json.Marshal(workoutLog.Cardio)
		if err != nil {
			return nil, fmt.Errorf("marshal cardio: %w", err)
		}
	}

	if workoutLog.CreatedAt.IsZero() {
		workoutLog.CreatedAt = time.Now()
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO workout_log
				(id, user_id, plan_id, plan_name, date, exercises, cardio,
				completed_exercise_ids, cardio_completed, comments, rating, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`,
		workoutLog.ID, workoutLog.UserID, workoutLog.PlanID, workoutLog.PlanName,
		workoutLog.Date, exercisesJson, cardioJson, completedIdsJson,
		workoutLog.CardioCompleted, workoutLog.Comments, workoutLog.Rating,
		workoutLog.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &workoutLog, nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("log.id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, plan_id, plan_name, date, exercises, cardio,
				completed_exercise_ids, cardio_completed, comments, rating, created_at
			FROM workout_log
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

	workoutLogs, err := r.rows2logs(rows)
	if err != nil {
		return nil, err
	}

	if len(workoutLogs) != 1 {
		return nil, ErrLogNotFound
	}

	return &workoutLogs[0], nil
}

// List returns all logs of a user, most recent workout date first, then
// most recently created first.
func (r *Repo) List(ctx context.Context, userID string) (_ []WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, plan_id, plan_name, date, exercises, cardio,
				completed_exercise_ids, cardio_completed, comments, rating, created_at
			FROM workout_log
			WHERE user_id = $1
			ORDER BY date DESC, created_at DESC;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	workoutLogs, err := r.rows2logs(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2logs: %w", err)
	}
	return workoutLogs, nil
}

// UpdateFeedback patches comments and/or rating of an existing log. The
// snapshot content stays frozen, no other column is touched.
func (r *Repo) UpdateFeedback(ctx context.Context, id string, patch FeedbackPatch) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.updatefeedback")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("log.id", id))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout_log SET
				comments = COALESCE($1, comments),
				rating = COALESCE($2, rating)
			WHERE id = $3;`,
		patch.Comments, patch.Rating, id,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrLogNotFound
	}

	return nil
}

func (r *Repo) rows2logs(rows pgx.Rows) ([]WorkoutLog, error) {
	var workoutLogs []WorkoutLog
	for rows.Next() {
		var wl WorkoutLog
		var exercisesBytes []byte
		var cardioBytes []byte
		var completedIdsBytes []byte
		if err := rows.Scan(
			&wl.ID, &wl.UserID, &wl.PlanID, &wl.PlanName, &wl.Date,
			&exercisesBytes, &cardioBytes, &completedIdsBytes,
			&wl.CardioCompleted, &wl.Comments, &wl.Rating, &wl.CreatedAt,
		); err != nil {
			return nil, err
		}

		if len(exercisesBytes) > 0 {
			if err := json.Unmarshal(exercisesBytes, &wl.Exercises); err != nil {
				return nil, fmt.Errorf("unmarshal exercises for log %s: %w", wl.ID, err)
			}
		}
		if wl.Exercises == nil {
			wl.Exercises = make([]plans.Exercise, 0)
		}

		if len(cardioBytes) > 0 {
			var cardio plans.Cardio
			if err := json.Unmarshal(cardioBytes, &cardio); err != nil {
				return nil, fmt.Errorf("unmarshal cardio for log %s: %w", wl.ID, err)
			}
			wl.Cardio = &cardio
		}

		if len(completedIdsBytes) > 0 {
			if err := json.Unmarshal(completedIdsBytes, &wl.CompletedExerciseIDs); err != nil {
				return nil, fmt.Errorf("unmarshal completed ids for log %s: %w", wl.ID, err)
			}
		}
		if wl.CompletedExerciseIDs == nil {
			wl.CompletedExerciseIDs = make([]string, 0)
		}

		workoutLogs = append(workoutLogs, wl)
	}

	if workoutLogs == nil {
		workoutLogs = make([]WorkoutLog, 0)
	}

	return workoutLogs, nil
}
