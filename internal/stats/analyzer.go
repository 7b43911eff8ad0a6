package stats

import (
	"context"

	"github.com/olucas46/Pump-Di-rio/internal/logs"
	"github.com/olucas46/Pump-Di-rio/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=stats_test

type logsRepo interface {
	List(ctx context.Context, userID string) ([]logs.WorkoutLog, error)
}

type Analyzer struct {
	repo logsRepo
}

func NewAnalyzer(repo logsRepo) *Analyzer {
	return &Analyzer{
		repo: repo,
	}
}

// Evolution derives all chart series of a user in one go, off a single
// logs read.
func (a *Analyzer) Evolution(ctx context.Context, userID string) (*Evolution, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.stats.evolution")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	workoutLogs, err := a.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("logs.count", len(workoutLogs)))

	return &Evolution{
		WorkoutsPerMonth:       MonthlyWorkoutCounts(workoutLogs),
		MuscleGroups:           MuscleGroupCounts(workoutLogs),
		CardioDurationPerMonth: MonthlyCardioDuration(workoutLogs),
		CardioDistancePerMonth: MonthlyCardioDistance(workoutLogs),
	}, nil
}
