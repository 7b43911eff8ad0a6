package plans

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Exercise is a single planned exercise. Sets, reps, load and rest are
// free text, written the way the user wants to read them mid-workout.
type Exercise struct {
	ID     string `json:"id"`
	Muscle string `json:"muscle"`
	Name   string `json:"name"`
	Sets   string `json:"sets"`
	Reps   string `json:"reps"`
	Load   string `json:"load,omitempty"`
	Rest   string `json:"rest,omitempty"`
	Method string `json:"method,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// Cardio is the optional cardio block of a plan, at most one per plan.
type Cardio struct {
	Type     string `json:"type"`
	Duration string `json:"duration"`
	Distance string `json:"distance,omitempty"`
	Calories string `json:"calories,omitempty"`
}

type WorkoutPlan struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Exercises []Exercise `json:"exercises"`
	Cardio    *Cardio    `json:"cardio,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Validate checks a plan before it is persisted: the plan name and
// every exercise name must be non-empty.
func (p *WorkoutPlan) Validate() error {
	var errs error
	if strings.TrimSpace(p.Name) == "" {
		errs = multierr.Append(errs, fmt.Errorf("plan name empty"))
	}
	for i, e := range p.Exercises {
		if strings.TrimSpace(e.Name) == "" {
			errs = multierr.Append(errs, fmt.Errorf("exercise %d name empty", i))
		}
	}
	return errs
}
