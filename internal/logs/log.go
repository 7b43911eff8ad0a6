package logs

import (
	"time"

	"github.com/olucas46/Pump-Di-rio/internal/plans"
)

// WorkoutLog is a frozen snapshot of a finished session. The embedded
// exercises carry the loads actually used, and cardio carries the
// session-actual duration/distance. Only comments and rating may change
// after creation.
type WorkoutLog struct {
	ID                   string           `json:"id"`
	UserID               string           `json:"userId"`
	PlanID               string           `json:"planId"`
	PlanName             string           `json:"planName"`
	Date                 time.Time        `json:"date"`
	Exercises            []plans.Exercise `json:"exercises"`
	Cardio               *plans.Cardio    `json:"cardio,omitempty"`
	CompletedExerciseIDs []string         `json:"completedExerciseIds"`
	CardioCompleted      *bool            `json:"cardioCompleted,omitempty"`
	Comments             string           `json:"comments,omitempty"`
	Rating               string           `json:"rating,omitempty"`
	CreatedAt            time.Time        `json:"createdAt"`
}

// FeedbackPatch is the only mutation allowed on an existing log. A nil
// field means "leave as is"; a patch with both fields nil is a no-op.
type FeedbackPatch struct {
	Comments *string `json:"comments,omitempty"`
	Rating   *string `json:"rating,omitempty"`
}

func (p FeedbackPatch) Empty() bool {
	return p.Comments == nil && p.Rating == nil
}
