package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/olucas46/Pump-Di-rio/internal/logs"
	"github.com/olucas46/Pump-Di-rio/internal/plans"
	"github.com/olucas46/Pump-Di-rio/internal/stats"
)

type State string

const (
	StateNoPlanSelected   State = "no-plan-selected"
	StatePlanSelected     State = "plan-selected"
	StateAwaitingFeedback State = "awaiting-feedback"
	StateCompleted        State = "completed"
)

// Ratings are the five fixed feedback values, worst to best. The middle
// one is pre-selected in the feedback step.
var Ratings = []string{"😣", "😕", "🙂", "😄", "💪"}

const DefaultRating = "🙂"

const DefaultCompletedStateDuration = 2 * time.Second

var (
	ErrNoPlanSelected  = errors.New("no plan selected")
	ErrNotAwaiting     = errors.New("no feedback awaited")
	ErrInvalidRating   = errors.New("invalid rating")
	ErrUnknownPlan     = errors.New("unknown plan")
	ErrWrongState      = errors.New("operation not allowed in current state")
	ErrUnknownExercise = errors.New("unknown exercise")
)

// gateway is the slice of the REST surface the controller talks to.
// Satisfied by client.Gateway.
type gateway interface {
	Plans(ctx context.Context, userID string) ([]plans.WorkoutPlan, error)
	CreatePlan(ctx context.Context, plan plans.WorkoutPlan) (*plans.WorkoutPlan, error)
	ReplacePlan(ctx context.Context, plan plans.WorkoutPlan) error
	DeletePlan(ctx context.Context, id string) error
	Logs(ctx context.Context, userID string) ([]logs.WorkoutLog, error)
	CreateLog(ctx context.Context, workoutLog logs.WorkoutLog) (*logs.WorkoutLog, error)
	UpdateLogFeedback(ctx context.Context, id string, patch logs.FeedbackPatch) error
	Evolution(ctx context.Context, userID string) (*stats.Evolution, error)
}

// HistoryEntry is one rendered history item: the log itself plus the
// exercises to show. Legacy logs without an embedded snapshot resolve
// their exercises through the plan; a deleted plan leaves PlanMissing
// set and the entry renders a notice instead of failing.
type HistoryEntry struct {
	Log         logs.WorkoutLog  `json:"log"`
	Exercises   []plans.Exercise `json:"exercises"`
	Cardio      *plans.Cardio    `json:"cardio,omitempty"`
	PlanMissing bool             `json:"planMissing"`
}

// Controller drives one user's workout session: plan selection, the
// per-session completion and load state, the rest countdown, snapshot
// creation on finish and the feedback step afterwards. Every mutation
// goes through the gateway first; local state changes only when the
// remote call succeeded.
type Controller struct {
	mu sync.Mutex

	userID string
	gw     gateway
	prefs  PrefStore

	state        State
	plans        []plans.WorkoutPlan
	logs         []logs.WorkoutLog
	selectedPlan *plans.WorkoutPlan

	// per-session state, valid while a plan is selected
	completedExercises map[string]bool
	loads              map[string]string
	setCounts          map[string]int
	cardioDuration     string
	cardioDistance     string
	cardioCalories     string
	cardioDone         bool

	countdown *Countdown

	// feedback bookkeeping for the just-finished session
	pendingLogID  string
	feedbackGiven bool

	completedTimer *time.Timer

	// injectable for testing
	NowFunc                func() time.Time
	AfterFunc              func(d time.Duration, f func()) *time.Timer
	CompletedStateDuration time.Duration
}

func NewController(userID string, gw gateway, prefs PrefStore, restCue func(exerciseID string)) *Controller {
	c := &Controller{
		userID:                 userID,
		gw:                     gw,
		prefs:                  prefs,
		state:                  StateNoPlanSelected,
		NowFunc:                time.Now,
		AfterFunc:              time.AfterFunc,
		CompletedStateDuration: DefaultCompletedStateDuration,
	}
	c.countdown = NewCountdown(restCue, c.onRestFinished)
	c.resetSessionState()
	return c
}

// Load pulls the user's plans and logs and restores the remembered plan
// selection. A remembered plan that no longer exists leaves the user
// without a selection.
func (c *Controller) Load(ctx context.Context) error {
	userPlans, err := c.gw.Plans(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("load plans: %w", err)
	}
	userLogs, err := c.gw.Logs(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("load logs: %w", err)
	}

	rememberedID, err := c.prefs.SelectedPlan(ctx)
	if err != nil {
		log.Errorf("load remembered plan selection: %s", err)
		rememberedID = ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.plans = userPlans
	c.logs = userLogs
	c.state = StateNoPlanSelected
	c.selectedPlan = nil
	c.resetSessionState()

	if rememberedID == "" {
		return nil
	}
	if plan := c.findPlanLocked(rememberedID); plan != nil {
		c.selectedPlan = plan
		c.state = StatePlanSelected
	}
	return nil
}

// SelectPlan starts a fresh session on the given plan. All per-session
// state is reset, the selection is remembered for the next visit.
func (c *Controller) SelectPlan(ctx context.Context, planID string) error {
	c.mu.Lock()
	plan := c.findPlanLocked(planID)
	c.mu.Unlock()
	if plan == nil {
		return ErrUnknownPlan
	}

	if err := c.prefs.SetSelectedPlan(ctx, planID); err != nil {
		log.Errorf("remember plan selection [%s]: %s", planID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedPlan = plan
	c.state = StatePlanSelected
	c.resetSessionState()
	return nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) SelectedPlan() *plans.WorkoutPlan {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedPlan
}

func (c *Controller) Plans() []plans.WorkoutPlan {
	c.mu.Lock()
	defer c.mu.Unlock()
	plansCopy := make([]plans.WorkoutPlan, len(c.plans))
	copy(plansCopy, c.plans)
	return plansCopy
}

func (c *Controller) Logs() []logs.WorkoutLog {
	c.mu.Lock()
	defer c.mu.Unlock()
	logsCopy := make([]logs.WorkoutLog, len(c.logs))
	copy(logsCopy, c.logs)
	return logsCopy
}

// ToggleExerciseDone flips the completion of an exercise. A recorded
// load survives un-checking.
func (c *Controller) ToggleExerciseDone(exerciseID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePlanSelected {
		return ErrWrongState
	}
	if !c.planHasExerciseLocked(exerciseID) {
		return ErrUnknownExercise
	}

	if c.completedExercises[exerciseID] {
		delete(c.completedExercises, exerciseID)
	} else {
		c.completedExercises[exerciseID] = true
	}
	return nil
}

func (c *Controller) ExerciseDone(exerciseID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completedExercises[exerciseID]
}

func (c *Controller) SetLoad(exerciseID, load string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePlanSelected {
		return ErrWrongState
	}
	if !c.planHasExerciseLocked(exerciseID) {
		return ErrUnknownExercise
	}

	c.loads[exerciseID] = load
	return nil
}

func (c *Controller) RecordedLoad(exerciseID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads[exerciseID]
}

// SetCardioActuals records what actually happened in the cardio block.
// Empty duration/distance fall back to the planned values at finish,
// calories go into the snapshot verbatim.
func (c *Controller) SetCardioActuals(duration, distance, calories string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePlanSelected {
		return ErrWrongState
	}
	if c.selectedPlan.Cardio == nil {
		return ErrWrongState
	}

	c.cardioDuration = duration
	c.cardioDistance = distance
	c.cardioCalories = calories
	return nil
}

func (c *Controller) SetCardioDone(done bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePlanSelected {
		return ErrWrongState
	}
	if c.selectedPlan.Cardio == nil {
		return ErrWrongState
	}

	c.cardioDone = done
	return nil
}

// StartRest starts the rest countdown for an exercise, using the rest
// text of the plan. An unparsable or empty rest does nothing.
func (c *Controller) StartRest(exerciseID string) error {
	c.mu.Lock()

	if c.state != StatePlanSelected {
		c.mu.Unlock()
		return ErrWrongState
	}

	var rest string
	found := false
	for i := range c.selectedPlan.Exercises {
		if c.selectedPlan.Exercises[i].ID == exerciseID {
			rest = c.selectedPlan.Exercises[i].Rest
			found = true
			break
		}
	}
	c.mu.Unlock()

	if !found {
		return ErrUnknownExercise
	}

	c.countdown.Start(exerciseID, ParseRestSeconds(rest))
	return nil
}

func (c *Controller) Countdown() *Countdown {
	return c.countdown
}

// CompletedSets returns how many rest countdowns ran out for an
// exercise this session.
func (c *Controller) CompletedSets(exerciseID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setCounts[exerciseID]
}

func (c *Controller) onRestFinished(exerciseID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCounts[exerciseID]++
}

// Finish freezes the session into a log snapshot and persists it. On
// failure nothing changes locally and no feedback step opens. On
// success the log joins the local list and the feedback step begins.
func (c *Controller) Finish(ctx context.Context) (*logs.WorkoutLog, error) {
	c.mu.Lock()
	if c.state != StatePlanSelected {
		c.mu.Unlock()
		return nil, ErrNoPlanSelected
	}
	snapshot := c.buildSnapshotLocked()
	c.mu.Unlock()

	createdLog, err := c.gw.CreateLog(ctx, snapshot)
	if err != nil {
		log.Errorf("finish session, persist log: %s", err)
		return nil, fmt.Errorf("persist log: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append([]logs.WorkoutLog{*createdLog}, c.logs...)
	c.state = StateAwaitingFeedback
	c.pendingLogID = createdLog.ID
	c.feedbackGiven = false
	return createdLog, nil
}

func (c *Controller) buildSnapshotLocked() logs.WorkoutLog {
	plan := c.selectedPlan

	snapshotExercises := make([]plans.Exercise, len(plan.Exercises))
	for i, e := range plan.Exercises {
		snapshot := e
		snapshot.Load = c.loads[e.ID]
		snapshotExercises[i] = snapshot
	}

	completedIDs := make([]string, 0, len(c.completedExercises))
	for _, e := range plan.Exercises {
		if c.completedExercises[e.ID] {
			completedIDs = append(completedIDs, e.ID)
		}
	}

	workoutLog := logs.WorkoutLog{
		ID:                   uuid.NewString(),
		UserID:               c.userID,
		PlanID:               plan.ID,
		PlanName:             plan.Name,
		Date:                 c.NowFunc(),
		Exercises:            snapshotExercises,
		CompletedExerciseIDs: completedIDs,
	}

	if plan.Cardio != nil {
		cardioSnapshot := *plan.Cardio
		if c.cardioDuration != "" {
			cardioSnapshot.Duration = c.cardioDuration
		}
		if c.cardioDistance != "" {
			cardioSnapshot.Distance = c.cardioDistance
		}
		cardioSnapshot.Calories = c.cardioCalories
		workoutLog.Cardio = &cardioSnapshot

		cardioDone := c.cardioDone
		workoutLog.CardioCompleted = &cardioDone
	}

	return workoutLog
}

// SubmitFeedback patches the just-created log with rating and comment,
// exactly once per session. An empty rating uses the pre-selected one.
func (c *Controller) SubmitFeedback(ctx context.Context, rating, comments string) error {
	c.mu.Lock()
	if c.state != StateAwaitingFeedback {
		c.mu.Unlock()
		return ErrNotAwaiting
	}
	if c.feedbackGiven {
		c.mu.Unlock()
		return ErrNotAwaiting
	}
	logID := c.pendingLogID
	c.mu.Unlock()

	if rating == "" {
		rating = DefaultRating
	}
	if !validRating(rating) {
		return ErrInvalidRating
	}

	patch := logs.FeedbackPatch{Rating: &rating}
	if comments != "" {
		patch.Comments = &comments
	}
	if err := c.gw.UpdateLogFeedback(ctx, logID, patch); err != nil {
		log.Errorf("submit feedback for log %s: %s", logID, err)
		return fmt.Errorf("submit feedback: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.logs {
		if c.logs[i].ID == logID {
			c.logs[i].Rating = rating
			if comments != "" {
				c.logs[i].Comments = comments
			}
			break
		}
	}
	c.feedbackGiven = true
	c.enterCompletedLocked()
	return nil
}

// SkipFeedback closes the feedback step without patching anything.
func (c *Controller) SkipFeedback() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAwaitingFeedback {
		return ErrNotAwaiting
	}
	c.feedbackGiven = true
	c.enterCompletedLocked()
	return nil
}

// enterCompletedLocked shows the transient success state, then resets
// back to a fresh session on the same plan.
func (c *Controller) enterCompletedLocked() {
	c.state = StateCompleted
	c.completedTimer = c.AfterFunc(c.CompletedStateDuration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state != StateCompleted {
			return
		}
		c.state = StatePlanSelected
		c.resetSessionState()
	})
}

// CreatePlan persists a new plan and, on success, puts it at the top of
// the local list.
// assignExerciseIDs gives fresh ids to exercises lacking one. Existing
// ids are kept so history snapshots stay tied to them.
func assignExerciseIDs(exercises []plans.Exercise) {
	for i := range exercises {
		if exercises[i].ID == "" {
			exercises[i].ID = uuid.NewString()
		}
	}
}

func (c *Controller) CreatePlan(ctx context.Context, plan plans.WorkoutPlan) (*plans.WorkoutPlan, error) {
	plan.UserID = c.userID
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	assignExerciseIDs(plan.Exercises)
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	createdPlan, err := c.gw.CreatePlan(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans = append([]plans.WorkoutPlan{*createdPlan}, c.plans...)
	return createdPlan, nil
}

// UpdatePlan replaces a plan's content. A selected plan stays selected,
// pointing at the updated content; the running session state is kept.
func (c *Controller) UpdatePlan(ctx context.Context, plan plans.WorkoutPlan) error {
	assignExerciseIDs(plan.Exercises)
	if err := plan.Validate(); err != nil {
		return err
	}

	if err := c.gw.ReplacePlan(ctx, plan); err != nil {
		return fmt.Errorf("update plan: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.plans {
		if c.plans[i].ID == plan.ID {
			plan.UserID = c.plans[i].UserID
			plan.CreatedAt = c.plans[i].CreatedAt
			c.plans[i] = plan
			if c.selectedPlan != nil && c.selectedPlan.ID == plan.ID {
				c.selectedPlan = &c.plans[i]
			}
			break
		}
	}
	return nil
}

// DeletePlan removes a plan. Deleting the selected plan ends the
// session and clears the remembered selection; deleting any other plan
// leaves the session untouched.
func (c *Controller) DeletePlan(ctx context.Context, planID string) error {
	if err := c.gw.DeletePlan(ctx, planID); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}

	c.mu.Lock()
	selectedID := ""
	if c.selectedPlan != nil {
		selectedID = c.selectedPlan.ID
	}

	// fresh slice: c.selectedPlan aliases the old backing array, an
	// in-place filter would shift another plan into the aliased slot
	remaining := make([]plans.WorkoutPlan, 0, len(c.plans))
	for _, p := range c.plans {
		if p.ID != planID {
			remaining = append(remaining, p)
		}
	}
	c.plans = remaining

	deselected := false
	if selectedID == planID {
		c.selectedPlan = nil
		c.state = StateNoPlanSelected
		c.resetSessionState()
		deselected = true
	} else if selectedID != "" {
		c.selectedPlan = c.findPlanLocked(selectedID)
	}
	c.mu.Unlock()

	if deselected {
		if err := c.prefs.SetSelectedPlan(ctx, ""); err != nil {
			log.Errorf("clear remembered plan selection: %s", err)
		}
	}
	return nil
}

// History renders the log list newest first. Logs with an embedded
// snapshot resolve from it; legacy logs fall back to the plan, and a
// deleted plan shows up as missing rather than erroring.
func (c *Controller) History() []HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]HistoryEntry, 0, len(c.logs))
	for _, wl := range c.logs {
		entry := HistoryEntry{Log: wl}

		if len(wl.Exercises) > 0 {
			entry.Exercises = wl.Exercises
			entry.Cardio = wl.Cardio
		} else if plan := c.findPlanLocked(wl.PlanID); plan != nil {
			entry.Exercises = plan.Exercises
			entry.Cardio = plan.Cardio
		} else {
			entry.Exercises = make([]plans.Exercise, 0)
			entry.PlanMissing = true
		}

		entries = append(entries, entry)
	}
	return entries
}

// Evolution fetches the derived chart series for the user.
func (c *Controller) Evolution(ctx context.Context) (*stats.Evolution, error) {
	return c.gw.Evolution(ctx, c.userID)
}

func (c *Controller) findPlanLocked(planID string) *plans.WorkoutPlan {
	for i := range c.plans {
		if c.plans[i].ID == planID {
			return &c.plans[i]
		}
	}
	return nil
}

func (c *Controller) planHasExerciseLocked(exerciseID string) bool {
	if c.selectedPlan == nil {
		return false
	}
	for i := range c.selectedPlan.Exercises {
		if c.selectedPlan.Exercises[i].ID == exerciseID {
			return true
		}
	}
	return false
}

func (c *Controller) resetSessionState() {
	c.completedExercises = make(map[string]bool)
	c.loads = make(map[string]string)
	c.setCounts = make(map[string]int)
	c.cardioDuration = ""
	c.cardioDistance = ""
	c.cardioCalories = ""
	c.cardioDone = false
	c.pendingLogID = ""
	c.feedbackGiven = false
	if c.countdown != nil {
		c.countdown.Dismiss()
	}
}

func validRating(rating string) bool {
	for _, r := range Ratings {
		if r == rating {
			return true
		}
	}
	return false
}
