package main

// Small CLI for running a workout session against a pump backend.

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olucas46/Pump-Di-rio/internal/client"
	"github.com/olucas46/Pump-Di-rio/internal/session"
)

func init() {
	log.SetOutput(os.Stdout)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverURL := flag.String("server", "http://localhost:9000", "pump backend base URL")
	token := flag.String("token", "", "session token (X-PUMP-TOKEN)")
	userID := flag.String("user", "", "user id")
	flag.Parse()

	if *userID == "" {
		fmt.Println("Error: -user is required")
		os.Exit(1)
	}
	if *token == "" {
		fmt.Println("Error: -token is required (login via POST /a/login first)")
		os.Exit(1)
	}

	gateway := client.NewGateway(*serverURL, *token, nil)
	prefs, err := newFilePrefStore(*userID)
	if err != nil {
		log.Fatalf("pref store: %s", err)
	}

	controller := session.NewController(*userID, gateway, prefs, func(exerciseID string) {
		// terminal bell as the audible rest cue
		fmt.Printf("\a >> rest over for %s, back to work\n", exerciseID)
	})

	if err := controller.Load(ctx); err != nil {
		log.Fatalf("load: %s", err)
	}

	// the countdown is tick driven, one tick per second
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			controller.Countdown().Tick()
		}
	}()

	fmt.Printf("pump session for [%s], state: %s\n", *userID, controller.State())
	fmt.Println("type 'help' for commands")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		runCommand(ctx, controller, line)
	}
}

func runCommand(ctx context.Context, controller *session.Controller, line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "help":
		printHelp()
	case "state":
		fmt.Printf("state: %s\n", controller.State())
		if plan := controller.SelectedPlan(); plan != nil {
			fmt.Printf("plan: [%s] %s\n", plan.ID, plan.Name)
		}
	case "plans":
		for _, plan := range controller.Plans() {
			fmt.Printf("[%s] %s (%d exercises)\n", plan.ID, plan.Name, len(plan.Exercises))
		}
	case "select":
		if len(args) != 1 {
			err = fmt.Errorf("usage: select <planId>")
			break
		}
		err = controller.SelectPlan(ctx, args[0])
	case "exercises":
		plan := controller.SelectedPlan()
		if plan == nil {
			err = fmt.Errorf("no plan selected")
			break
		}
		for _, exercise := range plan.Exercises {
			done := " "
			if controller.ExerciseDone(exercise.ID) {
				done = "x"
			}
			fmt.Printf("[%s] (%s) %s %sx%s, load: %q\n",
				exercise.ID, done, exercise.Name, exercise.Sets, exercise.Reps,
				controller.RecordedLoad(exercise.ID),
			)
		}
	case "toggle":
		if len(args) != 1 {
			err = fmt.Errorf("usage: toggle <exerciseId>")
			break
		}
		err = controller.ToggleExerciseDone(args[0])
	case "load":
		if len(args) < 2 {
			err = fmt.Errorf("usage: load <exerciseId> <load>")
			break
		}
		err = controller.SetLoad(args[0], strings.Join(args[1:], " "))
	case "rest":
		if len(args) != 1 {
			err = fmt.Errorf("usage: rest <exerciseId>")
			break
		}
		err = controller.StartRest(args[0])
	case "pause":
		controller.Countdown().Pause()
	case "resume":
		controller.Countdown().Resume()
	case "dismiss":
		controller.Countdown().Dismiss()
	case "countdown":
		countdown := controller.Countdown()
		fmt.Printf("%s (%s): %ds left\n",
			countdown.State(), countdown.ExerciseID(), countdown.Remaining())
	case "cardio":
		if len(args) != 3 {
			err = fmt.Errorf("usage: cardio <duration> <distance> <calories>")
			break
		}
		err = controller.SetCardioActuals(args[0], args[1], args[2])
	case "cardio-done":
		err = controller.SetCardioDone(true)
	case "finish":
		createdLog, finishErr := controller.Finish(ctx)
		if finishErr != nil {
			err = finishErr
			break
		}
		fmt.Printf("logged workout [%s], how did it go?\n", createdLog.ID)
		fmt.Printf("ratings: %s (rate <emoji> [comment...] or skip)\n",
			strings.Join(session.Ratings, " "))
	case "rate":
		if len(args) < 1 {
			err = fmt.Errorf("usage: rate <emoji> [comment...]")
			break
		}
		err = controller.SubmitFeedback(ctx, args[0], strings.Join(args[1:], " "))
	case "skip":
		err = controller.SkipFeedback()
	case "history":
		for _, entry := range controller.History() {
			planName := entry.Log.PlanName
			if entry.PlanMissing {
				planName += " (plan no longer exists)"
			}
			fmt.Printf("[%s] %s: %s, %d exercises done, rating: %s\n",
				entry.Log.Date.Format("2006-01-02"), planName,
				entry.Log.Comments, len(entry.Log.CompletedExerciseIDs), entry.Log.Rating)
		}
	case "evolution":
		evolution, evoErr := controller.Evolution(ctx)
		if evoErr != nil {
			err = evoErr
			break
		}
		for _, monthCount := range evolution.WorkoutsPerMonth {
			fmt.Printf("%s: %d workouts\n", monthCount.Month, monthCount.Count)
		}
		for _, muscleCount := range evolution.MuscleGroups {
			fmt.Printf("%s: %d exercises\n", muscleCount.Muscle, muscleCount.Count)
		}
	default:
		err = fmt.Errorf("unknown command %q, try 'help'", cmd)
	}

	if err != nil {
		fmt.Printf("error: %s\n", err)
	}
}

func printHelp() {
	fmt.Print(`commands:
  state                                current state and selected plan
  plans                                list workout plans
  select <planId>                      select a plan, start a session
  exercises                            list selected plan exercises
  toggle <exerciseId>                  mark exercise done / not done
  load <exerciseId> <load>             record the load used
  rest <exerciseId>                    start (or cancel) the rest countdown
  pause | resume | dismiss | countdown rest countdown controls
  cardio <duration> <distance> <kcal>  record cardio actuals
  cardio-done                          mark cardio completed
  finish                               finish the workout, log it
  rate <emoji> [comment...]            submit feedback
  skip                                 skip feedback
  history                              past workouts
  evolution                            monthly and per-muscle totals
  quit
`)
}

// newFilePrefStore keeps the remembered plan selection in a dotfile in
// the user's home dir, one file per user.
func newFilePrefStore(userID string) (*filePrefStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &filePrefStore{
		path: filepath.Join(homeDir, fmt.Sprintf(".pump-selected-plan-%s", userID)),
	}, nil
}

type filePrefStore struct {
	path string
}

func (ps *filePrefStore) SelectedPlan(_ context.Context) (string, error) {
	content, err := os.ReadFile(ps.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(content)), nil
}

func (ps *filePrefStore) SetSelectedPlan(_ context.Context, planID string) error {
	if planID == "" {
		err := os.Remove(ps.path)
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.WriteFile(ps.path, []byte(planID), 0o600)
}
