package stats

import (
	"sort"
	"strconv"
	"strings"

	"github.com/olucas46/Pump-Di-rio/internal/logs"
)

const monthKeyLayout = "2006-01"

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type MuscleCount struct {
	Muscle string `json:"muscle"`
	Count  int    `json:"count"`
}

type MonthSum struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// Evolution holds the four chart series derived from a user's logs.
type Evolution struct {
	WorkoutsPerMonth       []MonthCount  `json:"workoutsPerMonth"`
	MuscleGroups           []MuscleCount `json:"muscleGroups"`
	CardioDurationPerMonth []MonthSum    `json:"cardioDurationPerMonth"`
	CardioDistancePerMonth []MonthSum    `json:"cardioDistancePerMonth"`
}

// MonthlyWorkoutCounts buckets logs per calendar month of their workout
// date, oldest month first.
func MonthlyWorkoutCounts(workoutLogs []logs.WorkoutLog) []MonthCount {
	month2count := make(map[string]int)
	for _, wl := range workoutLogs {
		month2count[wl.Date.Format(monthKeyLayout)]++
	}

	counts := make([]MonthCount, 0, len(month2count))
	for month, count := range month2count {
		counts = append(counts, MonthCount{Month: month, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Month < counts[j].Month
	})
	return counts
}

// MuscleGroupCounts counts exercise occurrences per muscle label across
// all logged sessions, most trained first. Blank labels are skipped,
// labels are trimmed before counting.
func MuscleGroupCounts(workoutLogs []logs.WorkoutLog) []MuscleCount {
	muscle2count := make(map[string]int)
	for _, wl := range workoutLogs {
		for _, e := range wl.Exercises {
			muscle := strings.TrimSpace(e.Muscle)
			if muscle == "" {
				continue
			}
			muscle2count[muscle]++
		}
	}

	counts := make([]MuscleCount, 0, len(muscle2count))
	for muscle, count := range muscle2count {
		counts = append(counts, MuscleCount{Muscle: muscle, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Muscle < counts[j].Muscle
	})
	return counts
}

// MonthlyCardioDuration sums cardio minutes per month over logs whose
// cardio was actually done.
func MonthlyCardioDuration(workoutLogs []logs.WorkoutLog) []MonthSum {
	return monthlyCardioSums(workoutLogs, func(wl logs.WorkoutLog) float64 {
		return ParseDecimal(wl.Cardio.Duration)
	}, false)
}

// MonthlyCardioDistance sums cardio distance per month over logs whose
// cardio was actually done. Months that sum to zero carry no signal for
// the distance chart and are dropped.
func MonthlyCardioDistance(workoutLogs []logs.WorkoutLog) []MonthSum {
	return monthlyCardioSums(workoutLogs, func(wl logs.WorkoutLog) float64 {
		return ParseDecimal(wl.Cardio.Distance)
	}, true)
}

func monthlyCardioSums(
	workoutLogs []logs.WorkoutLog,
	value func(wl logs.WorkoutLog) float64,
	dropZero bool,
) []MonthSum {
	month2sum := make(map[string]float64)
	for _, wl := range workoutLogs {
		if wl.Cardio == nil || wl.CardioCompleted == nil || !*wl.CardioCompleted {
			continue
		}
		month2sum[wl.Date.Format(monthKeyLayout)] += value(wl)
	}

	sums := make([]MonthSum, 0, len(month2sum))
	for month, total := range month2sum {
		if dropZero && total == 0 {
			continue
		}
		sums = append(sums, MonthSum{Month: month, Total: total})
	}
	sort.Slice(sums, func(i, j int) bool {
		return sums[i].Month < sums[j].Month
	})
	return sums
}

// ParseDecimal reads a decimal written with either a comma or a dot
// ("45,5" and "45.5" both give 45.5). Trailing text after the number is
// ignored, so "30 min" gives 30. Input with no leading number counts
// as zero.
func ParseDecimal(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))

	end := 0
	dotSeen := false
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		if c == '.' && !dotSeen {
			dotSeen = true
			end++
			continue
		}
		if end == 0 && (c == '-' || c == '+') {
			end++
			continue
		}
		break
	}

	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}
