package utils

import (
	"math"

	"eventstaff-backend/internal/domain"
)

const (
	MinScore  = 1.0
	MaxScore  = 5.0
	ScoreStep = 0.5

	// PointsPerLevel is the number of gamification points between levels.
	PointsPerLevel = 500
)

// ValidScore reports whether s is within [MinScore, MaxScore] and a multiple
// of ScoreStep.
func ValidScore(s float64) bool {
	if math.IsNaN(s) || s < MinScore || s > MaxScore {
		return false
	}
	steps := s / ScoreStep
	return steps == math.Trunc(steps)
}

// ValidateScores checks all four sub-metrics.
func ValidateScores(s domain.Scores) error {
	for _, v := range []float64{s.Punctuality, s.Posture, s.Productivity, s.Agility} {
		if !ValidScore(v) {
			return domain.ErrInvalidScore
		}
	}
	return nil
}

// Round1 rounds to one decimal place, halves away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// AverageScore is the rounded mean of the four sub-metrics.
func AverageScore(s domain.Scores) float64 {
	return Round1((s.Punctuality + s.Posture + s.Productivity + s.Agility) / 4)
}

// LevelFor derives the gamification level from accumulated points.
func LevelFor(points int32) domain.Level {
	if points < 0 {
		points = 0
	}
	level := points/PointsPerLevel + 1
	progress := float64(points-(level-1)*PointsPerLevel) / PointsPerLevel * 100
	return domain.Level{
		Level:       level,
		Points:      points,
		NextLevelAt: level * PointsPerLevel,
		Progress:    Round1(progress),
	}
}

// MeanRating averages ratings rounded to one decimal; zero when empty.
func MeanRating(ratings []float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	return Round1(sum / float64(len(ratings)))
}
