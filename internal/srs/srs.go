// Package srs implements the SM-2 style scheduling rule. It is a pure
// function of its inputs: no clock, no storage, no state.
package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/memodeck/memodeck/internal/domain"
)

// Quality is the learner's self-assessment of a recall, 0 (blackout)
// through 5 (perfect). Qualities 0-3 count as failed recalls, 4-5 as
// successful ones.
type Quality int

const (
	// MinQuality and MaxQuality bound the accepted rating scale.
	MinQuality Quality = 0
	MaxQuality Quality = 5

	// passThreshold separates failed from successful recalls.
	passThreshold Quality = 4

	// minEaseFactor is the floor below which the ease factor never drops.
	minEaseFactor = 1.3
)

// Result is the scheduling state produced by a review.
type Result struct {
	Repetitions  int
	EaseFactor   float64
	IntervalDays int
}

// Update computes the next scheduling state from a review.
//
// A quality below 4 resets repetitions to 0 and schedules the card for
// tomorrow. A passing quality increments repetitions and grows the
// interval: 1 day after the first success, 6 after the second, then
// ceil(interval * ease) after that. Growth compounds on the prior stored
// interval and has no upper cap. The ease factor is adjusted on every
// review, pass or fail, and floored at 1.3.
//
// A quality outside 0..5 is a caller contract violation and is rejected
// with domain.ErrValidation rather than clamped.
func Update(quality Quality, repetitions int, easeFactor float64, intervalDays int) (Result, error) {
	if quality < MinQuality || quality > MaxQuality {
		return Result{}, fmt.Errorf("%w: quality %d outside 0..5", domain.ErrValidation, quality)
	}

	var r Result
	if quality < passThreshold {
		r.Repetitions = 0
		r.IntervalDays = 1
	} else {
		r.Repetitions = repetitions + 1
		switch r.Repetitions {
		case 1:
			r.IntervalDays = 1
		case 2:
			r.IntervalDays = 6
		default:
			r.IntervalDays = int(math.Ceil(float64(intervalDays) * easeFactor))
		}
	}

	q := float64(quality)
	r.EaseFactor = easeFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if r.EaseFactor < minEaseFactor {
		r.EaseFactor = minEaseFactor
	}

	return r, nil
}

// DueAt converts a day count into an absolute due timestamp. Kept here so
// callers agree on the conversion while Update itself stays clock-free.
func DueAt(now time.Time, intervalDays int) time.Time {
	return now.AddDate(0, 0, intervalDays)
}
