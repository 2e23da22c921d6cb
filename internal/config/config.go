// Package config holds the timing and tolerance constants of the console
// engines and loads overrides from YAML or CUE files.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Tuning is every constant the engines consult.
// Durations are whole milliseconds so the same shape works in YAML and CUE.
type Tuning struct {
	// RecentlyFixedMs is the cosmetic window after a complication clears.
	RecentlyFixedMs int `yaml:"recently_fixed_ms" json:"recently_fixed_ms"`

	Laser    LaserTuning    `yaml:"laser" json:"laser"`
	Lights   LightsTuning   `yaml:"lights" json:"lights"`
	Controls ControlsTuning `yaml:"controls" json:"controls"`
}

// LaserTuning configures the slider-alignment engine.
type LaserTuning struct {
	ShakeMs int `yaml:"shake_ms" json:"shake_ms"`
}

// LightsTuning configures the sequence-memory engine.
type LightsTuning struct {
	SequenceLength      int `yaml:"sequence_length" json:"sequence_length"`
	MaxedSequenceLength int `yaml:"maxed_sequence_length" json:"maxed_sequence_length"`
	RecenterMs          int `yaml:"recenter_ms" json:"recenter_ms"`
	LeadInMs            int `yaml:"lead_in_ms" json:"lead_in_ms"`
	FlashMs             int `yaml:"flash_ms" json:"flash_ms"`
	GapMs               int `yaml:"gap_ms" json:"gap_ms"`
	BeatMs              int `yaml:"beat_ms" json:"beat_ms"`
	ReplayPauseMs       int `yaml:"replay_pause_ms" json:"replay_pause_ms"`
}

// ControlsTuning configures the rotational-alignment engine.
type ControlsTuning struct {
	Required      int     `yaml:"required" json:"required"`
	MaxedRequired int     `yaml:"maxed_required" json:"maxed_required"`
	ToleranceDeg  float64 `yaml:"tolerance_deg" json:"tolerance_deg"`
	ShakeMs       int     `yaml:"shake_ms" json:"shake_ms"`
	PressFlashMs  int     `yaml:"press_flash_ms" json:"press_flash_ms"`
	DialCenterX   float64 `yaml:"dial_center_x" json:"dial_center_x"`
	DialCenterY   float64 `yaml:"dial_center_y" json:"dial_center_y"`
}

// MaxSequenceLength bounds the lights sequence: three buttons, each used at
// most twice.
const MaxSequenceLength = 6

// Default returns the stock tuning.
func Default() Tuning {
	return Tuning{
		RecentlyFixedMs: 2500,
		Laser: LaserTuning{
			ShakeMs: 300,
		},
		Lights: LightsTuning{
			SequenceLength:      4,
			MaxedSequenceLength: 3,
			RecenterMs:          400,
			LeadInMs:            300,
			FlashMs:             200,
			GapMs:               100,
			BeatMs:              100,
			ReplayPauseMs:       300,
		},
		Controls: ControlsTuning{
			Required:      4,
			MaxedRequired: 3,
			ToleranceDeg:  15,
			ShakeMs:       300,
			PressFlashMs:  150,
			DialCenterX:   100,
			DialCenterY:   100,
		},
	}
}

// Ms converts a millisecond count to a Duration.
func Ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// RecentlyFixed returns the recently-fixed window.
func (t Tuning) RecentlyFixed() time.Duration { return Ms(t.RecentlyFixedMs) }

// SequenceLengthFor returns the lights sequence length for the maxed flag.
func (l LightsTuning) SequenceLengthFor(maxed bool) int {
	if maxed {
		return l.MaxedSequenceLength
	}
	return l.SequenceLength
}

// RequiredFor returns the consecutive alignments needed for the maxed flag.
func (c ControlsTuning) RequiredFor(maxed bool) int {
	if maxed {
		return c.MaxedRequired
	}
	return c.Required
}

// FieldError describes one invalid tuning field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every invalid field found by Validate.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return "invalid tuning: " + strings.Join(parts, "; ")
}

// Validate checks ranges and cross-field constraints. It returns a
// *ValidationError listing every problem, or nil.
func (t Tuning) Validate() error {
	var errs []FieldError
	positive := func(field string, v int) {
		if v <= 0 {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("must be > 0, got %d", v)})
		}
	}

	positive("recently_fixed_ms", t.RecentlyFixedMs)
	positive("laser.shake_ms", t.Laser.ShakeMs)
	positive("lights.recenter_ms", t.Lights.RecenterMs)
	positive("lights.lead_in_ms", t.Lights.LeadInMs)
	positive("lights.flash_ms", t.Lights.FlashMs)
	positive("lights.gap_ms", t.Lights.GapMs)
	positive("lights.beat_ms", t.Lights.BeatMs)
	positive("lights.replay_pause_ms", t.Lights.ReplayPauseMs)
	positive("controls.shake_ms", t.Controls.ShakeMs)
	positive("controls.press_flash_ms", t.Controls.PressFlashMs)
	positive("controls.required", t.Controls.Required)
	positive("controls.maxed_required", t.Controls.MaxedRequired)

	for field, v := range map[string]int{
		"lights.sequence_length":       t.Lights.SequenceLength,
		"lights.maxed_sequence_length": t.Lights.MaxedSequenceLength,
	} {
		if v < 1 || v > MaxSequenceLength {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("must be in 1..%d, got %d", MaxSequenceLength, v)})
		}
	}

	if t.Lights.MaxedSequenceLength > t.Lights.SequenceLength {
		errs = append(errs, FieldError{Field: "lights.maxed_sequence_length", Message: "must not exceed sequence_length"})
	}
	if t.Controls.MaxedRequired > t.Controls.Required {
		errs = append(errs, FieldError{Field: "controls.maxed_required", Message: "must not exceed required"})
	}
	if t.Controls.ToleranceDeg <= 0 || t.Controls.ToleranceDeg >= 45 {
		errs = append(errs, FieldError{Field: "controls.tolerance_deg", Message: fmt.Sprintf("must be in (0, 45), got %g", t.Controls.ToleranceDeg)})
	}

	if len(errs) == 0 {
		return nil
	}
	sortFieldErrors(errs)
	return &ValidationError{Fields: errs}
}

func sortFieldErrors(errs []FieldError) {
	for i := 1; i < len(errs); i++ {
		for j := i; j > 0 && errs[j].Field < errs[j-1].Field; j-- {
			errs[j], errs[j-1] = errs[j-1], errs[j]
		}
	}
}
