package ical_test

import (
	"strings"
	"testing"
	"time"

	"bsid.es/despertador"
	"bsid.es/despertador/ical"
)

func TestEncode(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	alarms := []despertador.Alarm{{
		ID:          "daily-1",
		Title:       "morning run",
		Description: "5k around the park",
		TriggerTime: time.Date(2025, 1, 2, 7, 0, 0, 0, time.UTC),
		Repeat:      despertador.RepeatDaily,
		Active:      true,
		UpdatedAt:   now,
	}, {
		ID:          "once-1",
		Title:       "dentist",
		TriggerTime: time.Date(2025, 1, 10, 15, 30, 0, 0, time.UTC),
		Repeat:      despertador.RepeatNone,
		Active:      true,
		UpdatedAt:   now,
	}, {
		ID:          "off-1",
		Title:       "disabled",
		TriggerTime: time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC),
		Repeat:      despertador.RepeatWeekly,
		Active:      false,
		UpdatedAt:   now,
	}}

	out := ical.Encode(alarms)

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:daily-1",
		"SUMMARY:morning run",
		"DESCRIPTION:5k around the park",
		"RRULE:FREQ=DAILY",
		"UID:once-1",
		"SUMMARY:dentist",
		"END:VCALENDAR",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}

	if strings.Contains(out, "UID:off-1") {
		t.Error("inactive alarm was exported")
	}

	// One-shot events must not carry a recurrence rule.
	onceBlock := out[strings.Index(out, "UID:once-1"):]
	if end := strings.Index(onceBlock, "END:VEVENT"); end >= 0 {
		onceBlock = onceBlock[:end]
	}
	if strings.Contains(onceBlock, "RRULE") {
		t.Error("one-shot alarm carries an RRULE")
	}
}

func TestRepeatRules(t *testing.T) {
	alarm := despertador.Alarm{
		ID:          "a",
		Title:       "t",
		TriggerTime: time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC),
		Active:      true,
	}

	tests := []struct {
		repeat despertador.RepeatType
		want   string
	}{
		{despertador.RepeatDaily, "RRULE:FREQ=DAILY"},
		{despertador.RepeatWeekly, "RRULE:FREQ=WEEKLY"},
		{despertador.RepeatMonthly, "RRULE:FREQ=MONTHLY"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.repeat), func(t *testing.T) {
			alarm.Repeat = tt.repeat
			out := ical.Encode([]despertador.Alarm{alarm})
			if !strings.Contains(out, tt.want) {
				t.Errorf("missing %q in output:\n%s", tt.want, out)
			}
		})
	}
}
