// Package ical renders the alarm collection as an iCalendar feed so other
// calendar clients can subscribe to it.
package ical

import (
	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"bsid.es/despertador"
)

// Calendar maps every active alarm to a VEVENT. Recurring alarms carry an
// RRULE matching their repeat type; one-shot alarms are plain events.
func Calendar(alarms []despertador.Alarm) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//bsid.es//despertador//EN")

	for _, a := range alarms {
		if !a.Active {
			continue
		}
		ev := cal.AddEvent(a.ID)
		ev.SetSummary(a.Title)
		if a.Description != "" {
			ev.SetDescription(a.Description)
		}
		ev.SetStartAt(a.TriggerTime)
		ev.SetDtStampTime(a.UpdatedAt)
		if rule := repeatRule(a.Repeat); rule != "" {
			ev.AddRrule(rule)
		}
	}
	return cal
}

// Encode serializes the alarms as an iCalendar document.
func Encode(alarms []despertador.Alarm) string {
	return Calendar(alarms).Serialize()
}

func repeatRule(repeat despertador.RepeatType) string {
	var freq rrule.Frequency
	switch repeat {
	case despertador.RepeatDaily:
		freq = rrule.DAILY
	case despertador.RepeatWeekly:
		freq = rrule.WEEKLY
	case despertador.RepeatMonthly:
		freq = rrule.MONTHLY
	default:
		return ""
	}
	opt := rrule.ROption{Freq: freq}
	return opt.RRuleString()
}
