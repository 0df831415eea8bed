// Package ical renders events as RFC 5545 iCalendar data.
package ical

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/mmynk/calendar/internal/alarm"
	"github.com/mmynk/calendar/internal/models"
)

const productID = "-//mmynk//calendar//KO"

// PropertyGroupID carries the series group identifier of a materialized member.
const PropertyGroupID = ical.ComponentProperty("X-GROUP-ID")

var frequencies = map[models.RepeatType]rrule.Frequency{
	models.RepeatDaily:   rrule.DAILY,
	models.RepeatWeekly:  rrule.WEEKLY,
	models.RepeatMonthly: rrule.MONTHLY,
	models.RepeatYearly:  rrule.YEARLY,
}

// RRule renders spec as an RRULE value such as "FREQ=WEEKLY;INTERVAL=2".
// The end date, when set, becomes an inclusive UNTIL at the end of that day
// in loc.
func RRule(spec models.RepeatSpec, loc *time.Location) (string, error) {
	freq, ok := frequencies[spec.Type]
	if !ok {
		return "", fmt.Errorf("repeat type %s has no recurrence rule", spec.Type)
	}
	opt := rrule.ROption{Freq: freq, Interval: spec.Interval}
	if spec.EndDate != nil {
		opt.Until = spec.EndDate.AddDays(1).In(loc).Add(-time.Second)
	}
	if _, err := rrule.NewRRule(opt); err != nil {
		return "", fmt.Errorf("failed to build recurrence rule: %w", err)
	}
	return opt.RRuleString(), nil
}

// Export writes one VEVENT per stored event. Series members stay separate
// events and carry X-GROUP-ID instead of a recurrence rule.
func Export(w io.Writer, events []models.Event) error {
	cal := newCalendar()
	stamp := time.Now()
	for _, e := range events {
		ve := addEvent(cal, e, e.ID, stamp)
		if e.Repeat.GroupID != "" {
			ve.SetProperty(PropertyGroupID, e.Repeat.GroupID)
		}
	}
	return cal.SerializeTo(w)
}

// ExportTemplate writes a single recurring VEVENT for an unsaved template,
// with its recurrence expressed as an RRULE.
func ExportTemplate(w io.Writer, template models.Event, uid string) error {
	cal := newCalendar()
	ve := addEvent(cal, template, uid, time.Now())
	if template.Repeat.IsRecurring() {
		rule, err := RRule(template.Repeat, time.Local)
		if err != nil {
			return err
		}
		ve.AddRrule(rule)
	}
	return cal.SerializeTo(w)
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	return cal
}

func addEvent(cal *ical.Calendar, e models.Event, uid string, stamp time.Time) *ical.VEvent {
	ve := cal.AddEvent(uid)
	ve.SetDtStampTime(stamp)
	ve.SetStartAt(e.Start())
	ve.SetEndAt(e.End())
	ve.SetSummary(e.Title)
	if e.Description != "" {
		ve.SetDescription(e.Description)
	}
	if e.Location != "" {
		ve.SetLocation(e.Location)
	}
	ve.AddCategory(string(e.Category))

	if e.NotificationTime > 0 {
		va := ve.AddAlarm()
		va.SetAction(ical.ActionDisplay)
		va.SetTrigger(fmt.Sprintf("-PT%dM", e.NotificationTime))
		va.SetProperty(ical.ComponentPropertyDescription, alarm.Message(e))
	}
	return ve
}
