package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mmynk/calendar/internal/models"
)

func printEvents(w io.Writer, events []models.Event) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tTITLE\tCATEGORY\tREPEAT\tALARM")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\t%s\t%s\t%dm\n",
			e.ID, e.Date, e.StartTime, e.EndTime, e.Title, e.Category, describeRepeat(e.Repeat), e.NotificationTime)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d events\n", len(events))
	return nil
}

// describeRepeat renders a spec as "weekly/2 until 2025-10-31 [series a1b2c3d4]".
func describeRepeat(r models.RepeatSpec) string {
	if !r.IsRecurring() {
		return "-"
	}
	s := r.Type.String()
	if r.Interval != 1 {
		s += fmt.Sprintf("/%d", r.Interval)
	}
	if r.EndDate != nil {
		s += " until " + r.EndDate.String()
	}
	if r.GroupID != "" {
		id := r.GroupID
		if len(id) > 8 {
			id = id[:8]
		}
		s += " [series " + id + "]"
	}
	return s
}

// overlapLine renders an event as "기존 회의 (2025-10-15 09:00-10:00)".
func overlapLine(e models.Event) string {
	return fmt.Sprintf("%s (%s %s-%s)", e.Title, e.Date, e.StartTime, e.EndTime)
}

func printOverlaps(w io.Writer, overlaps []models.Event) {
	fmt.Fprintln(w, "일정 겹침 경고")
	fmt.Fprintln(w, "다음 일정과 겹칩니다:")
	for _, e := range overlaps {
		fmt.Fprintln(w, "  "+overlapLine(e))
	}
}
