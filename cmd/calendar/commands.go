package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/civil"

	"github.com/mmynk/calendar/internal/alarm"
	"github.com/mmynk/calendar/internal/calendar"
	"github.com/mmynk/calendar/internal/ical"
	"github.com/mmynk/calendar/internal/models"
	"github.com/mmynk/calendar/internal/recurrence"
)

var (
	errOverlap    = errors.New("event overlaps existing events; pass -force to save anyway")
	errNeedsScope = errors.New("event belongs to a recurring series; pass -scope single or -scope series")
)

// load refreshes the coordinator and turns a failed Result into an error.
func (a *app) load(ctx context.Context) error {
	return a.coord.Load(ctx).Err
}

func (a *app) find(id string) (models.Event, error) {
	e, ok := a.coord.Event(id)
	if !ok {
		return models.Event{}, fmt.Errorf("event %s not found", id)
	}
	return e, nil
}

func runList(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	from := fs.String("from", "", "first date to show (YYYY-MM-DD)")
	to := fs.String("to", "", "last date to show (YYYY-MM-DD)")
	query := fs.String("q", "", "search title, description, location and category")
	fs.Parse(args)

	lo, hi := civil.Date{Year: 1, Month: 1, Day: 1}, civil.Date{Year: 9999, Month: 12, Day: 31}
	var err error
	if *from != "" {
		if lo, err = parseDate(*from); err != nil {
			return err
		}
	}
	if *to != "" {
		if hi, err = parseDate(*to); err != nil {
			return err
		}
	}

	if err := a.load(ctx); err != nil {
		return err
	}
	events := calendar.Between(calendar.Search(a.coord.Events(), *query), lo, hi)
	return printEvents(a.out, events)
}

func runAdd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	var f eventFlags
	f.register(fs)
	f.registerRepeat(fs)
	force := fs.Bool("force", false, "save even when the event overlaps others")
	fs.Parse(args)

	event, err := f.event()
	if err != nil {
		return err
	}
	if err := event.Validate(); err != nil {
		return err
	}

	if event.Repeat.IsRecurring() {
		// an explicit end date wins over the configured horizon
		horizon := event.Date.AddDays(a.cfg.HorizonDays)
		if event.Repeat.EndDate != nil {
			horizon = *event.Repeat.EndDate
		}
		instances := calendar.PlanSeries(event, horizon)
		if len(instances) == 0 {
			return fmt.Errorf("recurrence produces no occurrences before %s", horizon)
		}
		return a.coord.SaveRecurringEvents(ctx, instances).Err
	}

	if err := a.load(ctx); err != nil {
		return err
	}
	if overlaps := calendar.FindOverlaps(event, a.coord.Events()); len(overlaps) > 0 {
		printOverlaps(a.out, overlaps)
		if !*force {
			return errOverlap
		}
	}
	return a.coord.SaveEvent(ctx, event).Err
}

func runEdit(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	id := fs.String("id", "", "event id")
	scopeName := fs.String("scope", "", "single or series, required for series members")
	var f eventFlags
	f.register(fs)
	fs.Parse(args)

	if *id == "" {
		return errors.New("-id is required")
	}
	scope, err := calendar.ParseScope(*scopeName)
	if err != nil {
		return err
	}

	if err := a.load(ctx); err != nil {
		return err
	}
	original, err := a.find(*id)
	if err != nil {
		return err
	}
	if calendar.NeedsScopePrompt(original) && !isSet(fs, "scope") {
		return errNeedsScope
	}

	edited := original.Clone()
	if err := f.apply(fs, &edited); err != nil {
		return err
	}
	if scope == calendar.ScopeSeries && edited.Date != original.Date {
		return errors.New("-date cannot be changed for a whole series")
	}
	return a.coord.ApplyEdit(ctx, original, edited, scope).Err
}

func runDelete(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("id", "", "event id")
	scopeName := fs.String("scope", "", "single or series, required for series members")
	fs.Parse(args)

	if *id == "" {
		return errors.New("-id is required")
	}
	scope, err := calendar.ParseScope(*scopeName)
	if err != nil {
		return err
	}

	if err := a.load(ctx); err != nil {
		return err
	}
	e, err := a.find(*id)
	if err != nil {
		return err
	}
	if calendar.NeedsScopePrompt(e) && !isSet(fs, "scope") {
		return errNeedsScope
	}
	return a.coord.ApplyDelete(ctx, e, scope).Err
}

func runPreview(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	var f eventFlags
	f.register(fs)
	f.registerRepeat(fs)
	from := fs.String("from", "", "first date to show (default: the event date)")
	to := fs.String("to", "", "last date to show (default: the configured horizon)")
	asICS := fs.Bool("ics", false, "print the template as iCalendar with an RRULE")
	fs.Parse(args)

	if f.title == "" {
		f.title = "preview"
	}
	template, err := f.event()
	if err != nil {
		return err
	}
	if err := template.Validate(); err != nil {
		return err
	}

	if *asICS {
		return ical.ExportTemplate(a.out, template, "preview")
	}

	lo, hi := template.Date, template.Date.AddDays(a.cfg.HorizonDays)
	if *from != "" {
		if lo, err = parseDate(*from); err != nil {
			return err
		}
	}
	if *to != "" {
		if hi, err = parseDate(*to); err != nil {
			return err
		}
	}

	occurrences := recurrence.Expand(template, lo, hi)
	for _, e := range occurrences {
		fmt.Fprintf(a.out, "%s %s  %s-%s\n", e.Date, e.Date.In(time.Local).Weekday().String()[:3], e.StartTime, e.EndTime)
	}
	fmt.Fprintf(a.out, "%d occurrences between %s and %s\n", len(occurrences), lo, hi)
	if next, ok := recurrence.Next(template, today()); ok {
		fmt.Fprintf(a.out, "next occurrence after today: %s\n", next)
	} else {
		fmt.Fprintln(a.out, "no occurrence after today")
	}
	return nil
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("o", "", "output file (default: stdout)")
	fs.Parse(args)

	if err := a.load(ctx); err != nil {
		return err
	}

	if *output == "" {
		return ical.Export(a.out, a.coord.Events())
	}
	file, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *output, err)
	}
	if err := ical.Export(file, a.coord.Events()); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func runWatch(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	schedule := fs.String("cron", a.cfg.AlarmCron, "check schedule (5-field cron)")
	fs.Parse(args)

	if err := a.load(ctx); err != nil {
		return err
	}
	w := alarm.NewWatcher(a.coord.Events, a.notifier, nil)
	w.Refresh = func(ctx context.Context) { a.coord.Load(ctx) }
	w.Check(time.Now())
	return w.Run(ctx, *schedule)
}
