package main

import (
	"flag"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/mmynk/calendar/internal/models"
)

// eventFlags binds the event fields to a flag set.
type eventFlags struct {
	title       string
	date        string
	start       string
	end         string
	description string
	location    string
	category    string
	notify      int

	// recurrence; only registered by commands that accept it
	repeat   string
	interval int
	until    string
}

func (f *eventFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.title, "title", "", "event title")
	fs.StringVar(&f.date, "date", "", "event date (YYYY-MM-DD)")
	fs.StringVar(&f.start, "start", "09:00", "start time (HH:MM)")
	fs.StringVar(&f.end, "end", "10:00", "end time (HH:MM)")
	fs.StringVar(&f.description, "desc", "", "description")
	fs.StringVar(&f.location, "location", "", "location")
	fs.StringVar(&f.category, "category", string(models.CategoryWork), "category (업무, 개인, 가족, 기타 or work, personal, family, other)")
	fs.IntVar(&f.notify, "notify", 10, "alarm lead time in minutes")
}

func (f *eventFlags) registerRepeat(fs *flag.FlagSet) {
	fs.StringVar(&f.repeat, "repeat", "none", "recurrence: none, daily, weekly, monthly, yearly")
	fs.IntVar(&f.interval, "interval", 1, "recurrence interval")
	fs.StringVar(&f.until, "until", "", "last date of the recurrence (YYYY-MM-DD)")
}

// event builds an unsaved event from every flag value.
func (f *eventFlags) event() (models.Event, error) {
	if f.date == "" {
		return models.Event{}, fmt.Errorf("-date is required")
	}
	date, err := parseDate(f.date)
	if err != nil {
		return models.Event{}, err
	}
	category, err := models.ParseCategory(f.category)
	if err != nil {
		return models.Event{}, err
	}

	e := models.Event{
		Title:            f.title,
		Date:             date,
		StartTime:        f.start,
		EndTime:          f.end,
		Description:      f.description,
		Location:         f.location,
		Category:         category,
		NotificationTime: f.notify,
		Repeat:           models.RepeatSpec{Type: models.RepeatNone, Interval: 1},
	}
	if f.repeat != "" {
		spec, err := f.repeatSpec()
		if err != nil {
			return models.Event{}, err
		}
		e.Repeat = spec
	}
	return e, nil
}

func (f *eventFlags) repeatSpec() (models.RepeatSpec, error) {
	t, err := models.ParseRepeatType(f.repeat)
	if err != nil {
		return models.RepeatSpec{}, err
	}
	spec := models.RepeatSpec{Type: t, Interval: f.interval}
	if f.until != "" {
		end, err := parseDate(f.until)
		if err != nil {
			return models.RepeatSpec{}, err
		}
		spec.EndDate = &end
	}
	return spec, nil
}

// apply copies the flags that were set on the command line onto e.
func (f *eventFlags) apply(fs *flag.FlagSet, e *models.Event) error {
	var err error
	fs.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "title":
			e.Title = f.title
		case "date":
			e.Date, err = parseDate(f.date)
		case "start":
			e.StartTime = f.start
		case "end":
			e.EndTime = f.end
		case "desc":
			e.Description = f.description
		case "location":
			e.Location = f.location
		case "category":
			e.Category, err = models.ParseCategory(f.category)
		case "notify":
			e.NotificationTime = f.notify
		}
	})
	return err
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

func parseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}

func today() civil.Date {
	return civil.DateOf(time.Now())
}
