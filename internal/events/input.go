package events

import (
	"strings"
	"time"

	"github.com/Learn-Trical-23/EE-24/internal/apperr"
	"github.com/Learn-Trical-23/EE-24/internal/model"
)

const (
	minYear = 1000
	maxYear = 9999
)

// Layouts accepted for datetime fields. Zone-less values are read as UTC.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

var dateLayouts = append(append([]string{}, datetimeLayouts...), "2006-01-02")

// Input is the client payload for creating or updating an event.
type Input struct {
	Title       string  `json:"title"`
	Datetime    string  `json:"datetime"`
	MentionDate *string `json:"mention_date"`
	Module      *string `json:"module"`
	Kind        *string `json:"kind"`
}

// Fields validates the input and applies defaults: kind other, no mention date, empty module.
func (in Input) Fields() (model.EventFields, error) {
	fields := model.EventFields{
		Title: strings.TrimSpace(in.Title),
		Kind:  model.KindOther,
	}
	if fields.Title == "" {
		return model.EventFields{}, apperr.Invalid("title_required", "title must not be empty")
	}

	at, err := parseTime(in.Datetime, datetimeLayouts, "datetime")
	if err != nil {
		return model.EventFields{}, err
	}
	fields.Datetime = at

	if in.MentionDate != nil && strings.TrimSpace(*in.MentionDate) != "" {
		mention, err := parseTime(*in.MentionDate, dateLayouts, "mention_date")
		if err != nil {
			return model.EventFields{}, err
		}
		fields.MentionDate = &mention
	}

	if in.Module != nil {
		fields.Module = strings.TrimSpace(*in.Module)
	}

	if in.Kind != nil && *in.Kind != "" {
		kind := model.EventKind(*in.Kind)
		if !kind.Valid() {
			return model.EventFields{}, apperr.Invalid("invalid_kind", "kind must be assignment, quiz or other")
		}
		fields.Kind = kind
	}
	return fields, nil
}

func parseTime(value string, layouts []string, field string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, apperr.Invalid(field+"_required", field+" must not be empty")
	}
	if leadingDigits(value) > 4 {
		return time.Time{}, apperr.Invalid("invalid_year", field+" year must be between 1000 and 9999")
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if y := parsed.Year(); y < minYear || y > maxYear {
			return time.Time{}, apperr.Invalid("invalid_year", field+" year must be between 1000 and 9999")
		}
		return parsed.UTC(), nil
	}
	return time.Time{}, apperr.Invalid("invalid_"+field, field+" must be an ISO 8601 date and time")
}

func leadingDigits(value string) int {
	n := 0
	for n < len(value) && value[n] >= '0' && value[n] <= '9' {
		n++
	}
	return n
}
