package llm

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"January 2006",
	"Jan 2006",
	"January, 2006",
	"01/2006",
	"2006",
}

// DateParser applies the resume date policy: ISO dates, "Month YYYY" and
// "Present" are understood; anything else becomes now and is logged.
type DateParser struct {
	now    func() time.Time
	logger *zap.Logger
}

func NewDateParser(now func() time.Time, logger *zap.Logger) *DateParser {
	if now == nil {
		now = time.Now
	}
	return &DateParser{now: now, logger: logger}
}

// Parse returns nil for an empty value.
func (p *DateParser) Parse(field, value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	switch strings.ToLower(value) {
	case "present", "current", "now", "today":
		now := p.now()
		return &now
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	if t, err := dateparse.ParseStrict(value); err == nil {
		return &t
	}

	now := p.now()
	p.logger.Warn("unparseable date, using current date",
		zap.String("field", field),
		zap.String("value", value),
	)
	return &now
}
