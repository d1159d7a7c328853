package cronparser

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	cron "github.com/netresearch/go-cron"
)

// ErrUnknownTimezone is returned for a tz that is not an IANA zone name.
var ErrUnknownTimezone = errors.New("unknown timezone")

var _parser = cron.MustNewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Parser computes next occurrences of five-field cron specs and
// descriptors such as "@hourly" or "@every 5m". Parsed schedules are cached,
// since the audit loop asks for the same spec on every pass.
type Parser struct {
	mu        sync.Mutex
	schedules map[string]cron.Schedule
}

// New creates a new cron parser.
func New() *Parser {
	return &Parser{
		schedules: make(map[string]cron.Schedule),
	}
}

// NextAfter returns the next occurrence of spec strictly after `after`.
// An inline CRON_TZ=/TZ= prefix wins over tz; with neither, UTC is used.
func (p *Parser) NextAfter(
	spec,
	tz string,
	after time.Time,
) (time.Time, error) {
	schedule, err := p.schedule(spec, tz)
	if err != nil {
		return time.Time{}, err
	}

	return schedule.Next(after), nil
}

func (p *Parser) schedule(spec, tz string) (cron.Schedule, error) {
	fullSpec, err := buildSpec(strings.TrimSpace(spec), tz)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if schedule, ok := p.schedules[fullSpec]; ok {
		return schedule, nil
	}

	schedule, err := _parser.Parse(fullSpec)
	if err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}

	p.schedules[fullSpec] = schedule

	return schedule, nil
}

func buildSpec(spec, tz string) (string, error) {
	if strings.HasPrefix(spec, "CRON_TZ=") || strings.HasPrefix(spec, "TZ=") {
		return spec, nil
	}

	if tz == "" {
		tz = "UTC"
	}

	if _, err := time.LoadLocation(tz); err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownTimezone, tz)
	}

	return "CRON_TZ=" + tz + " " + spec, nil
}
