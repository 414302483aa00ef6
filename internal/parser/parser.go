// Package parser converts raw command arguments into navigation inputs.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/routecue/waypointd/internal/geo"
	"github.com/routecue/waypointd/internal/util"
	"github.com/routecue/waypointd/pkg/core"
)

// ErrMissingArgs is returned when a command carries fewer arguments than it needs.
var ErrMissingArgs = errors.New("missing arguments")

// parseIntFromFloat parses a string that may be an integer ("32") or float ("32.00") into int64.
// Clients that only know one number type serialize integers as floats.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

// parseFlag accepts the boolean spellings clients send: true/false, 1/0, on/off.
func parseFlag(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v, nil
	}
	n, err := parseIntFromFloat(s)
	if err != nil {
		return false, fmt.Errorf("invalid flag %q", s)
	}
	return n != 0, nil
}

func requireArgs(data []string, n int) error {
	if len(data) < n {
		return fmt.Errorf("%w: expected %d, got %d", ErrMissingArgs, n, len(data))
	}
	return nil
}

// Parser provides pure []string -> navigation input conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// ParseFix parses a location fix: lat, lon, optional speed in m/s and
// optional RFC3339 time. A missing or negative speed means none was reported.
func (p *Parser) ParseFix(data []string) (core.Fix, error) {
	var fix core.Fix
	util.CleanArgs(data)
	if err := requireArgs(data, 2); err != nil {
		return fix, err
	}
	return p.parseFix(data)
}

func (p *Parser) parseFix(data []string) (core.Fix, error) {
	var fix core.Fix

	lat, err := strconv.ParseFloat(data[0], 64)
	if err != nil {
		return fix, fmt.Errorf("error parsing latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(data[1], 64)
	if err != nil {
		return fix, fmt.Errorf("error parsing longitude: %w", err)
	}
	fix.LatLon = core.LatLon{Lat: lat, Lon: lon}
	if !geo.Valid(fix.LatLon) {
		return fix, geo.ErrInvalidCoordinates
	}

	if s := util.Arg(data, 2); s != "" {
		speed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fix, fmt.Errorf("error parsing speed: %w", err)
		}
		if speed >= 0 {
			fix.Speed = speed
			fix.HasSpeed = true
		}
	}

	if s := util.Arg(data, 3); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fix, fmt.Errorf("error parsing time: %w", err)
		}
		fix.Time = ts
	}
	return fix, nil
}

// ParseCategoryToggle parses a category name and an on/off flag.
func (p *Parser) ParseCategoryToggle(data []string) (core.Category, bool, error) {
	util.CleanArgs(data)
	if err := requireArgs(data, 2); err != nil {
		return 0, false, err
	}
	c, err := core.ParseCategory(data[0])
	if err != nil {
		return 0, false, fmt.Errorf("error parsing category %q: %w", data[0], err)
	}
	on, err := parseFlag(data[1])
	if err != nil {
		return 0, false, err
	}
	return c, on, nil
}

// ParseRadius parses a category name and a deviation radius in meters.
func (p *Parser) ParseRadius(data []string) (core.Category, int, error) {
	util.CleanArgs(data)
	if err := requireArgs(data, 2); err != nil {
		return 0, 0, err
	}
	c, err := core.ParseCategory(data[0])
	if err != nil {
		return 0, 0, fmt.Errorf("error parsing category %q: %w", data[0], err)
	}
	r, err := parseIntFromFloat(data[1])
	if err != nil {
		return 0, 0, fmt.Errorf("error parsing radius: %w", err)
	}
	if r <= 0 {
		return 0, 0, fmt.Errorf("radius must be positive, got %d", r)
	}
	return c, int(r), nil
}

// ParseAlarmQuery parses the optional camera flag of an alarm query.
// def is returned when the flag is absent.
func (p *Parser) ParseAlarmQuery(data []string, def bool) (bool, error) {
	util.CleanArgs(data)
	s := util.Arg(data, 0)
	if s == "" {
		return def, nil
	}
	return parseFlag(s)
}
