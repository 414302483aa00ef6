package parser

import (
	"fmt"

	"github.com/routecue/waypointd/internal/poi"
	"github.com/routecue/waypointd/internal/util"
	"github.com/routecue/waypointd/pkg/core"
)

// ParsePoints parses a GeoJSON FeatureCollection of user points of the
// given kind.
func (p *Parser) ParsePoints(data []string, kind core.PointKind) ([]core.Point, error) {
	util.CleanArgs(data)
	if err := requireArgs(data, 1); err != nil {
		return nil, err
	}
	points, err := poi.ParseFeatures([]byte(data[0]), kind)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s points: %w", kind, err)
	}
	p.logger.Debug("Parsed points", "kind", kind.String(), "count", len(points))
	return points, nil
}

// ParsePointKeys parses the identities of points to remove.
func (p *Parser) ParsePointKeys(data []string) ([]string, error) {
	keys := util.Dedupe(util.CleanArgs(data))
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: expected at least one point key", ErrMissingArgs)
	}
	return keys, nil
}
