package calendar

import (
	"errors"
	"fmt"

	"github.com/warp/payroll-engine/generic"
)

// ChainProvider merges several providers. Members without a table for the
// location are skipped; any other member error fails the whole lookup.
// Duplicate date+name pairs are kept once.
type ChainProvider struct {
	providers []Provider
}

func NewChainProvider(providers ...Provider) *ChainProvider {
	return &ChainProvider{providers: providers}
}

func (c *ChainProvider) HolidaysForYear(country, state string, year int) ([]Holiday, error) {
	var (
		out       []Holiday
		supported bool
		seen      = make(map[string]bool)
	)
	for _, p := range c.providers {
		hs, err := p.HolidaysForYear(country, state, year)
		if errors.Is(err, generic.ErrUnsupportedLocation) {
			continue
		}
		if err != nil {
			return nil, err
		}
		supported = true
		for _, h := range hs {
			k := h.Date.String() + "|" + h.Name
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, h)
		}
	}
	if !supported && len(c.providers) > 0 {
		return nil, fmt.Errorf("%w: %s", generic.ErrUnsupportedLocation, NewLocation(country, state))
	}
	sortHolidays(out)
	return out, nil
}
