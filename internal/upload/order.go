package upload

import (
	"fmt"

	"podcaster/internal/config"
)

// Order selects the direction children are visited in.
type Order int

const (
	Auto Order = iota
	NewestFirst
	OldestFirst
)

func (o Order) String() string {
	switch o {
	case NewestFirst:
		return config.OrderNewestFirst
	case OldestFirst:
		return config.OrderOldestFirst
	default:
		return config.OrderAuto
	}
}

// ParseOrder accepts the configuration spellings and their aliases.
func ParseOrder(value string) (Order, error) {
	switch config.NormalizeOrder(value) {
	case config.OrderNewestFirst:
		return NewestFirst, nil
	case config.OrderOldestFirst:
		return OldestFirst, nil
	case config.OrderAuto, "":
		return Auto, nil
	default:
		return Auto, fmt.Errorf("unknown order %q", value)
	}
}

// resolve fixes Auto once per run: an empty cache means a first run, which
// replays the catalog from the oldest item.
func (o Order) resolve(cacheEmpty bool) Order {
	if o != Auto {
		return o
	}
	if cacheEmpty {
		return OldestFirst
	}
	return NewestFirst
}
