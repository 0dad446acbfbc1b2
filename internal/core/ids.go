package core

import (
	"fmt"
	"strings"

	"foodbike/pkg/domain"

	"github.com/google/uuid"
)

// Opaque identifier prefixes.
const (
	OrderIDPrefix       = "ORD_"
	ApplicationIDPrefix = "APP_"
	ReviewIDPrefix      = "REV_"
	AuditIDPrefix       = "ACT_"
	MenuItemIDPrefix    = "ITM_"
)

// IDSource mints opaque identifiers for a prefix.
type IDSource func(prefix string) string

// UUIDSource returns prefix + a time-ordered UUIDv7.
func UUIDSource(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + id.String()
}

// SequenceSource is a deterministic IDSource for tests: prefix + zero-padded counter.
func SequenceSource() IDSource {
	counters := make(map[string]int)
	return func(prefix string) string {
		counters[prefix]++
		return fmt.Sprintf("%s%06d", prefix, counters[prefix])
	}
}

// RestaurantID formats a region-scoped restaurant identifier.
func RestaurantID(prefix string, seq int) string {
	return fmt.Sprintf("%s%03d", prefix, seq)
}

// allocateRestaurantID picks <prefix><count-in-region+1>. When that ID is
// already taken (possible after deletions) it probes forward to the next free
// sequence. Callers must hold the write path so the count cannot race.
func allocateRestaurantID(view domain.TransactionView, region domain.Region) string {
	restaurants := view.ListRestaurants()
	taken := make(map[string]struct{}, len(restaurants))
	count := 0
	for _, r := range restaurants {
		taken[r.ID] = struct{}{}
		if strings.EqualFold(r.Region, region.Name) {
			count++
		}
	}
	seq := count + 1
	for {
		id := RestaurantID(region.Prefix, seq)
		if _, ok := taken[id]; !ok {
			return id
		}
		seq++
	}
}
