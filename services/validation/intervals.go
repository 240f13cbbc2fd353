package validation

import (
	"sort"
	"time"

	"github.com/psops/provisioning-dashboard/models"
)

// The overlap and gap rules share this grouping/sorting substrate so their
// tie-breaks are guaranteed identical: stable sort by start date, ties kept
// in payload order.

// groupKey identifies the entitlements compared against each other: same
// type and same product code.
type groupKey struct {
	typ  models.EntitlementType
	code string
}

// interval is one entitlement with both dates successfully parsed.
type interval struct {
	ent   models.Entitlement
	start time.Time
	end   time.Time
}

// dateLayouts are tried in order. Payloads carry either bare dates or
// timestamps, with and without zone.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// collectIntervals groups the entitlements that carry two parseable dates by
// (type, productCode) and sorts each group by start date. Entries missing
// either date, or with unparseable dates, are excluded: they cannot be
// compared, and skipping them avoids false positives from malformed input.
// Inverted ranges are kept as-is; the comparison formulas tolerate them.
func collectIntervals(set models.EntitlementSet) map[groupKey][]interval {
	groups := make(map[groupKey][]interval)
	collect := func(list []models.Entitlement) {
		for _, ent := range list {
			start, okStart := parseDate(ent.StartDate)
			end, okEnd := parseDate(ent.EndDate)
			if !okStart || !okEnd {
				continue
			}
			key := groupKey{typ: ent.Type, code: ent.ProductCode}
			groups[key] = append(groups[key], interval{ent: ent, start: start, end: end})
		}
	}
	collect(set.Models)
	collect(set.Data)
	collect(set.Apps)

	for key := range groups {
		ivs := groups[key]
		sort.SliceStable(ivs, func(i, j int) bool {
			return ivs[i].start.Before(ivs[j].start)
		})
	}
	return groups
}

// sortedGroupKeys returns the group keys in deterministic order so repeated
// evaluations produce structurally identical details.
func sortedGroupKeys(groups map[groupKey][]interval) []groupKey {
	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].typ != keys[j].typ {
			return keys[i].typ < keys[j].typ
		}
		return keys[i].code < keys[j].code
	})
	return keys
}

// overlaps implements the closed-inclusive policy: [s1,e1] and [s2,e2]
// overlap iff s1 <= e2 && s2 <= e1.
func overlaps(a, b interval) bool {
	return !a.start.After(b.end) && !b.start.After(a.end)
}

// gapAfter reports whether next starts more than the one-day tolerance after
// prev ends, and if so how many uncovered days sit between the two ranges.
func gapAfter(prev, next interval) (int, bool) {
	if !next.start.After(prev.end.AddDate(0, 0, 1)) {
		return 0, false
	}
	days := int(next.start.Sub(prev.end).Hours()/24) - 1
	if days < 1 {
		days = 1
	}
	return days, true
}

func conflictPair(key groupKey, a, b interval, gapDays int) models.EntitlementPair {
	return models.EntitlementPair{
		Type:        key.typ,
		ProductCode: key.code,
		First:       models.DateRange{Start: a.ent.StartDate, End: a.ent.EndDate},
		Second:      models.DateRange{Start: b.ent.StartDate, End: b.ent.EndDate},
		GapDays:     gapDays,
	}
}
