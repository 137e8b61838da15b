package quota

import "github.com/ignite/gowebsite/internal/domain"

// Limits maps plan -> usage key -> maximum count per billing period.
// It is process-wide constant data: loaded once, never mutated.
type Limits map[domain.Plan]map[domain.UsageKey]int

// DefaultLimits is the production plan table. website_regen is deliberately
// non-monotonic across tiers (0/10/3/10): the gowebsite plan trades extra
// regenerations for fewer published sites. A product decision, not a bug.
var DefaultLimits = Limits{
	domain.PlanFree: {
		domain.UsageWebsiteGenerate:   1,
		domain.UsageWebsiteRegen:      0,
		domain.UsageWebsitesPublished: 1,
		domain.UsageProjects:          1,
	},
	domain.PlanGoWebsite: {
		domain.UsageWebsiteGenerate:   5,
		domain.UsageWebsiteRegen:      10,
		domain.UsageWebsitesPublished: 2,
		domain.UsageProjects:          3,
	},
	domain.PlanCreator: {
		domain.UsageWebsiteGenerate:   10,
		domain.UsageWebsiteRegen:      3,
		domain.UsageWebsitesPublished: 5,
		domain.UsageProjects:          10,
	},
	domain.PlanPro: {
		domain.UsageWebsiteGenerate:   30,
		domain.UsageWebsiteRegen:      10,
		domain.UsageWebsitesPublished: 10,
		domain.UsageProjects:          25,
	},
}

// LimitFor resolves the limit for a plan/key pair. Unknown plans or keys
// yield 0: deny by default, never fail open for unrecognized keys.
func (l Limits) LimitFor(plan domain.Plan, key domain.UsageKey) int {
	keys, ok := l[plan]
	if !ok {
		return 0
	}
	return keys[key]
}
