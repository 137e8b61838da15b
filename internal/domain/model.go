package domain

import "time"

// Role is a profile's authorization role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Plan is a subscription tier. Limits per plan live in the quota package.
type Plan string

const (
	PlanFree      Plan = "free"
	PlanGoWebsite Plan = "gowebsite"
	PlanCreator   Plan = "creator"
	PlanPro       Plan = "pro"
)

// UsageKey names a countable, plan-limited action.
type UsageKey string

const (
	UsageWebsiteGenerate   UsageKey = "website_generate"
	UsageWebsiteRegen      UsageKey = "website_regen"
	UsageWebsitesPublished UsageKey = "websites_published"
	UsageProjects          UsageKey = "projects"
)

// Project is a user-owned generated site. A project may hold a reserved
// slug while unpublished; publishing requires a slug. When IsPublished is
// true, Slug, PublishedURL and PublishedAt are all set.
type Project struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	Name         string     `json:"name"`
	Slug         *string    `json:"slug,omitempty"`
	IsPublished  bool       `json:"is_published"`
	PublishedURL *string    `json:"published_url,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasSlug reports whether the project currently holds a reserved slug.
func (p *Project) HasSlug() bool {
	return p.Slug != nil && *p.Slug != ""
}

// Profile is the identity/billing record the core reads for authorization
// and quota decisions. It is owned by the auth collaborator; the core never
// writes plan or role.
type Profile struct {
	ID               string
	Email            string
	Role             Role
	Plan             Plan
	CurrentPeriodEnd time.Time
	Suspended        bool
}

// IsAdmin reports whether the profile carries the admin role.
func (p *Profile) IsAdmin() bool { return p.Role == RoleAdmin }

// ActivityEntry is an append-only audit record. Writes are best-effort;
// a failed append never rolls back the mutation it accompanies.
type ActivityEntry struct {
	ID        string
	ActorID   string
	ProjectID string
	Action    string
	Detail    string
	CreatedAt time.Time
}
