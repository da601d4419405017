package models

import "time"

type SubscriptionPlan string

const (
	PlanFree       SubscriptionPlan = "free"
	PlanStandard   SubscriptionPlan = "standard"
	PlanPremium    SubscriptionPlan = "premium"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

// MemberLimit returns the maximum member count for the plan, or -1 when
// membership is unlimited.
func (p SubscriptionPlan) MemberLimit() int {
	switch p {
	case PlanFree:
		return 5
	case PlanStandard:
		return 25
	case PlanPremium:
		return 100
	case PlanEnterprise:
		return -1
	}
	return 5
}

type OrganizationType string

const (
	OrgTypeStartup        OrganizationType = "startup"
	OrgTypeSmallBusiness  OrganizationType = "small_business"
	OrgTypeMediumBusiness OrganizationType = "medium_business"
	OrgTypeEnterprise     OrganizationType = "enterprise"
	OrgTypeNonProfit      OrganizationType = "non_profit"
	OrgTypeFreelancer     OrganizationType = "freelancer"
)

type Organization struct {
	ID           string
	Name         string
	Slug         string
	Description  string
	Email        string
	PhoneNumber  string
	Website      string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
	Type         OrganizationType
	Industry     string
	Plan         SubscriptionPlan
	IsTrial      bool
	TrialEndsAt  *time.Time
	LogoURL      *string
	Currency     string
	Timezone     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanAddMembers reports whether the plan allows growing past the current
// member count.
func (o Organization) CanAddMembers(currentMembers int) bool {
	limit := o.Plan.MemberLimit()
	return limit < 0 || currentMembers < limit
}
