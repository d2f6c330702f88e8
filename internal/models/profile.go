package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription plans
const (
	PlanBasic = "basic"
	PlanPro   = "pro"
)

// Billing periods
const (
	PeriodMonthly = "monthly"
	PeriodAnnual  = "annual"
)

// Audio minute allowances per plan
const (
	FreeAudioMinutes  = 5
	BasicAudioMinutes = 60
	ProAudioMinutes   = 300
)

// Profile is the application user record. Identity comes from an OAuth
// provider; there is no password column.
type Profile struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Bio       string `gorm:"type:text" json:"bio"`

	// Stripe linkage and subscription state, mutated by webhook events
	StripeCustomerID             string     `gorm:"index" json:"-"`
	StripeSubscriptionID         string     `gorm:"index" json:"-"`
	SubscriptionStatus           string     `json:"subscription_status"` // "active", "canceled", "past_due", ""
	SubscriptionPlan             string     `json:"subscription_plan"`   // "basic", "pro", ""
	SubscriptionPeriod           string     `json:"subscription_period"` // "monthly", "annual", ""
	SubscriptionCurrentPeriodEnd *time.Time `json:"subscription_current_period_end,omitempty"`

	// Server-side usage counters (the cookie gate is advisory only)
	FreeGenerationsUsed int     `gorm:"default:0;not null" json:"free_generations_used"`
	AudioMinutesUsed    float64 `gorm:"default:0;not null" json:"audio_minutes_used"`
	AudioMinutesLimit   float64 `gorm:"default:5;not null" json:"audio_minutes_limit"`
}

// HasActiveSubscription reports whether the profile is on a paid plan.
// past_due keeps access until the subscription is actually canceled.
func (p *Profile) HasActiveSubscription() bool {
	return p.SubscriptionStatus == "active" || p.SubscriptionStatus == "past_due"
}

// AudioMinutesForPlan returns the audio allowance for a plan name.
func AudioMinutesForPlan(plan string) float64 {
	switch plan {
	case PlanBasic:
		return BasicAudioMinutes
	case PlanPro:
		return ProAudioMinutes
	default:
		return FreeAudioMinutes
	}
}

// OAuthIdentity links a profile to a social login provider
type OAuthIdentity struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	ProfileID      uint           `gorm:"not null;index" json:"profile_id"`
	Profile        Profile        `gorm:"foreignKey:ProfileID" json:"-"`
	Provider       string         `gorm:"not null;index" json:"provider"` // "google", "github"
	ProviderUserID string         `gorm:"not null;uniqueIndex:idx_provider_user" json:"provider_user_id"`
}
