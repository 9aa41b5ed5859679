package model

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyPlanName = errors.New("plan name cannot be empty")
	ErrNegativePrice = errors.New("price cannot be negative")
	ErrInvalidPlanID = errors.New("plan id must contain letters or digits")
)

const (
	defaultCurrency = "USD"
	defaultInterval = "month"
)

// PricingPlan is one entry of the pricing table.
type PricingPlan struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	Interval    string    `json:"interval"`
	Features    []string  `json:"features"`
	Color       string    `json:"color"`
	Popular     bool      `json:"popular"`
	Description string    `json:"description"`
	ButtonText  string    `json:"buttonText"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PricingPlanPatch carries the fields of a plan update. Nil fields are left
// untouched.
type PricingPlanPatch struct {
	Name        *string
	Price       *float64
	Currency    *string
	Interval    *string
	Features    *[]string
	Color       *string
	Popular     *bool
	Description *string
	ButtonText  *string
}

// DefaultPricingPlans is the implicit content of the pricing table while
// its blob does not exist. A fresh slice is returned on every call.
func DefaultPricingPlans() []PricingPlan {
	return []PricingPlan{
		{
			ID:          "free",
			Name:        "Free",
			Price:       0.00,
			Currency:    defaultCurrency,
			Interval:    defaultInterval,
			Features:    []string{"Upload up to 3 videos", "Coach feedback on 1 video", "Community access"},
			Color:       "#6B7280",
			Description: "Get started with basic video review.",
			ButtonText:  "Get Started",
		},
		{
			ID:          "individual",
			Name:        "Individual",
			Price:       26.99,
			Currency:    defaultCurrency,
			Interval:    defaultInterval,
			Features:    []string{"Unlimited video uploads", "Detailed coach notes", "Priority review", "Progress tracking"},
			Color:       "#4F46E5",
			Popular:     true,
			Description: "Personal coaching for dedicated players.",
			ButtonText:  "Choose Individual",
		},
		{
			ID:          "team",
			Name:        "Team",
			Price:       100.99,
			Currency:    defaultCurrency,
			Interval:    defaultInterval,
			Features:    []string{"Everything in Individual", "Up to 10 players", "Team analytics", "Dedicated head coach"},
			Color:       "#059669",
			Description: "Coaching for whole squads.",
			ButtonText:  "Choose Team",
		},
	}
}

// NewPricingPlan validates and builds a plan. An empty id is derived from
// the name.
func NewPricingPlan(id, name string, price float64, now time.Time) (*PricingPlan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyPlanName
	}
	if price < 0 {
		return nil, ErrNegativePrice
	}
	if strings.TrimSpace(id) == "" {
		id = name
	}
	id = Slug(id)
	if id == "" {
		return nil, ErrInvalidPlanID
	}

	return &PricingPlan{
		ID:        id,
		Name:      name,
		Price:     price,
		Currency:  defaultCurrency,
		Interval:  defaultInterval,
		Features:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Apply merges p into plan and stamps UpdatedAt.
func (plan *PricingPlan) Apply(p PricingPlanPatch, now time.Time) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return ErrEmptyPlanName
		}
		plan.Name = name
	}
	if p.Price != nil {
		if *p.Price < 0 {
			return ErrNegativePrice
		}
		plan.Price = *p.Price
	}
	if p.Currency != nil {
		plan.Currency = *p.Currency
	}
	if p.Interval != nil {
		plan.Interval = *p.Interval
	}
	if p.Features != nil {
		plan.Features = append([]string{}, (*p.Features)...)
	}
	if p.Color != nil {
		plan.Color = *p.Color
	}
	if p.Popular != nil {
		plan.Popular = *p.Popular
	}
	if p.Description != nil {
		plan.Description = *p.Description
	}
	if p.ButtonText != nil {
		plan.ButtonText = *p.ButtonText
	}
	plan.UpdatedAt = now
	return nil
}

// Slug lower-cases s and joins runs of letters and digits with '-'.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
	}
	return b.String()
}
