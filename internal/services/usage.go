package services

import (
	"context"
	"fmt"

	"github.com/razberry-fun/razberry-api/internal/models"
	"gorm.io/gorm"
)

const secondsPerMinute = 60

// UsageService keeps the authoritative usage counters on the profile row.
// The browser cookie gate is advisory and user-editable; these counters
// are what billing decisions trust.
type UsageService struct {
	db *gorm.DB
}

func NewUsageService(db *gorm.DB) *UsageService {
	return &UsageService{db: db}
}

// RecordGeneration persists a generation log row and, for authenticated
// callers, charges audio usage against the profile.
func (s *UsageService) RecordGeneration(ctx context.Context, entry *models.GenerationLog, audioSeconds float64) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return err
	}
	if entry.ProfileID != nil && audioSeconds > 0 {
		return s.AddAudioUsage(ctx, *entry.ProfileID, audioSeconds)
	}
	return nil
}

// AddAudioUsage adds synthesized audio time to the profile's counter
func (s *UsageService) AddAudioUsage(ctx context.Context, profileID uint, seconds float64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the row to prevent race conditions
		var profile models.Profile
		if err := tx.Raw("SELECT * FROM profiles WHERE id = ? FOR UPDATE", profileID).
			Scan(&profile).Error; err != nil {
			return err
		}

		profile.AudioMinutesUsed += seconds / secondsPerMinute
		return tx.Save(&profile).Error
	})
}

// HasAudioAllowance reports whether the profile can synthesize more audio
func (s *UsageService) HasAudioAllowance(ctx context.Context, profileID uint) (bool, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, profileID).Error; err != nil {
		return false, err
	}
	return profile.AudioMinutesUsed < profile.AudioMinutesLimit, nil
}

// ConsumeFreeGeneration charges one free generation against the profile.
// Subscribed profiles are never charged.
func (s *UsageService) ConsumeFreeGeneration(ctx context.Context, profileID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.Profile
		if err := tx.Raw("SELECT * FROM profiles WHERE id = ? FOR UPDATE", profileID).
			Scan(&profile).Error; err != nil {
			return err
		}
		if profile.ID == 0 {
			return fmt.Errorf("profile %d not found", profileID)
		}

		if profile.HasActiveSubscription() {
			return nil
		}

		profile.FreeGenerationsUsed++
		return tx.Save(&profile).Error
	})
}

// ApplyPlanAllowance resets the audio allowance when a subscription changes
func (s *UsageService) ApplyPlanAllowance(ctx context.Context, profileID uint, plan string) error {
	return s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", profileID).
		Update("audio_minutes_limit", models.AudioMinutesForPlan(plan)).Error
}
