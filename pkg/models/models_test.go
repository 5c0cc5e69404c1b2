package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestQualitySignalsValue(t *testing.T) {
	signals := QualitySignals{
		IsOriginal:       true,
		WatchTimeSeconds: 150,
		Likes:            600,
	}

	value, err := signals.Value()
	if err != nil {
		t.Fatalf("Failed to get value: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(value.([]byte), &result); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if result["is_original"] != true {
		t.Errorf("Expected is_original=true, got %v", result["is_original"])
	}
	if result["watch_time_seconds"] != float64(150) {
		t.Errorf("Expected watch_time_seconds=150, got %v", result["watch_time_seconds"])
	}
}

func TestQualitySignalsScan(t *testing.T) {
	var signals QualitySignals
	if err := signals.Scan([]byte(`{"trending_topic":true,"comments":60}`)); err != nil {
		t.Fatalf("Failed to scan: %v", err)
	}

	if !signals.TrendingTopic {
		t.Error("Expected trending_topic to be true")
	}
	if signals.Comments != 60 {
		t.Errorf("Expected comments=60, got %d", signals.Comments)
	}
}

func TestQualitySignalsScanNil(t *testing.T) {
	var signals QualitySignals
	if err := signals.Scan(nil); err != nil {
		t.Fatalf("Failed to scan nil: %v", err)
	}
	if signals != (QualitySignals{}) {
		t.Error("Expected zero signals after scanning nil")
	}
}

func TestValidationErrorIs(t *testing.T) {
	err := fmt.Errorf("create tier: %w", NewValidationError("price", "must be positive, got %v", -1))

	if !errors.Is(err, ErrValidation) {
		t.Error("Expected wrapped validation error to match ErrValidation")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("Validation error must not match ErrNotFound")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "price" {
		t.Errorf("Expected ValidationError for field price, got %v", err)
	}
}

func TestVisibilityValid(t *testing.T) {
	if !VisibilityPublic.Valid() || !VisibilityMembersOnly.Valid() {
		t.Error("Known visibilities must be valid")
	}
	if Visibility("members").Valid() {
		t.Error("Unknown visibility must be invalid")
	}
}

func TestContentCloneDoesNotShareTiers(t *testing.T) {
	orig := &Content{ID: "c1", AllowedTierIDs: []string{"t1"}}
	clone := orig.Clone()
	clone.AllowedTierIDs[0] = "t2"

	if orig.AllowedTierIDs[0] != "t1" {
		t.Error("Clone must not share allowed tier slice")
	}
}
