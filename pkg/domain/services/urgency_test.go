package services

import (
	"testing"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
)

func TestClassifyUrgency(t *testing.T) {
	thresholds := entities.DefaultUrgencyThresholds()

	testCases := []struct {
		days        int
		hasShortage bool
		expected    entities.Urgency
	}{
		{0, true, entities.Critical},
		{7, true, entities.Critical},
		{8, true, entities.Warning},
		{14, true, entities.Warning},
		{15, true, entities.Caution},
		{30, true, entities.Caution},
		{31, true, entities.Normal},
		{3, false, entities.Normal},
	}

	for _, tc := range testCases {
		got := ClassifyUrgency(tc.days, tc.hasShortage, thresholds)
		if got != tc.expected {
			t.Errorf("days=%d shortage=%v: expected %s, got %s", tc.days, tc.hasShortage, tc.expected, got)
		}
	}
}

func TestClassifyUrgency_CustomThresholds(t *testing.T) {
	thresholds := entities.UrgencyThresholds{CriticalDays: 2, WarningDays: 4, CautionDays: 6}
	if got := ClassifyUrgency(5, true, thresholds); got != entities.Caution {
		t.Errorf("Expected Caution, got %s", got)
	}
	if got := ClassifyUrgency(7, true, thresholds); got != entities.Normal {
		t.Errorf("Expected Normal, got %s", got)
	}
}
