package models

import "testing"

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{CampaignStatusPendingApproval, CampaignStatusApproved, true},
		{CampaignStatusPendingApproval, CampaignStatusRejected, true},
		{CampaignStatusApproved, CampaignStatusScheduled, true},
		{CampaignStatusApproved, CampaignStatusSending, true},
		{CampaignStatusScheduled, CampaignStatusSending, true},
		{CampaignStatusSending, CampaignStatusSent, true},

		// Cancellation paths
		{CampaignStatusPendingApproval, CampaignStatusCancelled, true},
		{CampaignStatusApproved, CampaignStatusCancelled, true},
		{CampaignStatusScheduled, CampaignStatusCancelled, true},

		// Invalid transitions
		{CampaignStatusPendingApproval, CampaignStatusSending, false},
		{CampaignStatusPendingApproval, CampaignStatusSent, false},
		{CampaignStatusRejected, CampaignStatusApproved, false},
		{CampaignStatusSending, CampaignStatusCancelled, false},
		{CampaignStatusSent, CampaignStatusSending, false},
		{CampaignStatusCancelled, CampaignStatusApproved, false},
		{"nonexistent", CampaignStatusApproved, false},
		{CampaignStatusApproved, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllStatusesHaveTransitionEntry(t *testing.T) {
	allStatuses := []string{
		CampaignStatusPendingApproval, CampaignStatusApproved, CampaignStatusRejected,
		CampaignStatusScheduled, CampaignStatusSending, CampaignStatusSent,
		CampaignStatusCancelled,
	}

	for _, status := range allStatuses {
		if _, ok := ValidCampaignTransitions[status]; !ok {
			t.Errorf("status %q missing from ValidCampaignTransitions map", status)
		}
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	terminal := []string{CampaignStatusRejected, CampaignStatusSent, CampaignStatusCancelled}
	for _, status := range terminal {
		transitions := ValidCampaignTransitions[status]
		if len(transitions) != 0 {
			t.Errorf("terminal status %q should have no transitions, got %v", status, transitions)
		}
	}
}
