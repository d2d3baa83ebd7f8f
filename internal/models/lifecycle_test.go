package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadTransitions(t *testing.T) {
	lead := &Lead{Status: LeadStatusNew}
	assert.True(t, lead.CanTransitionTo(LeadStatusContacted))
	assert.True(t, lead.CanTransitionTo(LeadStatusLost))
	// 不能跳过中间阶段
	assert.False(t, lead.CanTransitionTo(LeadStatusWon))
	assert.False(t, lead.CanTransitionTo(LeadStatusQualified))

	lead.Status = LeadStatusNegotiation
	assert.True(t, lead.CanTransitionTo(LeadStatusWon))

	// 终态不再流转
	lead.Status = LeadStatusWon
	assert.False(t, lead.CanTransitionTo(LeadStatusLost))
	assert.True(t, lead.IsClosed())

	lead.Status = LeadStatusLost
	assert.False(t, lead.CanTransitionTo(LeadStatusNew))
	assert.True(t, lead.IsClosed())
}

func TestDealTransitions(t *testing.T) {
	deal := &Deal{Stage: DealStageProspecting}
	assert.True(t, deal.CanTransitionTo(DealStageQualification))
	assert.True(t, deal.CanTransitionTo(DealStageClosedLost))
	assert.False(t, deal.CanTransitionTo(DealStageClosedWon))

	deal.Stage = DealStageNegotiation
	assert.True(t, deal.CanTransitionTo(DealStageClosedWon))

	deal.Stage = DealStageClosedWon
	assert.False(t, deal.CanTransitionTo(DealStageClosedLost))
	assert.True(t, deal.IsClosed())
}

func TestEventTransitions(t *testing.T) {
	event := &Event{Status: EventStatusDraft}
	assert.True(t, event.CanTransitionTo(EventStatusPublished))
	assert.False(t, event.CanTransitionTo(EventStatusRegistrationOpen))

	// cancelled可以从任意非终态进入
	assert.True(t, event.CanTransitionTo(EventStatusCancelled))
	event.Status = EventStatusOngoing
	assert.True(t, event.CanTransitionTo(EventStatusCancelled))

	event.Status = EventStatusCompleted
	assert.False(t, event.CanTransitionTo(EventStatusCancelled))
	event.Status = EventStatusCancelled
	assert.False(t, event.CanTransitionTo(EventStatusCancelled))
}

func TestCampaignTransitions(t *testing.T) {
	campaign := &EmailCampaign{Status: CampaignStatusDraft}
	assert.True(t, campaign.CanTransitionTo(CampaignStatusScheduled))
	assert.True(t, campaign.CanTransitionTo(CampaignStatusSending))
	assert.True(t, campaign.CanTransitionTo(CampaignStatusCancelled))
	assert.False(t, campaign.CanTransitionTo(CampaignStatusSent))

	campaign.Status = CampaignStatusSending
	assert.True(t, campaign.CanTransitionTo(CampaignStatusSent))
	// 发送中不可取消
	assert.False(t, campaign.CanTransitionTo(CampaignStatusCancelled))

	campaign.Status = CampaignStatusSent
	assert.False(t, campaign.CanTransitionTo(CampaignStatusSending))
}

func TestEventCapacity(t *testing.T) {
	// 容量0表示不限，永远不满
	event := &Event{Capacity: 0, CurrentRegistrations: 10000}
	assert.False(t, event.HasCapacityLimit())
	assert.False(t, event.IsFull())

	event = &Event{Capacity: 2, CurrentRegistrations: 1}
	assert.True(t, event.HasCapacityLimit())
	assert.False(t, event.IsFull())

	event.CurrentRegistrations = 2
	assert.True(t, event.IsFull())
}

func TestRegistrationCountsTowardCapacity(t *testing.T) {
	for _, status := range []string{RegistrationPending, RegistrationConfirmed, RegistrationAttended} {
		r := &EventRegistration{Status: status}
		assert.True(t, r.CountsTowardCapacity(), status)
	}
	for _, status := range []string{RegistrationWaitlist, RegistrationCancelled} {
		r := &EventRegistration{Status: status}
		assert.False(t, r.CountsTowardCapacity(), status)
	}
}

func TestLeadStatusValidation(t *testing.T) {
	assert.True(t, IsValidLeadStatus(LeadStatusNew))
	assert.True(t, IsValidLeadStatus(LeadStatusWon))
	assert.False(t, IsValidLeadStatus("pending"))
	assert.False(t, IsValidLeadStatus(""))

	assert.NotContains(t, ActiveLeadStatuses(), LeadStatusWon)
	assert.NotContains(t, ActiveLeadStatuses(), LeadStatusLost)
	assert.Contains(t, ActiveLeadStatuses(), LeadStatusNegotiation)
}
