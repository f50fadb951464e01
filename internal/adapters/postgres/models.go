package postgres

import (
	"time"

	"github.com/google/uuid"
)

type campaignModel struct {
	CampaignID   uuid.UUID `gorm:"column:campaign_id;type:uuid;default:gen_random_uuid();primaryKey"`
	SponsorID    uuid.UUID `gorm:"column:sponsor_id"`
	Niche        string    `gorm:"column:niche"`
	Audience     string    `gorm:"column:audience"`
	BudgetMin    *float64  `gorm:"column:budget_min"`
	BudgetMax    *float64  `gorm:"column:budget_max"`
	Keywords     string    `gorm:"column:keywords"`
	Requirements string    `gorm:"column:requirements"`
	Status       string    `gorm:"column:status"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (campaignModel) TableName() string { return "campaigns" }

type relationshipModel struct {
	CampaignID   uuid.UUID  `gorm:"column:campaign_id;type:uuid;primaryKey"`
	InfluencerID uuid.UUID  `gorm:"column:influencer_id;type:uuid;primaryKey"`
	Status       string     `gorm:"column:status"`
	Note         string     `gorm:"column:note"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
	AcceptedAt   *time.Time `gorm:"column:accepted_at"`
	RejectedAt   *time.Time `gorm:"column:rejected_at"`
	StartedAt    *time.Time `gorm:"column:started_at"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
	CancelledAt  *time.Time `gorm:"column:cancelled_at"`
}

func (relationshipModel) TableName() string { return "relationships" }

type outboxModel struct {
	OutboxID     uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	RetryCount   int        `gorm:"column:retry_count"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	LastError    *string    `gorm:"column:last_error"`
	FirstSeenAt  time.Time  `gorm:"column:first_seen_at"`
}

func (outboxModel) TableName() string { return "collab_outbox" }
