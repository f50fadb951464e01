package postgres

import "gorm.io/gorm"

type Repositories struct {
	Campaigns     *campaignRepository
	Relationships *relationshipRepository
	Outbox        *outboxRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Campaigns:     &campaignRepository{db: db},
		Relationships: &relationshipRepository{db: db},
		Outbox:        &outboxRepository{db: db},
	}
}
