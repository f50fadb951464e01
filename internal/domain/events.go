package domain

const (
	EventRelationshipCreated      = "collab.relationship_created"
	EventRelationshipTransitioned = "collab.relationship_transitioned"
	EventCampaignStatusChanged    = "collab.campaign_status_changed"
)

// Consumed topics.
const (
	EventInfluencerDeactivated = "influencer.deactivated"
)

func CanonicalPartitionKeyPath(eventType string) string {
	switch eventType {
	case EventRelationshipCreated, EventRelationshipTransitioned:
		return "data.campaign_id"
	case EventCampaignStatusChanged:
		return "data.campaign_id"
	default:
		return ""
	}
}
