package model

import "time"

const EventSourceSocialMedia = "social_media_document"

// Event is the normalized record emitted to sinks. It never carries caption text.
type Event struct {
	ID          string           `json:"eventId"`
	Webhook     WebhookInfo      `json:"webhook"`
	Document    DocumentInfo     `json:"document"`
	Actionable  bool             `json:"actionable"`
	SocialMedia *SocialMediaInfo `json:"socialMedia,omitempty"`
	Metadata    EventMetadata    `json:"metadata"`
}

type WebhookInfo struct {
	Type       string    `json:"type"` // source name, e.g. "sanity"
	Source     string    `json:"source"`
	ReceivedAt time.Time `json:"receivedAt"`
}

type DocumentInfo struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Revision  string `json:"revision,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	Slug      string `json:"slug,omitempty"`
}

type SocialMediaInfo struct {
	InternalTitle            string            `json:"internalTitle,omitempty"`
	CampaignStatus           string            `json:"campaignStatus,omitempty"`
	ScheduledPublicationDate string            `json:"scheduledPublicationDate,omitempty"`
	RelatedPost              *Reference        `json:"relatedPost,omitempty"`
	PlatformCount            int               `json:"platformCount"`
	Platforms                []PlatformSummary `json:"platforms"`
}

type PlatformSummary struct {
	Platform      string   `json:"platform"`
	CaptionLength int      `json:"captionLength"`
	HashtagCount  int      `json:"hashtagCount"`
	Hashtags      []string `json:"hashtags,omitempty"`
}

type EventMetadata struct {
	ProcessingTimestamp time.Time `json:"processingTimestamp"`
	Service             string    `json:"service"`
	Version             string    `json:"version"`
	Environment         string    `json:"environment"`
}

// DedupKey identifies one revision of one document. Without a revision there is nothing to
// tell updates apart, so the key is empty and the event is never treated as a duplicate.
func (e Event) DedupKey() string {
	if e.Document.ID == "" || e.Document.Revision == "" {
		return ""
	}
	return e.Document.ID + ":" + e.Document.Revision
}
