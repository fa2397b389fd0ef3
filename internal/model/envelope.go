package model

// Envelope is the document the CMS posts on a content change. Every field is untrusted.
type Envelope struct {
	Type      string `json:"_type"`
	ID        string `json:"_id"`
	Revision  string `json:"_rev,omitempty"`
	CreatedAt string `json:"_createdAt,omitempty"`
	UpdatedAt string `json:"_updatedAt,omitempty"`
	Slug      *Slug  `json:"slug,omitempty"`

	// socialMedia only
	InternalTitle            string         `json:"internalTitle,omitempty"`
	CampaignStatus           string         `json:"campaignStatus,omitempty"`
	ScheduledPublicationDate string         `json:"scheduledPublicationDate,omitempty"`
	RelatedPost              *Reference     `json:"relatedPost,omitempty"`
	Platforms                []PlatformPost `json:"platforms,omitempty"`
}

type Slug struct {
	Current string `json:"current"`
}

// SlugValue returns slug.current or "" when absent.
func (e Envelope) SlugValue() string {
	if e.Slug == nil {
		return ""
	}
	return e.Slug.Current
}

type Reference struct {
	Ref  string `json:"_ref"`
	Type string `json:"_type,omitempty"`
}

type PlatformPost struct {
	Platform string   `json:"platform"`
	Caption  string   `json:"caption,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
}
