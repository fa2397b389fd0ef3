// Package normalizer projects classified CMS envelopes into model.Event records.
//
// Captions are reduced to their length; the text itself never reaches an event, which keeps
// campaign copy out of general purpose logs and bounds record size. Hashtags are kept as-is.
package normalizer

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/jmehdipour/agent-bridge/internal/classifier"
	"github.com/jmehdipour/agent-bridge/internal/model"
	"github.com/jmehdipour/agent-bridge/internal/util"
)

// Normalizer converts an envelope received in delivery d into an event.
type Normalizer interface {
	Normalize(ctx context.Context, d Delivery, env model.Envelope) (model.Event, error)
}

// Delivery describes how an envelope reached the gateway.
type Delivery struct {
	Source     string    // webhook source name, e.g. "sanity"
	ReceivedAt time.Time // zero means "now"
}

// Info describes the running service; it is copied into every event's metadata.
type Info struct {
	Service     string
	Version     string
	Environment string
}

type Service struct {
	info  Info
	now   func() time.Time
	newID func(time.Time) (string, error)
}

func New(info Info) *Service {
	return &Service{info: info, now: time.Now, newID: util.NewID}
}

// WithClock replaces the processing clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Normalize(ctx context.Context, d Delivery, env model.Envelope) (model.Event, error) {
	processedAt := s.now().UTC()
	receivedAt := d.ReceivedAt.UTC()
	if d.ReceivedAt.IsZero() {
		receivedAt = processedAt
	}

	id, err := s.newID(processedAt)
	if err != nil {
		return model.Event{}, fmt.Errorf("generate event id for %q: %w", env.ID, err)
	}

	cls := classifier.Classify(env)

	ev := model.Event{
		ID: id,
		Webhook: model.WebhookInfo{
			Type:       d.Source,
			Source:     model.EventSourceSocialMedia,
			ReceivedAt: receivedAt,
		},
		Document: model.DocumentInfo{
			Type:      env.Type,
			ID:        env.ID,
			Revision:  env.Revision,
			CreatedAt: env.CreatedAt,
			UpdatedAt: env.UpdatedAt,
			Slug:      env.SlugValue(),
		},
		Actionable: cls.Actionable,
		Metadata: model.EventMetadata{
			ProcessingTimestamp: processedAt,
			Service:             s.info.Service,
			Version:             s.info.Version,
			Environment:         s.info.Environment,
		},
	}

	if cls.Actionable {
		ev.SocialMedia = socialMedia(env)
	}

	return ev, nil
}

func socialMedia(env model.Envelope) *model.SocialMediaInfo {
	platforms := make([]model.PlatformSummary, 0, len(env.Platforms))
	for _, p := range env.Platforms {
		platforms = append(platforms, Summarize(p))
	}

	return &model.SocialMediaInfo{
		InternalTitle:            env.InternalTitle,
		CampaignStatus:           env.CampaignStatus,
		ScheduledPublicationDate: env.ScheduledPublicationDate,
		RelatedPost:              env.RelatedPost,
		PlatformCount:            len(platforms),
		Platforms:                platforms,
	}
}

// Summarize reduces one platform post to its metadata. Caption length counts runes.
func Summarize(p model.PlatformPost) model.PlatformSummary {
	var tags []string
	if len(p.Hashtags) > 0 {
		tags = append(make([]string, 0, len(p.Hashtags)), p.Hashtags...)
	}

	return model.PlatformSummary{
		Platform:      p.Platform,
		CaptionLength: utf8.RuneCountInString(p.Caption),
		HashtagCount:  len(p.Hashtags),
		Hashtags:      tags,
	}
}
