package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"calparse/internal/repo"
	"calparse/internal/services/events"
)

// Seeder creates demo groups by running sample texts through the offline
// extraction path, so the service has data to browse without any provider
// configured.
type Seeder struct {
	store     repo.EventStore
	extractor *events.Service
}

func NewSeeder(store repo.EventStore, extractor *events.Service) *Seeder {
	return &Seeder{store: store, extractor: extractor}
}

var sampleTexts = []string{
	"Team standup tomorrow at 9am in the conference room",
	"Lunch with Dana and Alex tomorrow at 12:30pm at the corner cafe",
	"Quarterly planning review with Priya tomorrow from 2pm to 4pm in Room 110",
	"Dentist appointment tomorrow at 8:30am",
}

// SeedSampleData persists one group per sample text.
func (s *Seeder) SeedSampleData(ctx context.Context) error {
	for _, text := range sampleTexts {
		group, err := s.store.CreateGroup(ctx, false)
		if err != nil {
			return fmt.Errorf("creating seed group: %w", err)
		}

		batch := s.extractor.ExtractOffline(text)
		if err := s.store.SaveBatch(ctx, group.ID, batch); err != nil {
			return fmt.Errorf("saving seed batch: %w", err)
		}

		log.Info().
			Str("group_id", group.ID.String()).
			Str("text", text).
			Int("events", len(batch.Events)).
			Msg("Seeded events group")
	}

	return nil
}
