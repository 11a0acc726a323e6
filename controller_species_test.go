package sightings_test

import (
	"testing"

	sightings "github.com/goliatone/go-sightings"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestSpeciesPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload sightings.SpeciesPayload
		wantErr bool
	}{
		{
			name: "minimal payload",
			payload: sightings.SpeciesPayload{
				CommonName:     "Humpback whale",
				ScientificName: "Megaptera novaeangliae",
			},
		},
		{
			name: "full season window",
			payload: sightings.SpeciesPayload{
				CommonName:          "Fin whale",
				ScientificName:      "Balaenoptera physalus",
				SightingStartMonth:  intPtr(6),
				SightingEndMonth:    intPtr(10),
				HighSeasonSpecimens: intPtr(40),
			},
		},
		{
			name: "season spanning the new year",
			payload: sightings.SpeciesPayload{
				CommonName:         "Gray whale",
				ScientificName:     "Eschrichtius robustus",
				SightingStartMonth: intPtr(12),
				SightingEndMonth:   intPtr(1),
			},
		},
		{
			name: "start month below range",
			payload: sightings.SpeciesPayload{
				CommonName:         "Orca",
				ScientificName:     "Orcinus orca",
				SightingStartMonth: intPtr(0),
			},
			wantErr: true,
		},
		{
			name: "end month above range",
			payload: sightings.SpeciesPayload{
				CommonName:       "Orca",
				ScientificName:   "Orcinus orca",
				SightingEndMonth: intPtr(13),
			},
			wantErr: true,
		},
		{
			name: "negative specimen count",
			payload: sightings.SpeciesPayload{
				CommonName:          "Orca",
				ScientificName:      "Orcinus orca",
				HighSeasonSpecimens: intPtr(-1),
			},
			wantErr: true,
		},
		{
			name:    "missing names",
			payload: sightings.SpeciesPayload{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
