package sightings_test

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
	sightings "github.com/goliatone/go-sightings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusSetParse(t *testing.T) {
	set := sightings.DefaultStatusSet()

	tests := []struct {
		raw      string
		expected sightings.PostStatus
		wantErr  bool
	}{
		{"ACTIVO", sightings.StatusActivo, false},
		{"activo", sightings.StatusActivo, false},
		{"  Revision  ", sightings.StatusRevision, false},
		{"borrador", sightings.StatusBorrador, false},
		{"RECHAZADO", sightings.StatusRechazado, false},
		{"eliminado", sightings.StatusEliminado, false},
		{"ARCHIVADO", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := set.Parse(tt.raw)
		if tt.wantErr {
			require.Errorf(t, err, "raw %q", tt.raw)

			var rich *goerrors.Error
			require.True(t, goerrors.As(err, &rich))
			assert.Equal(t, goerrors.CategoryBadInput, rich.Category)
			continue
		}
		require.NoErrorf(t, err, "raw %q", tt.raw)
		assert.Equal(t, tt.expected, got)
	}
}

func TestStatusSetMembership(t *testing.T) {
	set := sightings.DefaultStatusSet()

	assert.True(t, set.Contains(sightings.StatusBorrador))
	assert.True(t, set.Contains(sightings.StatusEliminado))
	assert.False(t, set.Contains(sightings.PostStatus("ARCHIVADO")))

	assert.Equal(t, []sightings.PostStatus{
		sightings.StatusBorrador,
		sightings.StatusRevision,
		sightings.StatusActivo,
		sightings.StatusRechazado,
		sightings.StatusEliminado,
	}, set.Members())
}

func TestNewStatusSetDropsDuplicates(t *testing.T) {
	set := sightings.NewStatusSet(
		sightings.StatusBorrador,
		sightings.StatusBorrador,
		sightings.StatusActivo,
	)

	assert.Len(t, set.Members(), 2)
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, sightings.StatusEliminado.IsTerminal())
	assert.False(t, sightings.StatusBorrador.IsTerminal())
	assert.False(t, sightings.StatusRevision.IsTerminal())
	assert.False(t, sightings.StatusActivo.IsTerminal())
	assert.False(t, sightings.StatusRechazado.IsTerminal())
}
