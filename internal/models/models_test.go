package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariantKnown(t *testing.T) {
	for _, name := range []string{"cyto", "CYTO2", " cyto3 ", "nuclei"} {
		v, note := ParseVariant(name)
		assert.True(t, v.Valid(), name)
		assert.Empty(t, note, name)
	}
}

func TestParseVariantEmptyUsesDefaultSilently(t *testing.T) {
	v, note := ParseVariant("")
	assert.Equal(t, DefaultVariant, v)
	assert.Empty(t, note)
}

func TestParseVariantUnknownFallsBackWithNote(t *testing.T) {
	v, note := ParseVariant("tissuenet")
	assert.Equal(t, DefaultVariant, v)
	assert.Contains(t, note, "tissuenet")
	assert.Contains(t, note, string(DefaultVariant))
}

func TestParseDiameter(t *testing.T) {
	cases := map[string]float64{
		"":      0,
		"auto":  0,
		"AUTO":  0,
		"0":     0,
		"30":    30,
		" 17.5": 17.5,
	}
	for text, want := range cases {
		got, err := ParseDiameter(text)
		require.NoError(t, err, text)
		assert.Equal(t, want, got, text)
	}

	for _, text := range []string{"abc", "-4", "NaN", "inf"} {
		_, err := ParseDiameter(text)
		require.Error(t, err, text)
		assert.True(t, IsValidation(err), text)
	}
}

func TestLabelMaskFromRows(t *testing.T) {
	mask, err := LabelMaskFromRows([][]uint32{
		{0, 7, 7},
		{3, 0, 7},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, mask.Width)
	assert.Equal(t, 2, mask.Height)
	assert.Equal(t, uint32(3), mask.At(0, 1))
	assert.Equal(t, []uint32{3, 7}, mask.Distinct())
	assert.Equal(t, uint32(7), mask.MaxLabel())

	_, err = LabelMaskFromRows([][]uint32{{1, 2}, {3}})
	assert.Error(t, err)
	_, err = LabelMaskFromRows(nil)
	assert.Error(t, err)
}

func TestNewSourceImageRejectsBadShape(t *testing.T) {
	_, err := NewSourceImage(0, 3, 1)
	assert.Error(t, err)
	_, err = NewSourceImage(3, 3, 2)
	assert.Error(t, err)

	img, err := NewSourceImage(2, 2, 3)
	require.NoError(t, err)
	img.Set(1, 1, 2, 42)
	assert.Equal(t, 42.0, img.At(1, 1, 2))
	assert.Len(t, img.Pix, 12)
}

func TestProcessingStateRepositorySingleRunningJob(t *testing.T) {
	repo := NewProcessingStateRepository()
	assert.False(t, repo.Cancel())

	token, ok := repo.TryStart("job-1")
	require.True(t, ok)
	require.NotNil(t, token)
	assert.True(t, repo.IsProcessing())

	_, ok = repo.TryStart("job-2")
	assert.False(t, ok)
	assert.Equal(t, "job-1", repo.GetState().JobID)

	// A stale finish for another job must not release the flag.
	repo.Finish("job-2", JobCompleted)
	assert.True(t, repo.IsProcessing())

	assert.True(t, repo.Cancel())
	assert.True(t, token.IsCancelled())

	repo.Finish("job-1", JobCancelled)
	assert.False(t, repo.IsProcessing())
	assert.Equal(t, JobCancelled, repo.GetState().State)

	next, ok := repo.TryStart("job-3")
	require.True(t, ok)
	assert.False(t, next.IsCancelled())
}

func TestErrorTaxonomy(t *testing.T) {
	inner := errors.New("weights missing")
	err := error(&ModelInvocationError{Variant: VariantNuclei, Err: inner})
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "nuclei")

	perr := error(&PersistenceError{Path: "/x/a_masks.png", Err: inner})
	assert.ErrorIs(t, perr, inner)
	assert.False(t, IsValidation(perr))
	assert.True(t, IsValidation(NewValidationError("image", "", "required")))
}

func TestCheckpointsOrdered(t *testing.T) {
	assert.Equal(t, []Checkpoint{CheckpointBeforeSegmentation, CheckpointBeforePersistence}, Checkpoints)
	assert.True(t, JobCancelled.Terminal())
	assert.False(t, JobRunning.Terminal())
}
