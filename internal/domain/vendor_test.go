package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOrder(t *testing.T) {
	order := []VendorStatus{StatusInvited, StatusInProgress, StatusComplete, StatusApproved}
	for i := range order {
		for j := range order {
			assert.Equal(t, i < j, order[i].Before(order[j]), "%s before %s", order[i], order[j])
		}
	}
}

func TestCanTransition(t *testing.T) {
	all := []VendorStatus{StatusInvited, StatusInProgress, StatusComplete, StatusApproved}
	allowed := map[[2]VendorStatus]bool{
		{StatusInvited, StatusInProgress}:  true,
		{StatusInvited, StatusComplete}:    true,
		{StatusInProgress, StatusComplete}: true,
		{StatusComplete, StatusApproved}:   true,
	}

	for _, from := range all {
		for _, to := range all {
			got := CanTransition(from, to)
			assert.Equal(t, allowed[[2]VendorStatus{from, to}], got, "%s -> %s", from, to)
			if got {
				assert.True(t, from.Before(to), "transition %s -> %s must move forward", from, to)
			}
		}
	}
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "In Progress", StatusInProgress.Label())
	assert.Equal(t, "Approved", StatusApproved.Label())
	assert.False(t, VendorStatus("archived").Valid())
}

func TestParseDocumentType(t *testing.T) {
	for _, dt := range RequiredDocumentTypes {
		got, err := ParseDocumentType(string(dt))
		require.NoError(t, err)
		assert.Equal(t, dt, got)
	}

	_, err := ParseDocumentType("passport")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "W-9 Tax Form", DocumentW9.Label())
}

// Every subset of the four required types: complete iff all four are present.
func TestComputeCompletenessAllSubsets(t *testing.T) {
	for mask := 0; mask < 1<<len(RequiredDocumentTypes); mask++ {
		var docs []*Document
		for i, dt := range RequiredDocumentTypes {
			if mask&(1<<i) != 0 {
				docs = append(docs, &Document{DocumentType: dt})
			}
		}

		t.Run(fmt.Sprintf("mask_%04b", mask), func(t *testing.T) {
			c := ComputeCompleteness(docs)
			assert.Equal(t, len(docs) == 4, c.IsComplete)
			assert.Len(t, c.Missing, 4-len(docs))
		})
	}
}

func TestComputeCompletenessDuplicatesAndOrder(t *testing.T) {
	docs := []*Document{
		{DocumentType: DocumentLicense},
		{DocumentType: DocumentLicense},
		{DocumentType: DocumentW9},
	}
	c := ComputeCompleteness(docs)
	assert.False(t, c.IsComplete)
	assert.Equal(t, []DocumentType{DocumentCOI, DocumentBanking}, c.Missing)
}

func TestErrorKindMatching(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("invite: %w", NewError(KindPersistence, "failed to create vendor", cause))

	assert.True(t, errors.Is(err, ErrPersistence))
	assert.False(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.Equal(t, KindPersistence, KindOf(errors.New("plain")))
	assert.Contains(t, err.Error(), "connection refused")
}
