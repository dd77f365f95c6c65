package source_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herd-census/internal/domain"
	"herd-census/internal/source"
	mock_usecase "herd-census/internal/usecase/mocks"
)

func TestMovementAdapter_Fetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_usecase.NewMockRecordStore(ctrl)
	store.EXPECT().ListOutboundMovements(gomock.Any(), periodStart, periodEnd).Return([]domain.RawRow{
		{"id": "M1", "locality": "Site-A", "sex": "Macho", "quantity": 3},
		{"id": "M2", "tax_id": "22.222.222/0001-22", "sexo": "fêmea", "quantidade": "4"},
		{"id": "M3", "locality": "Site-A", "sex": "f", "quantity": 0},
		{"id": "M4", "locality": "Site-A", "sex": "f"},
		{"id": "M5", "locality": "Site-A", "sex": "f", "quantity": 1, "date": "2024-11-01"},
		{"id": "M6", "sex": "?", "quantity": 2},
		{"id": "M7", "locality": "Site-A", "sex": "m", "quantity": "1e30"},
		{"id": "M8", "locality": "Site-A", "sex": "m", "quantity": "-1e30"},
	}, nil)

	movements, skips, err := source.NewMovementAdapter(store, testDeps()).Fetch(context.Background(), periodStart, periodEnd, "")
	require.NoError(t, err)

	assert.Equal(t, 3, skips[domain.SkipInvalidQuantity])
	assert.Equal(t, 1, skips[domain.SkipExcessiveQuantity])
	assert.Equal(t, 1, skips[domain.SkipOutOfPeriod])
	assert.Equal(t, []domain.OutboundMovement{
		{SourceID: "M1", Locality: "Site-A", Sex: domain.SexMale, Quantity: 3},
		{SourceID: "M2", Locality: "Site-B", Sex: domain.SexFemale, Quantity: 4},
		{SourceID: "M6", Locality: "", Sex: domain.SexUnknown, Quantity: 2},
	}, movements)
}

func TestMovementAdapter_Hint(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_usecase.NewMockRecordStore(ctrl)
	store.EXPECT().ListOutboundMovements(gomock.Any(), periodStart, periodEnd).Return([]domain.RawRow{
		{"id": "M1", "locality": "Site-A", "sex": "m", "quantity": 3},
		{"id": "M2", "locality": "Site-B", "sex": "m", "quantity": 1},
	}, nil)

	movements, _, err := source.NewMovementAdapter(store, testDeps()).Fetch(context.Background(), periodStart, periodEnd, "Site-B")
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, "M2", movements[0].SourceID)
}
