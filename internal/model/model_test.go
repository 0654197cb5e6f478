package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceWithCashback(t *testing.T) {
	tests := []struct {
		price    int
		cashback int
		want     int
	}{
		{price: 1000, cashback: 0, want: 1000},
		{price: 1000, cashback: 30, want: 700},
		{price: 999, cashback: 15, want: 849},
		{price: 1001, cashback: 50, want: 501},
		{price: 500, cashback: 100, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PriceWithCashback(tt.price, tt.cashback), "%d -%d%%", tt.price, tt.cashback)
	}
	assert.Equal(t, 700, Goods{Price: 1000, CashbackPercent: 30}.PriceWithCashback())
}

func TestMaskArticle(t *testing.T) {
	assert.Equal(t, "*****6789", MaskArticle("123456789"))
	assert.Equal(t, "1234", MaskArticle("1234"))
	assert.Equal(t, "", MaskArticle(""))
	assert.Equal(t, "**ГДЕЖ", MaskArticle("АБГДЕЖ"))
}

func TestRequirementIDUnmarshal(t *testing.T) {
	var reqs []ConfirmationRequirement
	err := json.Unmarshal([]byte(`[{"id":1,"title":"Номер","type":"text"},{"id":"a-2","title":"Фото","type":"photo"}]`), &reqs)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, RequirementID("1"), reqs[0].ID)
	assert.Equal(t, RequirementID("a-2"), reqs[1].ID)
	assert.True(t, reqs[1].Type.Valid())
	assert.False(t, RequirementType("audio").Valid())
}

func TestDate(t *testing.T) {
	var g Goods
	err := json.Unmarshal([]byte(`{"start_date":"2025-07-15","end_date":null,"daily_availability":[{"goods_id":1,"date":"2025-07-16T00:00:00","available_quantity":3}]}`), &g)
	require.NoError(t, err)
	require.NotNil(t, g.StartDate)
	assert.Equal(t, "2025-07-15", g.StartDate.String())
	// null оставляет нулевую дату
	assert.True(t, g.EndDate == nil || g.EndDate.IsZero())

	qty, ok := g.AvailableOn(time.Date(2025, 7, 16, 18, 30, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 3, qty)
	_, ok = g.AvailableOn(time.Date(2025, 7, 17, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)

	b, err := json.Marshal(NewDate(time.Date(2025, 1, 2, 23, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, `"2025-01-02"`, string(b))

	_, err = ParseDate("15.07.2025")
	assert.Error(t, err)
}

func TestPhaseAndStatus(t *testing.T) {
	assert.Equal(t, PhaseOrder, PhaseFor(ReservationPending))
	assert.Equal(t, PhaseDelivery, PhaseFor(ReservationActive))
	assert.Equal(t, "order", PhaseOrder.String())
	assert.Equal(t, "delivery", PhaseDelivery.String())

	assert.True(t, ReservationPending.Cancelable())
	assert.True(t, ReservationActive.Cancelable())
	assert.False(t, ReservationConfirmed.Cancelable())
	assert.False(t, ReservationCanceled.Cancelable())

	g := Goods{
		ConfirmationRequirements:         []ConfirmationRequirement{{ID: "1"}},
		DeliveryConfirmationRequirements: []ConfirmationRequirement{{ID: "2"}, {ID: "3"}},
	}
	assert.Len(t, g.Requirements(PhaseOrder), 1)
	assert.Len(t, g.Requirements(PhaseDelivery), 2)
}
