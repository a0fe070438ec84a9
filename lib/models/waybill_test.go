package models

import (
	"database/sql"
	"testing"
	"time"

	"assetflow/lib/constants"

	"github.com/stretchr/testify/assert"
)

func TestWaybill_DeriveStatus(t *testing.T) {
	sent := sql.NullTime{Time: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Valid: true}

	tests := []struct {
		name    string
		waybill Waybill
		want    string
	}{
		{
			name:    "draft stays draft",
			waybill: Waybill{Status: constants.WaybillStatusDraft},
			want:    constants.WaybillStatusDraft,
		},
		{
			name: "issued with no returns is outstanding",
			waybill: Waybill{
				Status: constants.WaybillStatusOutstanding,
				Items:  []WaybillItem{{Quantity: 10}},
			},
			want: constants.WaybillStatusOutstanding,
		},
		{
			name: "sent marker without returns",
			waybill: Waybill{
				Status:         constants.WaybillStatusOutstanding,
				SentToSiteDate: sent,
				Items:          []WaybillItem{{Quantity: 10}},
			},
			want: constants.WaybillStatusSentToSite,
		},
		{
			name: "partial return on one item",
			waybill: Waybill{
				Status:         constants.WaybillStatusOutstanding,
				SentToSiteDate: sent,
				Items: []WaybillItem{
					{Quantity: 10, ReturnedQuantity: 4},
					{Quantity: 5},
				},
			},
			want: constants.WaybillStatusPartialReturned,
		},
		{
			name: "all items fully returned",
			waybill: Waybill{
				Status: constants.WaybillStatusOutstanding,
				Items: []WaybillItem{
					{Quantity: 10, ReturnedQuantity: 10},
					{Quantity: 5, ReturnedQuantity: 5},
				},
			},
			want: constants.WaybillStatusReturnCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.waybill.DeriveStatus())
		})
	}
}

func TestWaybill_Issued(t *testing.T) {
	assert.False(t, (&Waybill{Status: constants.WaybillStatusDraft}).Issued())
	assert.True(t, (&Waybill{Status: constants.WaybillStatusOutstanding}).Issued())
	assert.True(t, (&Waybill{Status: constants.WaybillStatusPartialReturned}).Issued())
}
