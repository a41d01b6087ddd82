package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int          { return &v }
func int64Ptr(v int64) *int64    { return &v }
func stringPtr(s string) *string { return &s }

func TestTicketReference_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		name string
		body string
		want *int64
	}{
		{"bare number", `17`, int64Ptr(17)},
		{"numeric string", `"17"`, int64Ptr(17)},
		{"object", `{"id": 17}`, int64Ptr(17)},
		{"non-numeric string", `"abc"`, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ref TicketReference
			require.NoError(t, json.Unmarshal([]byte(tc.body), &ref))
			if tc.want == nil {
				assert.Nil(t, ref.ID)
			} else {
				require.NotNil(t, ref.ID)
				assert.Equal(t, *tc.want, *ref.ID)
			}
		})
	}
}

func TestInventoryReceiveResponse_Confirmation(t *testing.T) {
	t.Run("ticket reference wins over everything", func(t *testing.T) {
		resp := &InventoryReceiveResponse{
			Ticket:     &TicketReference{ID: int64Ptr(42)},
			Adjustment: &InventoryAdjustmentDetail{Description: stringPtr("ignored")},
			Message:    stringPtr("ignored"),
		}
		title, message := resp.Confirmation()
		assert.Equal(t, "Ticket Created", title)
		assert.Equal(t, "Ticket #42 created.", message)
	})

	t.Run("adjustment fields in priority order", func(t *testing.T) {
		adj := &InventoryAdjustmentDetail{
			Description:      stringPtr("desc"),
			Message:          stringPtr("msg"),
			Note:             stringPtr("note"),
			QuantityChange:   intPtr(5),
			PreviousQuantity: intPtr(10),
			NewQuantity:      intPtr(15),
			Quantity:         intPtr(5),
			Barcode:          stringPtr("BC-1"),
		}
		resp := &InventoryReceiveResponse{Adjustment: adj}

		_, message := resp.Confirmation()
		assert.Equal(t, "desc", message)

		adj.Description = nil
		_, message = resp.Confirmation()
		assert.Equal(t, "msg", message)

		adj.Message = nil
		_, message = resp.Confirmation()
		assert.Equal(t, "note", message)

		adj.Note = nil
		_, message = resp.Confirmation()
		assert.Equal(t, "Adjusted by 5 to 15.", message)

		adj.QuantityChange = nil
		_, message = resp.Confirmation()
		assert.Equal(t, "Quantity changed from 10 to 15.", message)

		adj.PreviousQuantity = nil
		_, message = resp.Confirmation()
		assert.Equal(t, "Received 5 items for BC-1.", message)

		adj.Barcode = nil
		_, message = resp.Confirmation()
		assert.Equal(t, "Received 5 items.", message)

		adj.Quantity = intPtr(1)
		_, message = resp.Confirmation()
		assert.Equal(t, "Received 1 item.", message)
	})

	t.Run("top-level message then generic fallback", func(t *testing.T) {
		resp := &InventoryReceiveResponse{Message: stringPtr("stored in bin 4")}
		title, message := resp.Confirmation()
		assert.Equal(t, "Inventory Received", title)
		assert.Equal(t, "stored in bin 4", message)

		title, message = (&InventoryReceiveResponse{}).Confirmation()
		assert.Equal(t, "Inventory Received", title)
		assert.Equal(t, "Inventory received successfully.", message)
	})
}

func TestDecodeAdjustResponse(t *testing.T) {
	t.Run("bare event", func(t *testing.T) {
		body := `{"id": "e1", "hardwareId": "h1", "delta": -2, "balance": 5}`
		resp, err := decodeAdjustResponse(json.RawMessage(body))
		require.NoError(t, err)
		require.NotNil(t, resp.Event)
		assert.Equal(t, "e1", resp.Event.ID)
		assert.Equal(t, -2, resp.Event.Delta)
		assert.Equal(t, 5, resp.Event.Balance)
	})

	t.Run("enveloped event", func(t *testing.T) {
		body := `{"event": {"id": "e2", "hardwareId": "h1", "delta": 1, "balance": 8}}`
		resp, err := decodeAdjustResponse(json.RawMessage(body))
		require.NoError(t, err)
		require.NotNil(t, resp.Event)
		assert.Equal(t, "e2", resp.Event.ID)
	})

	t.Run("envelope without event", func(t *testing.T) {
		body := `{"adjustment": {"quantityChange": 3, "newQuantity": 12}}`
		resp, err := decodeAdjustResponse(json.RawMessage(body))
		require.NoError(t, err)
		assert.Nil(t, resp.Event)
		require.NotNil(t, resp.Adjustment)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := decodeAdjustResponse(json.RawMessage(`[1, 2]`))
		var decodingErr *DecodingError
		require.ErrorAs(t, err, &decodingErr)
	})
}
