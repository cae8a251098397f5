package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderItemNormalizesFieldVariants(t *testing.T) {
	// Varian lama: name/qty/price, harga sebagai string
	var a OrderItem
	err := json.Unmarshal([]byte(`{"name":"Pizza","qty":"2","price":"12.50"}`), &a)
	assert.NoError(t, err)
	assert.Equal(t, "Pizza", a.ItemName)
	assert.Equal(t, 2, a.Quantity)
	assert.InDelta(t, 12.5, a.UnitPrice.Float64(), 0.001)

	// Varian baru: item_name/quantity/unit_price numerik
	var b OrderItem
	err = json.Unmarshal([]byte(`{"item_name":"Pasta","quantity":3,"unit_price":8,"notes":"no cheese"}`), &b)
	assert.NoError(t, err)
	assert.Equal(t, "Pasta", b.ItemName)
	assert.Equal(t, 3, b.Quantity)
	assert.InDelta(t, 8, b.UnitPrice.Float64(), 0.001)
	assert.Equal(t, "no cheese", b.Notes)
	assert.InDelta(t, 24, b.Subtotal(), 0.001)

	// Kedua varian hadir: bentuk kanonik menang
	var c OrderItem
	err = json.Unmarshal([]byte(`{"item_name":"Tea","name":"X","quantity":1,"qty":9,"unit_price":5,"price":99}`), &c)
	assert.NoError(t, err)
	assert.Equal(t, "Tea", c.ItemName)
	assert.Equal(t, 1, c.Quantity)
	assert.InDelta(t, 5, c.UnitPrice.Float64(), 0.001)
}

func TestMoneyAcceptsStringsAndNumbers(t *testing.T) {
	var m Money
	assert.NoError(t, json.Unmarshal([]byte(`"120.50"`), &m))
	assert.InDelta(t, 120.5, m.Float64(), 0.001)

	assert.NoError(t, json.Unmarshal([]byte(`99`), &m))
	assert.InDelta(t, 99, m.Float64(), 0.001)

	assert.NoError(t, json.Unmarshal([]byte(`null`), &m))
	assert.InDelta(t, 0, m.Float64(), 0.001)

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &m))
}

func TestOrderCancelledCaseInsensitive(t *testing.T) {
	o := Order{Status: "Cancelled"}
	assert.True(t, o.Cancelled())

	o.Status = "preparing"
	assert.False(t, o.Cancelled())
}

func TestHostTableDataAcceptsBothShapes(t *testing.T) {
	// Bentuk baru: objek pending + guests
	var obj HostTableData
	err := json.Unmarshal([]byte(`{"pending":[{"id":4,"customer_name":"Bob"}],"guests":[{"id":2,"customer_name":"Ana"}]}`), &obj)
	assert.NoError(t, err)
	assert.Len(t, obj.Pending, 1)
	assert.Equal(t, "Bob", obj.Pending[0].CustomerName)
	assert.Len(t, obj.Guests, 1)

	// Varian API lama: bare array berisi pending request saja
	var arr HostTableData
	err = json.Unmarshal([]byte(`[{"id":4,"customer_name":"Bob"}]`), &arr)
	assert.NoError(t, err)
	assert.Len(t, arr.Pending, 1)
	assert.Empty(t, arr.Guests)
}

func TestSessionGranted(t *testing.T) {
	assert.True(t, (&TableSession{IsPrimary: true}).Granted())
	assert.True(t, (&TableSession{JoinStatus: JoinStatusApproved}).Granted())
	assert.True(t, (&TableSession{JoinStatus: JoinStatusActive}).Granted())
	assert.False(t, (&TableSession{JoinStatus: JoinStatusPending}).Granted())
	assert.False(t, (&TableSession{JoinStatus: JoinStatusRejected}).Granted())
	assert.False(t, (&TableSession{}).Granted())
}
