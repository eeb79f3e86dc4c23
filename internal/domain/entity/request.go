package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// TextRequest chatdan kelgan matnli xabar (yoki kontakt)
type TextRequest struct {
	ChatID       int64
	From         Requester
	Text         string
	ContactPhone string
}

// CallbackRequest inline tugma bosilishi
type CallbackRequest struct {
	ID     string
	ChatID int64
	From   Requester
	Data   string
}

// CallbackKind callback_data turi
type CallbackKind string

const (
	CallbackOrder        CallbackKind = "order"
	CallbackBrandView    CallbackKind = "brand_view"
	CallbackBrandSell    CallbackKind = "brand_sell"
	CallbackCategory     CallbackKind = "cat"
	CallbackBrowseBrands CallbackKind = "browse_brands"
	CallbackBrowseLatest CallbackKind = "browse_latest"
)

// prefixli turlar. brand_view va brand_sell "brand_" dan oldin tekshiriladi.
var idCallbackKinds = []CallbackKind{
	CallbackBrandView,
	CallbackBrandSell,
	CallbackOrder,
	CallbackCategory,
}

// Callback tahlil qilingan callback_data
type Callback struct {
	Kind CallbackKind
	ID   int64
}

// NewCallback callback yaratish
func NewCallback(kind CallbackKind, id int64) Callback {
	return Callback{Kind: kind, ID: id}
}

// Data callback_data satrini yig'ish
func (c Callback) Data() string {
	if c.ID == 0 {
		return string(c.Kind)
	}
	return fmt.Sprintf("%s_%d", c.Kind, c.ID)
}

// ParseCallback callback_data ni turga ajratadi
func ParseCallback(data string) (Callback, error) {
	data = strings.TrimSpace(data)
	switch CallbackKind(data) {
	case CallbackBrowseBrands, CallbackBrowseLatest:
		return Callback{Kind: CallbackKind(data)}, nil
	}

	for _, kind := range idCallbackKinds {
		prefix := string(kind) + "_"
		if !strings.HasPrefix(data, prefix) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
		if err != nil || id <= 0 {
			return Callback{}, fmt.Errorf("%w: %q", ErrMalformedCallback, data)
		}
		return Callback{Kind: kind, ID: id}, nil
	}

	return Callback{}, fmt.Errorf("%w: %q", ErrMalformedCallback, data)
}
