package models

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a display-formatted price such as "$12.99". Stored records may
// carry a bare JSON number instead; it is normalised on decode.
type Price string

// PriceFromAmount formats an amount the way numeric prices are displayed.
func PriceFromAmount(d decimal.Decimal) Price {
	return Price("$" + d.StringFixed(2))
}

func (p *Price) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = Price(s)
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*p = PriceFromAmount(d)
	return nil
}

var (
	priceNoise  = regexp.MustCompile(`[^0-9.,-]`)
	priceNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)
)

// Amount parses the numeric value of the price: everything except digits,
// '.', ',' and '-' is dropped, the first ',' becomes a decimal point and the
// longest leading number is used. Unparsable prices are zero.
func (p Price) Amount() decimal.Decimal {
	cleaned := priceNoise.ReplaceAllString(string(p), "")
	cleaned = strings.Replace(cleaned, ",", ".", 1)

	m := priceNumber.FindString(cleaned)
	if m == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(m, "."))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// LineItem is one product row of a cart. Identity is ID.
type LineItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price Price  `json:"price"`
	Img   string `json:"img"`
	Desc  string `json:"desc"`
	Qty   int    `json:"qty"`
}

// Quantity is Qty with anything below one counted as one.
func (i LineItem) Quantity() int {
	if i.Qty < 1 {
		return 1
	}
	return i.Qty
}

// Subtotal is price times quantity.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.Price.Amount().Mul(decimal.NewFromInt(int64(i.Quantity())))
}

// ProductID derives a stable item id from what a product card shows.
func ProductID(title, img string) string {
	return url.QueryEscape(title + "|" + img)
}
