package sms

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ProductExample is the template farmers are shown when a post fails to parse.
const ProductExample = "ምርት: ጤፍ, ብዛት: 100ኪ.ግ, ዋጋ: 10000ብር"

// Upper bounds of the products.quantity (INTEGER) and products.price
// (NUMERIC(12,2)) columns.
const (
	MaxQuantity = math.MaxInt32
	MaxPrice    = 9999999999.99
)

// ProductLine is a parsed product post. Quantity is kilograms, price is Birr.
type ProductLine struct {
	Name     string
	Quantity int
	Price    float64
}

// productTemplate is the one supported product grammar:
//
//	ምርት: <name>, ብዛት: <digits>ኪ.ግ, ዋጋ: <number>ብር
//
// English labels (product/qty/quantity/price) are aliases of the same
// labels. Colons and units are optional.
var productTemplate = regexp.MustCompile(`(?i)^(?:ምርት|product)\s*[:：]?\s*(.+?)\s*[,，፣]\s*` +
	`(?:ብዛት|quantity|qty)\s*[:：]?\s*(\d+)\s*(?:ኪ\s*\.?\s*ግ\.?|ኪሎ(?:\s*ግራም)?|kgs?|kilograms?)?\s*[,，፣]\s*` +
	`(?:ዋጋ|price)\s*[:：]?\s*(\d+(?:\.\d{1,2})?)\s*(?:ብር|birr|etb)?\s*[.።]?$`)

// ParseProduct returns nil unless text matches the template with a
// non-empty name and a quantity and price that are positive and fit the
// products table.
func ParseProduct(text string) *ProductLine {
	m := productTemplate.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil
	}

	name := strings.Join(strings.Fields(m[1]), " ")
	if name == "" {
		return nil
	}
	qty, err := strconv.Atoi(m[2])
	if err != nil || qty <= 0 || qty > MaxQuantity {
		return nil
	}
	price, err := strconv.ParseFloat(m[3], 64)
	if err != nil || price <= 0 || price > MaxPrice {
		return nil
	}
	return &ProductLine{Name: name, Quantity: qty, Price: price}
}
