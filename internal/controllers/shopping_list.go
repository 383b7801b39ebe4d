package controllers

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
)

// FormatShoppingList renders one "Name (unit) - amount" line per item
func FormatShoppingList(items []models.ShoppingListItem) []byte {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%s (%s) - %d\n", capitalize(item.Name), item.MeasurementUnit, item.Amount)
	}
	return []byte(b.String())
}

// capitalize upper-cases the first letter and lower-cases the rest.
// An undecodable first byte is kept as is.
func capitalize(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	head := s[:size]
	if first != utf8.RuneError {
		head = string(unicode.ToUpper(first))
	}
	return head + strings.ToLower(s[size:])
}
