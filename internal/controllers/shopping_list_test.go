package controllers

import (
	"testing"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCapitalize(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"flour", "Flour"},
		{"OLIVE OIL", "Olive oil"},
		{"яйцо", "Яйцо"},
		{"", ""},
		{"7up", "7up"},
		{"\xffSALT", "\xffsalt"},
	}

	for _, tt := range testCases {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, capitalize(tt.in))
		})
	}
}

func TestFormatShoppingList(t *testing.T) {
	items := []models.ShoppingListItem{
		{Name: "flour", MeasurementUnit: "g", Amount: 300},
		{Name: "EGG", MeasurementUnit: "pcs", Amount: 2},
	}

	assert.Equal(t, "Flour (g) - 300\nEgg (pcs) - 2\n", string(FormatShoppingList(items)))
	assert.Empty(t, FormatShoppingList(nil))
}
