package handlers

import "github.com/gofiber/fiber/v2"

var coffeeSpecialties = []string{"Espresso", "Cappuccino"}

// CoffeeHandler serves the coffee specialties list.
type CoffeeHandler struct{}

// NewCoffeeHandler constructs handler.
func NewCoffeeHandler() *CoffeeHandler {
	return &CoffeeHandler{}
}

// List handles GET /api/coffee-specialties.
func (h *CoffeeHandler) List(c *fiber.Ctx) error {
	return c.JSON(coffeeSpecialties)
}
