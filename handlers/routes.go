// handlers/routes.go
package handlers

import (
	"time"

	"degen-survivor-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(app *fiber.App, queryService *services.QueryService) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Get("/games", queryService.GetGames)
	app.Get("/games/:gameId", queryService.GetGameByID)
	app.Get("/users/:wallet/balance", queryService.GetBalance)
}
