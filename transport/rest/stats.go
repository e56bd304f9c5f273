package rest

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/kwalis/relay"
)

type StatsController struct {
	Store relay.StatsStore
}

func (c *StatsController) InstallTo(app *fiber.App) {
	app.Get("/stats/:product", c.serveStats)
}

func (c *StatsController) serveStats(ctx *fiber.Ctx) error {
	stats, err := c.Store.ByProduct(ctx.Context(), ctx.Params("product"))
	if err != nil {
		return fmt.Errorf("stats by product: %w", err)
	}

	err = ctx.JSON(stats)
	if err != nil {
		return fmt.Errorf("json serialize: %w", err)
	}
	return nil
}
