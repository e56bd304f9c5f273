package rest

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/kwalis/relay"
	"github.com/kwalis/relay/github"
)

type DownloadController struct {
	Products relay.ProductStore
	Sources  github.SourceFactory
	Stats    relay.StatsStore
}

func (c *DownloadController) InstallTo(app *fiber.App) {
	app.Get("/:product/download/:asset_id/:filename", c.download)
}

// Relays previously resolved release assets. Clients get the bytes
// from here; the upstream token never leaves the server.
func (c *DownloadController) download(ctx *fiber.Ctx) error {
	product := ctx.Params("product")
	filename := ctx.Params("filename")
	assetId, err := strconv.ParseUint(ctx.Params("asset_id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid asset id")
	}

	config, err := c.Products.ByName(ctx.Context(), product)
	if err != nil {
		if errors.Is(err, relay.ErrProductNotFound) {
			requestLog(ctx).WithField("product", product).Infoln("Unknown product.")
			return fiber.ErrNotFound
		}
		return fmt.Errorf("product by name: %w", err)
	}

	body, err := c.Sources(config).DownloadAsset(assetId)
	if err != nil {
		return fmt.Errorf("download asset %d: %w", assetId, err)
	}

	c.recordDownload(ctx, config.Name)

	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename=`+filename)
	return ctx.Send(body)
}

func (c *DownloadController) recordDownload(ctx *fiber.Ctx, product string) {
	if c.Stats == nil {
		return
	}
	if err := c.Stats.RecordDownload(ctx.Context(), product); err != nil {
		requestLog(ctx).WithError(err).Warningln("Could not record download stats.")
	}
}
