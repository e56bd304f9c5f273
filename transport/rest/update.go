package rest

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kwalis/relay"
	"github.com/kwalis/relay/github"
)

type UpdateController struct {
	Products relay.ProductStore
	Sources  github.SourceFactory
	Checker  *relay.UpdateChecker
	Stats    relay.StatsStore
}

func (c *UpdateController) InstallTo(app *fiber.App) {
	app.Get("/:product/:feature/:target/:arch/:current_version", c.check)
}

// Tauri updater response shape.
type updateResponse struct {
	Version   string `json:"version"`
	PubDate   string `json:"pub_date"`
	Url       string `json:"url"`
	Signature string `json:"signature"`
	Notes     string `json:"notes"`
}

func (c *UpdateController) check(ctx *fiber.Ctx) error {
	product := ctx.Params("product")
	feature := ctx.Params("feature")
	platform := relay.Platform{
		Target: ctx.Params("target"),
		Arch:   ctx.Params("arch"),
	}
	currentVersion := ctx.Params("current_version")

	config, err := c.Products.ByName(ctx.Context(), product)
	if err != nil {
		if errors.Is(err, relay.ErrProductNotFound) {
			requestLog(ctx).WithField("product", product).Infoln("Unknown product.")
			return fiber.ErrNotFound
		}
		return fmt.Errorf("product by name: %w", err)
	}

	source := c.Sources(config)
	release, err := source.LatestRelease()
	if err != nil {
		return fmt.Errorf("fetch latest release: %w", err)
	}

	update, ok, err := c.Checker.Check(release, source, config.Name, platform, feature, currentVersion)
	if err != nil {
		var noMatch *relay.NoMatchingAssetError
		var noSig *relay.NoSignatureError
		switch {
		case errors.Is(err, relay.ErrInvalidCurrentVersion):
			return fiber.NewError(fiber.StatusBadRequest, "invalid current version")
		case errors.As(err, &noMatch):
			requestLog(ctx).WithField("platform", platform.String()).Infoln("No matching asset.")
			return fiber.ErrNotFound
		case errors.As(err, &noSig):
			requestLog(ctx).WithField("installer", noSig.Filename).Warningln("No signature asset.")
			return fiber.ErrNotFound
		default:
			return fmt.Errorf("check update: %w", err)
		}
	}

	c.recordCheck(ctx, config.Name, ok)

	if !ok {
		return ctx.SendStatus(fiber.StatusNoContent)
	}

	var pubDate string
	if !update.PubDate.IsZero() {
		pubDate = update.PubDate.Format(time.RFC3339)
	}
	err = ctx.JSON(updateResponse{
		Version:   update.Version,
		PubDate:   pubDate,
		Url:       update.Url,
		Signature: update.Signature,
		Notes:     update.Notes,
	})
	if err != nil {
		return fmt.Errorf("json serialize: %w", err)
	}
	return nil
}

// Telemetry only, never fails the request.
func (c *UpdateController) recordCheck(ctx *fiber.Ctx, product string, updateServed bool) {
	if c.Stats == nil {
		return
	}
	if err := c.Stats.RecordCheck(ctx.Context(), product, updateServed); err != nil {
		requestLog(ctx).WithError(err).Warningln("Could not record check stats.")
	}
}
