package main

import (
	"context"
	"flag"
	"log/syslog"
	"os"
	"os/signal"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/kwalis/relay"
	"github.com/kwalis/relay/github"
	"github.com/kwalis/relay/inmem"
	"github.com/kwalis/relay/persistent"
	"github.com/kwalis/relay/transport/rest"
	"github.com/sirupsen/logrus"
	logrusys "github.com/sirupsen/logrus/hooks/syslog"
	"github.com/tidwall/buntdb"
	_ "github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

func listenAndServe(
	products relay.ProductStore,
	stats relay.StatsStore,
	host string,
	addr string,
) func() error {
	checker := &relay.UpdateChecker{
		Matcher: relay.NewPlatformMatcher(relay.DefaultMatchRules()),
		Host:    host,
	}

	updateController := rest.UpdateController{
		Products: products,
		Sources:  github.RestSourceFactory,
		Checker:  checker,
		Stats:    stats,
	}
	downloadController := rest.DownloadController{
		Products: products,
		Sources:  github.RestSourceFactory,
		Stats:    stats,
	}
	statsController := rest.StatsController{Store: stats}

	server := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		ErrorHandler: rest.ErrorHandler,
	})
	server.Use(rest.LogHandler())
	server.Use(cors.New())

	server.Get("/status", monitor.New())
	statsController.InstallTo(server)
	downloadController.InstallTo(server)
	updateController.InstallTo(server)

	server.Use(rest.NotFoundHandler)

	go server.Listen(addr)

	return func() error {
		return server.Shutdown()
	}
}

func setupLogger(verbose bool) {
	logrus.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: time.Stamp,
		FullTimestamp:   true,
	})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	syslogHook, err := logrusys.NewSyslogHook("", "", syslog.LOG_USER, "update_relay")
	if err != nil {
		logrus.WithError(err).Warningln("Could not create syslog hook.")
		return
	}
	logrus.AddHook(syslogHook)
}

func envOr(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

// Products come either from postgres (POSTGRES_DSN set) or from
// `<PRODUCT>_TOKEN`/`<PRODUCT>_OWNER`/`<PRODUCT>_REPO` environment
// triples.
func productStore(ctx context.Context, debug bool) (relay.ProductStore, func()) {
	pgDsn := os.Getenv("POSTGRES_DSN")
	if pgDsn != "" {
		logrus.Infoln("Opening product database.")
		db := persistent.PgOpen(ctx, pgDsn)
		if debug {
			db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
		}
		return persistent.ProductStore{DB: db}, func() {
			db.DB.Close()
			db.Close()
		}
	}

	store := inmem.NewProductStoreFromEnviron(os.Environ())
	if store.Len() == 0 {
		logrus.Fatalln("No products configured! " +
			"Set POSTGRES_DSN or <PRODUCT>_TOKEN/_OWNER/_REPO environment triples.")
	}
	logrus.WithField("products", store.Len()).Infoln("Loaded products from environment.")
	return store, func() {}
}

func awaitInterruption() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
}

func main() {
	flag.Parse()
	debug := os.Getenv("DEBUG") == "true"
	setupLogger(debug)
	logrus.Infoln("Starting update relay.")

	bdb, err := buntdb.Open(envOr("STATS_DB", "stats.db"))
	if err != nil {
		logrus.WithError(err).Fatalln("Could not open buntdb.")
	}
	defer bdb.Close()

	products, closeProducts := productStore(context.Background(), debug)
	defer closeProducts()

	stats := &persistent.StatsStore{Buntdb: bdb}

	host := envOr("HOSTNAME", "http://localhost:8080")
	addr := envOr("ADDRESS", "0.0.0.0") + ":" + envOr("PORT", "8080")

	logrus.WithField("addr", addr).Infoln("Starting listening... To shut down use ^C")
	shutdown := listenAndServe(products, stats, host, addr)

	awaitInterruption()

	logrus.Infoln("Shutting down...")
	err = shutdown()
	if err != nil {
		logrus.WithError(err).Warningln("Fiber shutdown failed.")
	}
	logrus.Exit(0)
}
