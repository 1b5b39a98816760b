package cli

// This file contains the serve command running the reference catalog
// backend.

import (
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/perfgo/apibench/catalog"
	"github.com/urfave/cli/v2"
)

func (a *App) serve(ctx *cli.Context) error {
	seed := ctx.Int64("seed")
	if !ctx.IsSet("seed") {
		seed = time.Now().UnixNano()
	}

	var store catalog.Store
	switch dsn := ctx.String("database-url"); {
	case dsn != "":
		pg, err := catalog.OpenPostgres(ctx.Context, dsn)
		if err != nil {
			return err
		}
		defer pg.Close()
		store = pg
		a.logger.Info().Msg("Serving catalog from PostgreSQL")
	case ctx.String("fixtures") != "":
		path := ctx.String("fixtures")
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open fixtures: %w", err)
		}
		fixtures, err := catalog.LoadFixtures(f)
		f.Close()
		if err != nil {
			return err
		}
		store = catalog.NewMemoryStore(fixtures)
		a.logger.Info().Str("fixtures", path).Msg("Serving catalog from fixtures")
	default:
		store = catalog.NewMemoryStore(catalog.DefaultFixtures())
		a.logger.Info().Msg("Serving built-in demo catalog")
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1))
	server, err := catalog.NewServer(a.logger, catalog.NewService(store, rng))
	if err != nil {
		return err
	}

	serveCtx, cancel := signalContext(ctx.Context)
	defer cancel()
	return server.ListenAndServe(serveCtx, ctx.String("addr"))
}
