package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"papertrader/cmd/cryptobars"
	"papertrader/cmd/seed"
	"papertrader/cmd/sweeper"
	"papertrader/src/database"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Papertrader CMD"
	app.Usage = "The papertrader command line interface"

	app.Commands = []cli.Command{
		sweeperCMD,
		seedCMD,
		cryptoBarsCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	sweeperCMD = cli.Command{
		Name:        "sweeper",
		Usage:       "run the simulation sweep loop",
		Action:      sweeperAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the scheduled simulation sweep without the HTTP server`,
	}
	seedCMD = cli.Command{
		Name:        "seed",
		Usage:       "migrate the schema and seed defaults",
		Action:      seedAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Migrate the schema, seed the strategy catalog and starter symbols`,
	}
	cryptoBarsCMD = cli.Command{
		Name:        "cryptobars",
		Usage:       "backfill crypto OHLCV bars",
		Action:      cryptoBarsAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Backfill OHLCV bars for crypto symbols from Binance klines`,
	}
)

func sweeperAction(_ *cli.Context) error {
	logrus.Info("Starting sweeper CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	s := &sweeper.Sweep{
		Log: logrus.WithField("cmd", "sweeper"),
		DB:  database.MainDB,
	}
	if err := s.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func seedAction(_ *cli.Context) error {
	logrus.Info("Starting seed CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	s := &seed.Seeder{
		Log: logrus.WithField("cmd", "seed"),
		DB:  database.MainDB,
	}
	if err := s.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func cryptoBarsAction(_ *cli.Context) error {
	logrus.Info("Starting cryptobars CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	c := &cryptobars.CryptoBars{
		Log: logrus.WithField("cmd", "cryptobars"),
		DB:  database.MainDB,
	}
	if err := c.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}
