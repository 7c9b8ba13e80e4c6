package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:   "whois-gateway",
		Usage:  "aggregates WHOIS and RDAP domain data behind a rate-limited HTTP API",
		Flags:  flags(),
		Before: setupLogging,
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func setupLogging(c *cli.Context) error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	lvl, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	if lvl >= logrus.DebugLevel {
		logrus.SetReportCaller(true)
	}
	return nil
}
