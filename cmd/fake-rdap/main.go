// Command fake-rdap é um servidor RDAP local para testar o gateway sem
// depender da Verisign ou do rdap.org.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "fake-rdap",
		Usage: "serve canned RDAP domain documents",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen-addr", EnvVars: []string{"LISTEN_ADDR"}, Value: ":8081"},
			&cli.StringSliceFlag{Name: "domain", EnvVars: []string{"FAKE_RDAP_DOMAINS"}, Value: cli.NewStringSlice("example.com", "example.org"), Usage: "domains answered with a document; others get 404"},
			&cli.DurationFlag{Name: "delay", EnvVars: []string{"FAKE_RDAP_DELAY"}, Usage: "sleep before each answer (provider timeout tests)"},
			&cli.IntFlag{Name: "fail-status", EnvVars: []string{"FAKE_RDAP_FAIL_STATUS"}, Usage: "answer every lookup with this status and an RDAP error body"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func run(c *cli.Context) error {
	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr: c.String("listen-addr"),
		Handler: newRouter(fakeConfig{
			domains:    c.StringSlice("domain"),
			delay:      c.Duration("delay"),
			failStatus: c.Int("fail-status"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logrus.WithFields(logrus.Fields{
		"addr":    srv.Addr,
		"domains": c.StringSlice("domain"),
	}).Info("fake rdap listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
