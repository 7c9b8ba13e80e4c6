// Command lookup consulta um domínio uma vez e imprime o resultado em JSON.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"whois-gateway/internal/lookup"
	"whois-gateway/internal/rdap"
	"whois-gateway/internal/whois"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "lookup",
		Usage:     "query WHOIS and RDAP for a domain and print the normalized result",
		ArgsUsage: "<domain>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Value: "all", Usage: "all, whois or rdap"},
			&cli.DurationFlag{Name: "timeout", EnvVars: []string{"PROVIDER_TIMEOUT"}, Value: lookup.DefaultTimeout},
			&cli.StringFlag{Name: "whois-server", EnvVars: []string{"WHOIS_SERVER"}},
			&cli.StringFlag{Name: "rdap-com-url", EnvVars: []string{"RDAP_COM_URL"}, Value: rdap.ComBaseURL},
			&cli.StringFlag{Name: "rdap-default-url", EnvVars: []string{"RDAP_DEFAULT_URL"}, Value: rdap.DefaultBaseURL},
			&cli.BoolFlag{Name: "compact", Usage: "single-line JSON"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
		},
		Before: func(c *cli.Context) error {
			logrus.SetOutput(c.App.ErrWriter)
			if c.Bool("verbose") {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.WarnLevel)
			}
			return nil
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func run(c *cli.Context) error {
	domain := strings.TrimSpace(c.Args().First())
	if domain == "" {
		return cli.Exit(lookup.MsgDomainRequired, 2)
	}

	orch := lookup.New(
		whois.NewClient(c.Duration("timeout"), whois.WithServer(c.String("whois-server"))),
		rdap.NewClient(rdap.WithBaseURLs(c.String("rdap-com-url"), c.String("rdap-default-url"))),
		lookup.WithTimeout(c.Duration("timeout")),
		lookup.WithLogger(logrus.StandardLogger()),
	)

	var (
		out interface{}
		err error
	)
	switch strings.ToLower(c.String("source")) {
	case "all":
		out, err = orch.Lookup(c.Context, domain)
	case "whois":
		out, err = orch.Whois(c.Context, domain)
	case "rdap":
		out, err = orch.RDAP(c.Context, domain)
	default:
		return cli.Exit(fmt.Sprintf("unknown source %q", c.String("source")), 2)
	}
	if err != nil {
		var pe *lookup.ProviderError
		if errors.As(err, &pe) {
			return cli.Exit(pe.Prefixed(), 1)
		}
		return cli.Exit(err.Error(), 1)
	}
	return printJSON(c.App.Writer, out, !c.Bool("compact"))
}

func printJSON(w io.Writer, v interface{}, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
