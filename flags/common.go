package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// CommonFlags returns the base set of CLI flags shared across commands.

func CommonFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "datadir",
			Usage: "Data directory for the farm ledger",
			Value: "~/.nftfarm",
		},
		cli.BoolFlag{
			Name:  "inmemory",
			Usage: "Keep the ledger in memory only (lost on exit)",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "TOML configuration file",
		},
		cli.StringFlag{
			Name:  "log.format",
			Usage: "Log output format (text|json)",
			Value: "text",
		},
		cli.IntFlag{
			Name:  "log.verbosity",
			Usage: "Logging verbosity (0=fatal,1=error,2=warn,3=info,4=debug,5=trace)",
			Value: 3,
		},
		cli.BoolFlag{
			Name:  "log.color",
			Usage: "Enable colored log output",
		},
		cli.StringFlag{
			Name:  "sentry.dsn",
			Usage: "Sentry DSN that receives error-level log entries",
		},
	}
}

// APIFlags configure the HTTP query surface.
func APIFlags() []cli.Flag {
	return []cli.Flag{
		cli.BoolFlag{
			Name:  "http",
			Usage: "Enable the HTTP API server",
		},
		cli.StringFlag{
			Name:  "http.addr",
			Usage: "HTTP API server listening interface",
			Value: "127.0.0.1",
		},
		cli.IntFlag{
			Name:  "http.port",
			Usage: "HTTP API server listening port",
			Value: 18645,
		},
		cli.BoolFlag{
			Name:  "http.devmint",
			Usage: "Expose the unauthenticated mint endpoint (development only)",
		},
	}
}
