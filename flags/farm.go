package flags

import (
	"time"

	"gopkg.in/urfave/cli.v1"
)

// FarmFlags cover the rules and roles of the farm. They override the preset
// and the config file.

func FarmFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "preset",
			Usage: "Deployment preset (default|bunny)",
			Value: "default",
		},
		cli.StringFlag{
			Name:  "farm.owner",
			Usage: "Owner account of the farm, token and collection",
		},
		cli.StringFlag{
			Name:  "farm.address",
			Usage: "Account of the farm itself (derived from the owner when empty)",
		},
		cli.Uint64Flag{
			Name:  "farm.supply",
			Usage: "Cap on distinct claimed slots (0 = no cap)",
		},
		cli.StringFlag{
			Name:  "farm.price",
			Usage: "Base price per unit, in wei",
		},
		cli.Uint64Flag{
			Name:  "farm.multiplier",
			Usage: "Per-unit price multiplier scaled by 1e6 (0 = flat)",
		},
		cli.Uint64Flag{
			Name:  "farm.maxmint",
			Usage: "Default cap on claimed units per slot",
		},
		cli.StringFlag{
			Name:  "farm.interval",
			Usage: "Inclusive window of mintable slots, as min,max",
		},
		cli.BoolTFlag{
			Name:  "farm.multipleclaims",
			Usage: "Allow an account to claim the same slot more than once",
		},
		cli.StringFlag{
			Name:  "farm.baseuri",
			Usage: "Metadata base URI",
		},
		cli.StringFlag{
			Name:  "farm.hash",
			Usage: "Metadata content hash",
		},
		cli.StringFlag{
			Name:  "farm.rarity",
			Usage: "Label applied to minted units",
		},
		cli.Uint64Flag{
			Name:  "farm.endblock",
			Usage: "Block after which minting closes (0 = never)",
		},
	}
}

// ChainFlags describe the clock the end-block deadline is measured against.
func ChainFlags() []cli.Flag {
	return []cli.Flag{
		cli.DurationFlag{
			Name:  "chain.blockperiod",
			Usage: "Time between blocks of the simulated chain",
			Value: 3 * time.Second,
		},
		cli.Uint64Flag{
			Name:  "chain.startblock",
			Usage: "Block height at startup",
		},
	}
}

// DevFlags fund accounts at genesis so a local farm is usable immediately.
func DevFlags() []cli.Flag {
	return []cli.Flag{
		cli.Uint64Flag{
			Name:  "dev.fakeaccounts",
			Usage: "Number of deterministic fake accounts funded and approved at genesis",
		},
		cli.StringFlag{
			Name:  "dev.accounts",
			Usage: "Comma-separated accounts funded and approved at genesis",
		},
		cli.StringFlag{
			Name:  "dev.balance",
			Usage: "Genesis balance of each dev account, in wei",
		},
	}
}

// PriceFlags configure the price command.
func PriceFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "base",
			Usage: "Base price in wei (defaults to the configured price)",
		},
		cli.Uint64Flag{
			Name:  "multiplier",
			Usage: "Multiplier scaled by 1e6 (defaults to the configured multiplier)",
		},
		cli.Uint64Flag{
			Name:  "count",
			Usage: "Number of units to print",
			Value: 10,
		},
	}
}
