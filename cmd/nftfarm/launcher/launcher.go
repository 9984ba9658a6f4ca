package launcher

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-nftfarm/flags"
)

var app = newApp()

func newApp() *cli.App {
	a := flags.NewApp("the NftFarm claim-and-pricing engine")
	a.Flags = flags.Merge(
		flags.CommonFlags(),
		flags.APIFlags(),
		flags.FarmFlags(),
		flags.ChainFlags(),
		flags.DevFlags(),
	)
	a.Action = serve
	a.Commands = []cli.Command{
		priceCommand,
		dumpConfigCommand,
		accountsCommand,
	}
	sort.Sort(cli.CommandsByName(a.Commands))
	return a
}

// Launch parses args and runs the selected command. Without a command it
// deploys the farm and serves it.
func Launch(args []string) error {
	if err := app.Run(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
