package launcher

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-nftfarm/api"
	"github.com/rony4d/go-nftfarm/farm"
	"github.com/rony4d/go-nftfarm/farm/genesis"
	"github.com/rony4d/go-nftfarm/farm/state"
	"github.com/rony4d/go-nftfarm/farm/state/badgerdb"
	"github.com/rony4d/go-nftfarm/flags"
)

var (
	priceCommand = cli.Command{
		Name:      "price",
		Usage:     "Print the price of successive units on a bonding curve",
		ArgsUsage: "",
		Flags:     flags.PriceFlags(),
		Action:    priceAction,
		Description: `
Prints unit index and price for the first --count units of a slot. Without
--base and --multiplier the configured rules are used.`,
	}

	dumpConfigCommand = cli.Command{
		Name:   "dumpconfig",
		Usage:  "Show the effective configuration as TOML",
		Action: dumpConfigAction,
	}

	accountsCommand = cli.Command{
		Name:   "accounts",
		Usage:  "List the deterministic development accounts",
		Action: accountsAction,
	}
)

// serve deploys the farm from the merged configuration and serves it until
// interrupted.
func serve(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Node.Logging, nil)
	if err != nil {
		return err
	}

	backend, err := openBackend(cfg)
	if err != nil {
		return err
	}

	allocations, err := devAllocations(cfg.Dev)
	if err != nil {
		backend.Close()
		return err
	}

	g := genesis.FakeGenesis(cfg.Farm.Owner, cfg.Farm.Rules)
	g.Farm = cfg.Farm.Address
	g.TokenName, g.TokenSymbol = cfg.Farm.TokenName, cfg.Farm.TokenSymbol
	g.NFTName, g.NFTSymbol = cfg.Farm.NFTName, cfg.Farm.NFTSymbol
	g.Allocations = allocations
	g.ApproveFarm = true

	d, err := genesis.Deploy(g, genesis.Options{
		Backend: backend,
		Blocks:  newWallClock(cfg.Chain.StartBlock, cfg.Chain.BlockPeriod.Std()),
		Log:     log,
	})
	if err != nil {
		backend.Close()
		return err
	}
	defer d.Engine.Close()

	log.WithFields(logrus.Fields{
		"farm":     d.Engine.Address().Hex(),
		"owner":    d.Engine.Owner().Hex(),
		"token":    d.Token.Address().Hex(),
		"nft":      d.NFT.Address().Hex(),
		"preset":   cfg.Farm.Preset,
		"funded":   len(allocations),
		"inmemory": cfg.Node.InMemory,
	}).Info("Farm deployed")

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.API.Enabled {
		<-runCtx.Done()
		log.Info("Shutting down")
		return nil
	}
	srv := api.New(d.Engine, api.Config{
		Addr:         net.JoinHostPort(cfg.API.Addr, strconv.Itoa(cfg.API.Port)),
		DevMint:      cfg.API.DevMint,
		ReadTimeout:  cfg.API.ReadTimeout.Std(),
		WriteTimeout: cfg.API.WriteTimeout.Std(),
		Log:          log,
	})
	return srv.ListenAndServe(runCtx)
}

func openBackend(cfg Config) (state.Backend, error) {
	if cfg.Node.InMemory {
		return badgerdb.OpenInMemory()
	}
	return badgerdb.Open(cfg.Node.DataDir)
}

// devAllocations funds the fake accounts first, then the explicit ones.
func devAllocations(dev DevConfig) ([]genesis.Allocation, error) {
	balance := dev.Balance
	if balance == nil {
		balance = new(big.Int)
	}
	out := genesis.FakeAllocations(dev.FakeAccounts, balance)
	for _, raw := range dev.Accounts {
		addr, err := parseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("dev.accounts: %w", err)
		}
		out = append(out, genesis.Allocation{Account: addr, Amount: new(big.Int).Set(balance)})
	}
	return out, nil
}

func priceAction(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	base := cfg.Farm.Rules.TokenPerBurn
	if ctx.IsSet("base") {
		if base, err = parseAmount(ctx.String("base")); err != nil {
			return fmt.Errorf("base: %w", err)
		}
	}
	multiplier := cfg.Farm.Rules.Multiplier
	if ctx.IsSet("multiplier") {
		multiplier = ctx.Uint64("multiplier")
	}
	return writePriceTable(ctx.App.Writer, base, multiplier, ctx.Uint64("count"))
}

func writePriceTable(out io.Writer, base *big.Int, multiplier, count uint64) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "UNIT\tPRICE (wei)\tPRICE (ether)\n")
	for i := uint64(0); i < count; i++ {
		p := farm.CurvePrice(base, multiplier, i)
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, p.String(), etherString(p))
	}
	return w.Flush()
}

func etherString(wei *big.Int) string {
	f := new(big.Float).SetInt(wei)
	f.Quo(f, new(big.Float).SetInt(farm.Ether(1)))
	return f.Text('f', 6)
}

func dumpConfigAction(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	out, err := dumpConfig(&cfg)
	if err != nil {
		return err
	}
	_, err = ctx.App.Writer.Write(out)
	return err
}

func accountsAction(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "INDEX\tACCOUNT\tROLE\n")
	fmt.Fprintf(w, "0\t%s\t%s\n", genesis.FakeAccount(0).Hex(), roleOf(genesis.FakeAccount(0), cfg.Farm.Owner))
	for i := uint64(1); i <= cfg.Dev.FakeAccounts; i++ {
		fmt.Fprintf(w, "%d\t%s\tfunded\n", i, genesis.FakeAccount(i).Hex())
	}
	return w.Flush()
}

func roleOf(acc, owner common.Address) string {
	if acc == owner {
		return "owner"
	}
	return "-"
}
