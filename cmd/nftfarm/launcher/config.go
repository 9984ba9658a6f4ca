// This file maps the CLI context and the optional TOML file onto the Config struct.

package launcher

import (
	"bufio"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-nftfarm/farm"
	"github.com/rony4d/go-nftfarm/farm/genesis"
	"github.com/rony4d/go-nftfarm/integration"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		link := ""
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://pkg.go.dev/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// Config aggregates every subsystem's configuration the launcher needs.
type Config struct {
	Node  NodeConfig
	API   APIConfig
	Chain ChainConfig
	Farm  FarmConfig
	Dev   DevConfig
}

type NodeConfig struct {
	DataDir  string
	InMemory bool
	Logging  LoggingConfig
}

type LoggingConfig struct {
	Verbosity int
	Format    string
	Color     bool
	SentryDSN string
}

type APIConfig struct {
	Enabled      bool
	Addr         string
	Port         int
	DevMint      bool
	ReadTimeout  Duration
	WriteTimeout Duration
}

type ChainConfig struct {
	BlockPeriod Duration
	StartBlock  idx.Block
}

type FarmConfig struct {
	Preset      string
	Owner       common.Address // zero means the first fake account
	Address     common.Address // zero means derived from the owner
	TokenName   string
	TokenSymbol string
	NFTName     string
	NFTSymbol   string
	Rules       farm.Rules
}

type DevConfig struct {
	FakeAccounts uint64
	Accounts     []string
	Balance      *big.Int
}

// Duration is a time.Duration that reads and writes as "3s" in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// -----------------------------------------------------------------------------
// Default config + builders
// -----------------------------------------------------------------------------

// defaultConfig lifts DefaultConfig into the Config shape.
func defaultConfig() Config {
	d := DefaultConfig()
	rules := integration.DefaultPreset().Rules
	return Config{
		Node: NodeConfig{
			DataDir:  resolvePath(d.Node.DataDir),
			InMemory: d.Node.InMemory,
			Logging: LoggingConfig{
				Verbosity: d.Logging.Verbosity,
				Format:    d.Logging.Format,
				Color:     d.Logging.Color,
				SentryDSN: d.Logging.SentryDSN,
			},
		},
		API: APIConfig{
			Enabled:      d.API.Enabled,
			Addr:         d.API.Addr,
			Port:         d.API.Port,
			DevMint:      d.API.DevMint,
			ReadTimeout:  Duration(d.API.ReadTimeout),
			WriteTimeout: Duration(d.API.WriteTimeout),
		},
		Chain: ChainConfig{
			BlockPeriod: Duration(d.Chain.BlockPeriod),
			StartBlock:  idx.Block(d.Chain.StartBlock),
		},
		Farm: FarmConfig{
			Preset:      d.Farm.Preset,
			Owner:       genesis.FakeAccount(0),
			TokenName:   d.Farm.TokenName,
			TokenSymbol: d.Farm.TokenSymbol,
			NFTName:     d.Farm.NFTName,
			NFTSymbol:   d.Farm.NFTSymbol,
			Rules:       rules,
		},
		Dev: DevConfig{
			FakeAccounts: d.Dev.FakeAccounts,
			Balance:      new(big.Int).Set(d.Dev.Balance),
		},
	}
}

// MakeAllConfigs merges defaults, the config file, the preset and the CLI
// overrides, in that order, into a single config struct.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()

	if file := stringFlag(ctx, "config"); file != "" {
		if err := loadConfigFile(file, &cfg); err != nil {
			return cfg, err
		}
	}

	if isSet(ctx, "chain.startblock") {
		cfg.Chain.StartBlock = idx.Block(uint64Flag(ctx, "chain.startblock"))
	}
	if isSet(ctx, "preset") {
		preset, err := integration.GetPresetByName(stringFlag(ctx, "preset"))
		if err != nil {
			return cfg, err
		}
		cfg.Farm.Preset = preset.Name
		integration.ApplyPreset(&cfg.Farm.Rules, integration.PresetConfig{
			Name:  preset.Name,
			Rules: preset.RulesAt(cfg.Chain.StartBlock),
		})
	}

	if err := applyCLIOverrides(ctx, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Farm.Rules.Validate(); err != nil {
		return cfg, err
	}
	if !cfg.Node.InMemory {
		if err := ensureDir(cfg.Node.DataDir); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// -----------------------------------------------------------------------------
// Config-file / CLI wiring
// -----------------------------------------------------------------------------

func loadConfigFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(path + ", " + err.Error())
	}
	if err != nil {
		return err
	}
	cfg.Node.DataDir = resolvePath(cfg.Node.DataDir)
	return nil
}

// dumpConfig renders cfg the way loadConfigFile reads it.
func dumpConfig(cfg *Config) ([]byte, error) {
	return tomlSettings.Marshal(cfg)
}

func applyCLIOverrides(ctx *cli.Context, cfg *Config) error {
	if isSet(ctx, "datadir") {
		cfg.Node.DataDir = resolvePath(stringFlag(ctx, "datadir"))
	}
	if isSet(ctx, "inmemory") {
		cfg.Node.InMemory = boolFlag(ctx, "inmemory")
	}

	if isSet(ctx, "log.format") {
		cfg.Node.Logging.Format = stringFlag(ctx, "log.format")
	}
	if isSet(ctx, "log.verbosity") {
		cfg.Node.Logging.Verbosity = intFlag(ctx, "log.verbosity")
	}
	if isSet(ctx, "log.color") {
		cfg.Node.Logging.Color = boolFlag(ctx, "log.color")
	}
	if isSet(ctx, "sentry.dsn") {
		cfg.Node.Logging.SentryDSN = stringFlag(ctx, "sentry.dsn")
	}

	if isSet(ctx, "http") {
		cfg.API.Enabled = boolFlag(ctx, "http")
	}
	if isSet(ctx, "http.addr") {
		cfg.API.Addr = stringFlag(ctx, "http.addr")
	}
	if isSet(ctx, "http.port") {
		cfg.API.Port = intFlag(ctx, "http.port")
	}
	if isSet(ctx, "http.devmint") {
		cfg.API.DevMint = boolFlag(ctx, "http.devmint")
	}

	if isSet(ctx, "chain.blockperiod") {
		cfg.Chain.BlockPeriod = Duration(durationFlag(ctx, "chain.blockperiod"))
	}

	r := &cfg.Farm.Rules
	if isSet(ctx, "farm.owner") {
		addr, err := parseAddress(stringFlag(ctx, "farm.owner"))
		if err != nil {
			return fmt.Errorf("farm.owner: %w", err)
		}
		cfg.Farm.Owner = addr
	}
	if isSet(ctx, "farm.address") {
		addr, err := parseAddress(stringFlag(ctx, "farm.address"))
		if err != nil {
			return fmt.Errorf("farm.address: %w", err)
		}
		cfg.Farm.Address = addr
	}
	if isSet(ctx, "farm.supply") {
		r.TotalSupply = uint64Flag(ctx, "farm.supply")
	}
	if isSet(ctx, "farm.price") {
		price, err := parseAmount(stringFlag(ctx, "farm.price"))
		if err != nil {
			return fmt.Errorf("farm.price: %w", err)
		}
		r.TokenPerBurn = price
	}
	if isSet(ctx, "farm.multiplier") {
		r.Multiplier = uint64Flag(ctx, "farm.multiplier")
	}
	if isSet(ctx, "farm.maxmint") {
		r.MaxMintPerSlot = uint64Flag(ctx, "farm.maxmint")
	}
	if isSet(ctx, "farm.interval") {
		lo, hi, err := parseInterval(stringFlag(ctx, "farm.interval"))
		if err != nil {
			return fmt.Errorf("farm.interval: %w", err)
		}
		r.MinInterval, r.MaxInterval = lo, hi
	}
	if isSet(ctx, "farm.multipleclaims") {
		r.AllowMultipleClaims = boolTFlag(ctx, "farm.multipleclaims")
	}
	if isSet(ctx, "farm.baseuri") {
		r.BaseURI = stringFlag(ctx, "farm.baseuri")
	}
	if isSet(ctx, "farm.hash") {
		r.ContentHash = stringFlag(ctx, "farm.hash")
	}
	if isSet(ctx, "farm.rarity") {
		r.Rarity = stringFlag(ctx, "farm.rarity")
	}
	if isSet(ctx, "farm.endblock") {
		r.EndBlock = idx.Block(uint64Flag(ctx, "farm.endblock"))
	}

	if isSet(ctx, "dev.fakeaccounts") {
		cfg.Dev.FakeAccounts = uint64Flag(ctx, "dev.fakeaccounts")
	}
	if isSet(ctx, "dev.accounts") {
		cfg.Dev.Accounts = splitCSV(stringFlag(ctx, "dev.accounts"))
	}
	if isSet(ctx, "dev.balance") {
		bal, err := parseAmount(stringFlag(ctx, "dev.balance"))
		if err != nil {
			return fmt.Errorf("dev.balance: %w", err)
		}
		cfg.Dev.Balance = bal
	}
	return nil
}

// -----------------------------------------------------------------------------
// Flag lookups. Commands see global flags through the parent context.
// -----------------------------------------------------------------------------

func isSet(ctx *cli.Context, name string) bool {
	return ctx.IsSet(name) || ctx.GlobalIsSet(name)
}

func stringFlag(ctx *cli.Context, name string) string {
	if ctx.IsSet(name) {
		return ctx.String(name)
	}
	return ctx.GlobalString(name)
}

func intFlag(ctx *cli.Context, name string) int {
	if ctx.IsSet(name) {
		return ctx.Int(name)
	}
	return ctx.GlobalInt(name)
}

func uint64Flag(ctx *cli.Context, name string) uint64 {
	if ctx.IsSet(name) {
		return ctx.Uint64(name)
	}
	return ctx.GlobalUint64(name)
}

func boolFlag(ctx *cli.Context, name string) bool {
	return ctx.Bool(name) || ctx.GlobalBool(name)
}

func boolTFlag(ctx *cli.Context, name string) bool {
	if ctx.IsSet(name) {
		return ctx.BoolT(name)
	}
	return ctx.GlobalBoolT(name)
}

func durationFlag(ctx *cli.Context, name string) time.Duration {
	if ctx.IsSet(name) {
		return ctx.Duration(name)
	}
	return ctx.GlobalDuration(name)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

func parseInterval(s string) (uint64, uint64, error) {
	parts := splitCSV(s)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want min,max, got %q", s)
	}
	lo, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	hi, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create datadir %s: %w", dir, err)
	}
	return nil
}

func resolvePath(p string) string {
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
