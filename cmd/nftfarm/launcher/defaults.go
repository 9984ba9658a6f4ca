package launcher

import (
	"math/big"
	"time"

	"github.com/rony4d/go-nftfarm/farm"
)

// Defaults bundles the baseline configuration values the launcher uses
// before the config file, the preset and the flags override them.

type Defaults struct {
	Node    NodeDefaults
	API     APIDefaults
	Chain   ChainDefaults
	Dev     DevDefaults
	Logging LoggingDefaults
	Farm    FarmDefaults
}

// NodeDefaults captures where the farm keeps its state.
type NodeDefaults struct {
	DataDir  string //	Filesystem root of the ledger database (<datadir>/badger). Changing it lets you run several farms side by side.
	InMemory bool   //	Keep the ledger in memory only. Everything is lost on exit; meant for demos and tests.
}

// APIDefaults captures the HTTP query surface.
type APIDefaults struct {
	Enabled      bool          //	Start the HTTP API with the serve command.
	Addr         string        //	Interface the HTTP API binds to (127.0.0.1 keeps it local).
	Port         int           //	TCP port of the HTTP API.
	DevMint      bool          //	Expose POST /v1/slots/{slot}/mint, which mints for any account without a signature. Never enable in production.
	ReadTimeout  time.Duration //	Upper bound on reading a request, headers included.
	WriteTimeout time.Duration //	Upper bound on writing a response.
}

// ChainDefaults describe the simulated chain height used for the end-block deadline.
type ChainDefaults struct {
	BlockPeriod time.Duration //	Time between blocks. The height advances by one every period since startup.
	StartBlock  uint64        //	Height reported at startup.
}

// DevDefaults fund development accounts at genesis.
type DevDefaults struct {
	FakeAccounts uint64   //	Number of deterministic fake accounts funded and approved at genesis.
	Balance      *big.Int //	Genesis balance of each funded account, in wei.
}

// LoggingDefaults controls log verbosity/format.
type LoggingDefaults struct {
	Verbosity int    //	Log level numeric (0=fatal, 1=error, 2=warn, 3=info, 4=debug, 5=trace).
	Format    string //	Log output format (text vs json).
	Color     bool   //	Whether to use ANSI color codes in logs (helpful on terminals, best disabled when piping to files).
	SentryDSN string //	When set, error-level entries are also reported to Sentry.
}

// FarmDefaults names the collaborators created at genesis.
type FarmDefaults struct {
	Preset      string //	Deployment preset the rules start from.
	TokenName   string //	Name of the payment token.
	TokenSymbol string //	Ticker of the payment token.
	NFTName     string //	Name of the NFT collection.
	NFTSymbol   string //	Ticker of the NFT collection.
}

// DefaultConfig returns a fully populated Defaults instance.

func DefaultConfig() Defaults {
	return Defaults{
		Node: NodeDefaults{
			DataDir:  "~/.nftfarm",
			InMemory: false,
		},
		API: APIDefaults{
			Enabled:      true,
			Addr:         "127.0.0.1",
			Port:         18645,
			DevMint:      false,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Chain: ChainDefaults{
			BlockPeriod: 3 * time.Second,
			StartBlock:  0,
		},
		Dev: DevDefaults{
			FakeAccounts: 0,
			Balance:      farm.Ether(100000),
		},
		Logging: LoggingDefaults{
			Verbosity: 3,
			Format:    "text",
			Color:     true,
		},
		Farm: FarmDefaults{
			Preset:      "default",
			TokenName:   "Life",
			TokenSymbol: "LIFE",
			NFTName:     "Life NFT",
			NFTSymbol:   "LNFT",
		},
	}
}
