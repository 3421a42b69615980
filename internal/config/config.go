package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cryptonote-pool/payoutd/internal/core/application"
	"github.com/cryptonote-pool/payoutd/internal/core/domain"
	"github.com/cryptonote-pool/payoutd/internal/core/ports"
	"github.com/cryptonote-pool/payoutd/internal/infrastructure/addressvalidator"
	badgerjournal "github.com/cryptonote-pool/payoutd/internal/infrastructure/journal/badger"
	inmemoryledger "github.com/cryptonote-pool/payoutd/internal/infrastructure/ledger/inmemory"
	redisledger "github.com/cryptonote-pool/payoutd/internal/infrastructure/ledger/redis"
	watermillnotifier "github.com/cryptonote-pool/payoutd/internal/infrastructure/notifier/watermill"
	timescheduler "github.com/cryptonote-pool/payoutd/internal/infrastructure/scheduler/gocron"
	"github.com/cryptonote-pool/payoutd/internal/infrastructure/transfer"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
)

var (
	supportedLedgers = supportedType{
		"redis":    {},
		"inmemory": {},
	}
	supportedFamilies = supportedType{
		string(transfer.FamilyDefault):  {},
		string(transfer.FamilyBytecoin): {},
		string(transfer.FamilyHaven):    {},
	}
)

type Config struct {
	Datadir  string
	LogLevel int

	Coin                string
	Interval            int64
	LedgerType          string
	RedisUrl            string
	RedisTxNumOfRetries int
	WalletRpcUrl        string
	DaemonFamily        string
	AssetsFile          string

	PaymentIDSeparator        string
	FixedDiffEnabled          bool
	FixedDiffSeparator        string
	IntegratedAddressPrefixes []string
	IntegratedAddressLengths  []int64
	NotificationsTopic        string

	policies  domain.PolicyTable
	ledger    ports.LedgerStore
	transfer  ports.TransferClient
	scheduler ports.SchedulerService
	notifier  ports.Notifier
	journal   ports.SettlementJournal
	validator ports.AddressValidator
	svc       *application.SettlementService
}

func (c *Config) String() string {
	clone := *c
	json, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	defaultDatadir             = "./payoutd-data"
	defaultLogLevel            = 4
	defaultInterval            = int64(600)
	defaultLedgerType          = "redis"
	defaultRedisTxNumOfRetries = 10
	defaultDaemonFamily        = string(transfer.FamilyDefault)
	defaultPaymentIDSeparator  = "+"
	defaultFixedDiffSeparator  = "."
)

// env returns a list of strings prefixed with `PAYOUTD_`.
// This is used as a syntax sugar for defining env vars.
func env(values ...string) []string {
	envs := make([]string, len(values))

	for i, value := range values {
		envs[i] = fmt.Sprintf("PAYOUTD_%s", value)
	}

	return envs
}

var (
	Datadir = &cli.StringFlag{
		Usage: "Directory to store data",
		Name:  "datadir", EnvVars: env("DATADIR"),
		Value: defaultDatadir,
	}

	LogLevel = &cli.IntFlag{
		Usage: "Logging level (0-6, where 6 is trace)",
		Name:  "log-level", EnvVars: env("LOG_LEVEL"),
		Value: defaultLogLevel,
	}

	Coin = &cli.StringFlag{
		Usage: "Coin namespace used to prefix every ledger key",
		Name:  "coin", EnvVars: env("COIN"),
		Required: true,
	}

	Interval = &cli.Int64Flag{
		Usage: "Delay between two settlement runs in seconds",
		Name:  "interval", EnvVars: env("INTERVAL"),
		Value: defaultInterval,
	}

	LedgerType = &cli.StringFlag{
		Usage: "Ledger store type (redis, inmemory)",
		Name:  "ledger-type", EnvVars: env("LEDGER_TYPE"),
		Value: defaultLedgerType,
	}

	RedisUrl = &cli.StringFlag{
		Usage: "Redis db connection url if PAYOUTD_LEDGER_TYPE is set to redis",
		Name:  "redis-url", EnvVars: env("REDIS_URL"),
	}

	RedisTxNumOfRetries = &cli.IntFlag{
		Usage: "Maximum number of retries for redis write operations in case of conflicts",
		Name:  "redis-num-of-retries", EnvVars: env("REDIS_NUM_OF_RETRIES"),
		Value: defaultRedisTxNumOfRetries,
	}

	WalletRpcUrl = &cli.StringFlag{
		Usage: "Wallet daemon JSON-RPC endpoint, e.g. http://127.0.0.1:8082/json_rpc",
		Name:  "wallet-rpc-url", EnvVars: env("WALLET_RPC_URL"),
		Required: true,
	}

	DaemonFamily = &cli.StringFlag{
		Usage: "Wallet daemon family (default, bytecoin, haven)",
		Name:  "daemon-family", EnvVars: env("DAEMON_FAMILY"),
		Value: defaultDaemonFamily,
	}

	AssetsFile = &cli.StringFlag{
		Usage: "Path to the JSON file holding the per-asset payout policies",
		Name:  "assets-file", EnvVars: env("ASSETS_FILE"),
		Required: true,
	}

	PaymentIDSeparator = &cli.StringFlag{
		Usage: "Separator splitting address and payment id in account identifiers",
		Name:  "payment-id-separator", EnvVars: env("PAYMENT_ID_SEPARATOR"),
		Value: defaultPaymentIDSeparator,
	}

	FixedDiffEnabled = &cli.BoolFlag{
		Usage: "Strip the fixed-difficulty suffix miners append to their address",
		Name:  "fixed-diff-enabled", EnvVars: env("FIXED_DIFF_ENABLED"),
	}

	FixedDiffSeparator = &cli.StringFlag{
		Usage: "Separator of the fixed-difficulty address suffix",
		Name:  "fixed-diff-separator", EnvVars: env("FIXED_DIFF_SEPARATOR"),
		Value: defaultFixedDiffSeparator,
	}

	IntegratedAddressPrefix = &cli.StringSliceFlag{
		Usage: "Address prefixes identifying integrated addresses (comma-separated)",
		Name:  "integrated-address-prefix", EnvVars: env("INTEGRATED_ADDRESS_PREFIX"),
	}

	IntegratedAddressLength = &cli.Int64SliceFlag{
		Usage: "Address lengths identifying integrated addresses (comma-separated)",
		Name:  "integrated-address-length", EnvVars: env("INTEGRATED_ADDRESS_LENGTH"),
	}

	NotificationsTopic = &cli.StringFlag{
		Usage: "Topic payment notification events are published on",
		Name:  "notifications-topic", EnvVars: env("NOTIFICATIONS_TOPIC"),
		Value: watermillnotifier.DefaultTopic,
	}
)

var Flags = []cli.Flag{
	Datadir,
	LogLevel,
	Coin,
	Interval,
	LedgerType,
	RedisUrl,
	RedisTxNumOfRetries,
	WalletRpcUrl,
	DaemonFamily,
	AssetsFile,
	PaymentIDSeparator,
	FixedDiffEnabled,
	FixedDiffSeparator,
	IntegratedAddressPrefix,
	IntegratedAddressLength,
	NotificationsTopic,
}

func LoadConfig(c *cli.Context) (*Config, error) {
	if err := initDatadir(c); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %s", err)
	}

	var redisUrl string
	if c.String(LedgerType.Name) == "redis" {
		redisUrl = c.String(RedisUrl.Name)
		if redisUrl == "" {
			return nil, fmt.Errorf("ledger type set to 'redis' but redis url is missing")
		}
	}

	return &Config{
		Datadir:                   c.String(Datadir.Name),
		LogLevel:                  c.Int(LogLevel.Name),
		Coin:                      c.String(Coin.Name),
		Interval:                  c.Int64(Interval.Name),
		LedgerType:                c.String(LedgerType.Name),
		RedisUrl:                  redisUrl,
		RedisTxNumOfRetries:       c.Int(RedisTxNumOfRetries.Name),
		WalletRpcUrl:              c.String(WalletRpcUrl.Name),
		DaemonFamily:              c.String(DaemonFamily.Name),
		AssetsFile:                c.String(AssetsFile.Name),
		PaymentIDSeparator:        c.String(PaymentIDSeparator.Name),
		FixedDiffEnabled:          c.Bool(FixedDiffEnabled.Name),
		FixedDiffSeparator:        c.String(FixedDiffSeparator.Name),
		IntegratedAddressPrefixes: c.StringSlice(IntegratedAddressPrefix.Name),
		IntegratedAddressLengths:  c.Int64Slice(IntegratedAddressLength.Name),
		NotificationsTopic:        c.String(NotificationsTopic.Name),
	}, nil
}

func initDatadir(c *cli.Context) error {
	datadir := c.String(Datadir.Name)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0o755)
	}
	return nil
}

func (c *Config) Validate() error {
	if !supportedLedgers.supports(c.LedgerType) {
		return fmt.Errorf(
			"ledger type not supported, please select one of: %s", supportedLedgers,
		)
	}
	if !supportedFamilies.supports(c.DaemonFamily) {
		return fmt.Errorf(
			"daemon family not supported, please select one of: %s", supportedFamilies,
		)
	}
	if c.Coin == "" {
		return fmt.Errorf("missing coin namespace")
	}
	if c.Interval < 2 {
		return fmt.Errorf("invalid interval, must be at least 2 seconds")
	}
	if c.PaymentIDSeparator == "" {
		return fmt.Errorf("missing payment id separator")
	}
	if c.FixedDiffEnabled && c.FixedDiffSeparator == "" {
		return fmt.Errorf("fixed diff enabled but separator is missing")
	}

	if err := c.policyTable(); err != nil {
		return err
	}
	if err := c.ledgerService(); err != nil {
		return err
	}
	if err := c.transferService(); err != nil {
		return err
	}
	if err := c.schedulerService(); err != nil {
		return err
	}
	if err := c.notifierService(); err != nil {
		return err
	}
	if err := c.journalService(); err != nil {
		return err
	}
	if err := c.validatorService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) SettlementService() (*application.SettlementService, error) {
	if c.svc == nil {
		if err := c.settlementService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) LedgerService() ports.LedgerStore {
	return c.ledger
}

func (c *Config) policyTable() error {
	buf, err := os.ReadFile(c.AssetsFile)
	if err != nil {
		return fmt.Errorf("failed to read assets file: %s", err)
	}

	var table domain.PolicyTable
	if err := json.Unmarshal(buf, &table); err != nil {
		return fmt.Errorf("failed to parse assets file: %s", err)
	}
	if err := table.Validate(); err != nil {
		return err
	}

	c.policies = table
	return nil
}

func (c *Config) ledgerService() error {
	var svc ports.LedgerStore
	switch c.LedgerType {
	case "inmemory":
		svc = inmemoryledger.NewLedgerStore()
	case "redis":
		redisOpts, err := redis.ParseURL(c.RedisUrl)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		svc = redisledger.NewLedgerStore(rdb, c.Coin, c.RedisTxNumOfRetries)
	default:
		return fmt.Errorf("unknown ledger type")
	}

	c.ledger = svc
	return nil
}

func (c *Config) transferService() error {
	svc, err := transfer.NewWalletClient(c.WalletRpcUrl, transfer.Family(c.DaemonFamily))
	if err != nil {
		return err
	}

	c.transfer = svc
	return nil
}

func (c *Config) schedulerService() error {
	c.scheduler = timescheduler.NewScheduler()
	return nil
}

func (c *Config) notifierService() error {
	c.notifier = watermillnotifier.NewInProcessNotifier(c.NotificationsTopic)
	return nil
}

func (c *Config) journalService() error {
	svc, err := badgerjournal.NewSettlementJournal(c.Datadir, nil)
	if err != nil {
		return err
	}

	c.journal = svc
	return nil
}

func (c *Config) validatorService() error {
	lengths := make([]int, 0, len(c.IntegratedAddressLengths))
	for _, length := range c.IntegratedAddressLengths {
		lengths = append(lengths, int(length))
	}

	c.validator = addressvalidator.NewValidator(c.IntegratedAddressPrefixes, lengths)
	return nil
}

func (c *Config) settlementService() error {
	fixedDiffSeparator := ""
	if c.FixedDiffEnabled {
		fixedDiffSeparator = c.FixedDiffSeparator
	}

	svc, err := application.NewSettlementService(
		c.ledger, c.transfer, c.scheduler, c.notifier, c.journal, c.validator,
		c.policies, c.PaymentIDSeparator, fixedDiffSeparator, c.Interval,
	)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
