package main

import (
	"context"
	"crypto/ed25519"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	viperconfig "github.com/code-payments/reward-vault/pkg/config/viper"
	pg "github.com/code-payments/reward-vault/pkg/database/postgres"
	"github.com/code-payments/reward-vault/pkg/solana"
)

// Keys are flag names with dashes replaced by underscores.
const (
	programKey   = "program"
	mintKey      = "mint"
	authorityKey = "authority"
	recipientKey = "recipient"
	amountKey    = "amount"

	rpcEndpointKey = "solana_rpc_endpoint"
	rpcTimeoutKey  = "solana_rpc_timeout"
	commitmentKey  = "commitment"

	dbUserKey     = "db_user"
	dbPasswordKey = "db_password"
	dbHostKey     = "db_host"
	dbPortKey     = "db_port"
	dbNameKey     = "db_name"
	dbAwsIamKey   = "db_aws_iam"
)

const (
	defaultRpcEndpoint = string(solana.EnvironmentLocal)
	defaultRpcTimeout  = 30 * time.Second
	defaultCommitment  = "finalized"
	defaultDbPort      = 5432
)

func init() {
	_ = viper.BindEnv(programKey, "VAULT_PROGRAM_ID")

	_ = viper.BindEnv(rpcEndpointKey, "SOLANA_RPC_ENDPOINT")
	_ = viper.BindEnv(rpcTimeoutKey, "SOLANA_RPC_TIMEOUT")

	_ = viper.BindEnv(dbUserKey, "LEDGER_DB_USER")
	_ = viper.BindEnv(dbPasswordKey, "LEDGER_DB_PASSWORD")
	_ = viper.BindEnv(dbHostKey, "LEDGER_DB_HOST")
	_ = viper.BindEnv(dbPortKey, "LEDGER_DB_PORT")
	_ = viper.BindEnv(dbNameKey, "LEDGER_DB_NAME")
	_ = viper.BindEnv(dbAwsIamKey, "LEDGER_DB_AWS_IAM")
}

func publicKeyFlag(flags *pflag.FlagSet, key, usage string) {
	flags.String(flagName(key), "", usage+" (base58)")
}

func rpcFlags(flags *pflag.FlagSet) {
	flags.String(flagName(rpcEndpointKey), defaultRpcEndpoint, "solana rpc endpoint")
	flags.Duration(flagName(rpcTimeoutKey), defaultRpcTimeout, "solana rpc timeout")
	flags.String(flagName(commitmentKey), defaultCommitment, "commitment level for reads")
}

func databaseFlags(flags *pflag.FlagSet) {
	flags.String(flagName(dbUserKey), "", "ledger database user")
	flags.String(flagName(dbPasswordKey), "", "ledger database password")
	flags.String(flagName(dbHostKey), "", "ledger database host")
	flags.Int(flagName(dbPortKey), defaultDbPort, "ledger database port")
	flags.String(flagName(dbNameKey), "", "ledger database name")
	flags.Bool(flagName(dbAwsIamKey), false, "authenticate to the ledger database with aws iam")
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// requirePublicKey loads a mandatory base58 key.
func requirePublicKey(ctx context.Context, key string) (ed25519.PublicKey, error) {
	value, err := viperconfig.NewPublicKeyConfig(key, nil).GetSafe(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", flagName(key))
	}
	if value == nil {
		return nil, errors.Errorf("--%s is required", flagName(key))
	}
	return value, nil
}

// optionalPublicKey loads a base58 key, returning nil when it is unset.
func optionalPublicKey(ctx context.Context, key string) (ed25519.PublicKey, error) {
	value, err := viperconfig.NewPublicKeyConfig(key, nil).GetSafe(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", flagName(key))
	}
	return value, nil
}

func loadCommitment(ctx context.Context) (solana.Commitment, error) {
	return solana.ParseCommitment(viperconfig.NewStringConfig(commitmentKey, defaultCommitment).Get(ctx))
}

func loadDatabaseConfig(ctx context.Context) *pg.Config {
	return &pg.Config{
		User:      viperconfig.NewStringConfig(dbUserKey, "").Get(ctx),
		Password:  viperconfig.NewStringConfig(dbPasswordKey, "").Get(ctx),
		Host:      viperconfig.NewStringConfig(dbHostKey, "").Get(ctx),
		Port:      int(viperconfig.NewUint64Config(dbPortKey, defaultDbPort).Get(ctx)),
		DbName:    viperconfig.NewStringConfig(dbNameKey, "").Get(ctx),
		UseAwsIam: viperconfig.NewBoolConfig(dbAwsIamKey, false).Get(ctx),

		MaxOpenConnections: 1,
	}
}
