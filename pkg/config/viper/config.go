// Package viper exposes keys held by the global viper instance, which merges
// command line flags, environment variables and config files, as config.Config
// values.
package viper

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"time"

	spfviper "github.com/spf13/viper"

	"github.com/code-payments/reward-vault/pkg/config"
	"github.com/code-payments/reward-vault/pkg/config/wrapper"
)

type conf struct {
	key string
}

func NewConfig(key string) config.Config {
	return &conf{key: key}
}

// Get implements Config.Get. Values are handed to the wrappers as raw bytes
// so that flags, environment variables and config files convert alike.
func (c *conf) Get(_ context.Context) (interface{}, error) {
	if !spfviper.IsSet(c.key) {
		return nil, config.ErrNoValue
	}

	value := spfviper.Get(c.key)
	switch typed := value.(type) {
	case nil:
		return nil, config.ErrNoValue
	case string:
		if len(typed) == 0 {
			return nil, config.ErrNoValue
		}
		return []byte(typed), nil
	case []byte:
		return typed, nil
	default:
		return []byte(fmt.Sprintf("%v", typed)), nil
	}
}

// Shutdown implements Config.Shutdown
func (c *conf) Shutdown() {
}

// NewUint64Config creates a viper-based uint64 config
func NewUint64Config(key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(key), defaultValue)
}

// NewStringConfig creates a viper-based string config
func NewStringConfig(key string, defaultValue string) config.String {
	return wrapper.NewStringConfig(NewConfig(key), defaultValue)
}

// NewBoolConfig creates a viper-based bool config
func NewBoolConfig(key string, defaultValue bool) config.Bool {
	return wrapper.NewBoolConfig(NewConfig(key), defaultValue)
}

// NewDurationConfig creates a viper-based duration config
func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}

// NewPublicKeyConfig creates a viper-based base58 public key config
func NewPublicKeyConfig(key string, defaultValue ed25519.PublicKey) config.PublicKey {
	return wrapper.NewPublicKeyConfig(NewConfig(key), defaultValue)
}
