package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/reward-vault/pkg/app"
)

func main() {
	err := app.Run("vaultctl", os.Args[1:], os.Stdout, commands()...)
	if errors.Is(err, app.ErrUsage) {
		os.Exit(2)
	} else if err != nil {
		logrus.StandardLogger().WithError(err).Error("vaultctl failed")
		os.Exit(1)
	}
}

func commands() []*app.Command {
	return []*app.Command{
		addressCommand,
		instructionCommand,
		inspectCommand,
		simulateCommand,
		accountsCommand,
	}
}
