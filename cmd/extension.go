package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"

	"github.com/etnz/btctax/config"
)

// RunExtension attempts to find and execute an external btctax-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found or executed.
//
// The global flags are passed to the extension as the environment variables
// read by the config package.
func RunExtension(subcommand string, args []string) (bool, int) {
	externalCmdName := "btctax-" + subcommand

	// Look for the external command in PATH
	lp, err := exec.LookPath(externalCmdName)
	if err != nil {
		log.Printf("External command %q not found in PATH: %v", externalCmdName, err)
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmd.Env = os.Environ()
	for key, value := range map[string]string{
		config.EnvLedger:   *ledgerFile,
		config.EnvPrices:   *pricesFile,
		config.EnvDatabase: *databaseFile,
		config.EnvBasis:    *basis,
	} {
		if value != "" {
			cmd.Env = append(cmd.Env, key+"="+value)
		}
	}

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", externalCmdName, err)
		return true, 1
	}
	return true, 0
}
