package cmd

import (
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/awsutils/aws-config-assume-role/internal/credentialexchange"
	"github.com/awsutils/aws-config-assume-role/internal/util"
)

var clearCmd = &cobra.Command{
	Use:   "clear-cache <flags>",
	Short: "Clears any stored credentials in the OS secret store",
	RunE:  clear,
}

func init() {
	RootCmd.AddCommand(clearCmd)
}

func clear(cmd *cobra.Command, args []string) error {
	currentUser, err := user.Current()
	if err != nil {
		return err
	}

	secretStore, err := credentialexchange.NewSecretStore("",
		fmt.Sprintf("%s-%s", credentialexchange.SELF_NAME, "cache"),
		os.TempDir(), currentUser.Username)
	if err != nil {
		return err
	}

	if err := secretStore.ClearAll(); err != nil {
		return err
	}

	if err := os.Remove(credentialexchange.ConfigIniFile("")); err != nil && !os.IsNotExist(err) {
		return err
	}

	util.Writeln("Cache cleared")
	return nil
}
