package cmd

import (
	"github.com/spf13/cobra"

	"github.com/awsutils/aws-config-assume-role/internal/util"
)

var (
	profile          string
	region           string
	configFile       string
	sessionName      string
	cfgSectionName   string
	storeInProfile   bool
	reloadBeforeTime int
	verbose          bool

	RootCmd = &cobra.Command{
		Use:   "aws-config-assume-role",
		Short: "Temporary AWS credentials from role_arn/source_profile in the shared config",
		Long: `Resolves temporary AWS credentials by reading role_arn and source_profile
from a profile in the shared config file ($HOME/.aws/config) and performing the
role assumption with the source profile's own credentials.
Returns the credential_process payload on stdout, or stores the credentials
under a named profile section of the shared credentials file.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.IsTraceEnabled = verbose
		},
	}
)

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		util.Exit(err)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Profile section to read from the shared config file. Defaults to AWS_PROFILE or default")
	RootCmd.PersistentFlags().StringVarP(&region, "region", "", "", "Fallback region for the STS exchange when the source profile carries no region key")
	RootCmd.PersistentFlags().StringVarP(&configFile, "config-file", "c", "", "Override the shared config file location. Defaults to AWS_CONFIG_FILE or $HOME/.aws/config")
	RootCmd.PersistentFlags().StringVarP(&sessionName, "session-name", "n", "", "Override the role session name. Defaults to <username>-aws-config-assume-role")
	RootCmd.PersistentFlags().StringVarP(&cfgSectionName, "cfg-section", "", "", "Section name in the shared credentials file to store credentials under")
	RootCmd.PersistentFlags().BoolVarP(&storeInProfile, "store-profile", "s", false, "By default the credentials are returned to stdout to be used by the credential_process. Set this flag to instead store the credentials under a named profile section")
	RootCmd.PersistentFlags().IntVarP(&reloadBeforeTime, "reload-before", "", 0, "Triggers a credentials refresh before expiry. Value provided in seconds")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}
