package cmd

import (
	"fmt"
	"os"
	"os/user"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/awsutils/aws-config-assume-role/configrole"
	"github.com/awsutils/aws-config-assume-role/internal/cmdutils"
	"github.com/awsutils/aws-config-assume-role/internal/credentialexchange"
	"github.com/awsutils/aws-config-assume-role/internal/profileconfig"
	"github.com/awsutils/aws-config-assume-role/internal/util"
)

var getCmd = &cobra.Command{
	Use:   "get <flags>",
	Short: "Get AWS credentials and out to stdout",
	Long: `Get AWS credentials and out to stdout. Reads role_arn and source_profile
from the requested profile of the shared config file and exchanges the source
profile's credentials for temporary role credentials.`,
	RunE: getCreds,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if reloadBeforeTime < 0 {
			return fmt.Errorf("reload-before: %v, must not be negative", reloadBeforeTime)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(getCmd)
}

func getCreds(cmd *cobra.Command, args []string) error {
	currentUser, err := user.Current()
	if err != nil {
		return err
	}

	profileName := profile
	if profileName == "" {
		profileName = profileconfig.DefaultName()
	}

	roleSessionName := sessionName
	if roleSessionName == "" {
		roleSessionName = credentialexchange.SessionName(currentUser.Username, credentialexchange.SELF_NAME)
	}

	conf := credentialexchange.CredentialConfig{
		Region:      region,
		SessionName: roleSessionName,
		ConfigFile:  configFile,
		BaseConfig: credentialexchange.BaseConfig{
			Profile:          profileName,
			CfgSectionName:   cfgSectionName,
			StoreInProfile:   storeInProfile,
			ReloadBeforeTime: reloadBeforeTime,
			Username:         currentUser.Username,
		},
	}

	provider := configrole.New(
		configrole.WithRegion(region),
		configrole.WithProfile(profileName),
		configrole.WithConfigFile(configFile),
		configrole.WithSessionName(roleSessionName),
	)

	namer := fmt.Sprintf("%s-%s", credentialexchange.SELF_NAME, credentialexchange.ProfileKeyConverter(profileName))
	secretStore, err := credentialexchange.NewSecretStore(profileName, namer, os.TempDir(), currentUser.Username)
	if err != nil {
		return err
	}

	util.Traceln("resolving credentials for profile: %s", profileName)

	return cmdutils.GetCreds(cmd.Context(), provider, secretStore, identityClientFn(region), conf)
}

// identityClientFn builds an STS client from the stored credential itself so
// the validity probe exercises the credential under test.
func identityClientFn(region string) cmdutils.IdentityClientFn {
	if region == "" {
		// sts resolves the global endpoint for this pseudo region
		region = "aws-global"
	}
	return func(cred *credentialexchange.AWSCredentials) credentialexchange.AuthIdentityApi {
		return sts.NewFromConfig(aws.Config{
			Region: region,
			Credentials: credentials.NewStaticCredentialsProvider(
				cred.AWSAccessKey, cred.AWSSecretKey, cred.AWSSessionToken),
		})
	}
}
