// cmdutils orchestrates the CLI credential flow: reuse a stored credential
// when still valid, otherwise resolve a fresh one through the provider and
// store it before emitting.
package cmdutils

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/awsutils/aws-config-assume-role/internal/credentialexchange"
)

var (
	ErrMissingArg       = errors.New("missing arg")
	ErrUnableToValidate = errors.New("unable to validate token")
)

type SecretStorageImpl interface {
	AWSCredential() (*credentialexchange.AWSCredentials, error)
	Clear() error
	ClearAll() error
	SaveAWSCredential(cred *credentialexchange.AWSCredentials) error
}

type CredentialProvider interface {
	Retrieve(ctx context.Context) (aws.Credentials, error)
}

// IdentityClientFn builds a GetCallerIdentity client from a stored
// credential so its validity can be probed with the credential itself.
type IdentityClientFn func(cred *credentialexchange.AWSCredentials) credentialexchange.AuthIdentityApi

// GetCreds resolves credentials for the configured profile.
func GetCreds(ctx context.Context, provider CredentialProvider, secretStore SecretStorageImpl, identityFn IdentityClientFn, conf credentialexchange.CredentialConfig) error {
	if conf.BaseConfig.CfgSectionName == "" && conf.BaseConfig.StoreInProfile {
		return fmt.Errorf("cfg-section name must be provided if store-profile is enabled, %w", ErrMissingArg)
	}

	// Try to reuse stored credential in secret
	storedCreds, err := secretStore.AWSCredential()
	if err != nil {
		return err
	}

	if storedCreds != nil {
		credsValid, err := credentialexchange.IsValid(ctx, storedCreds, conf.BaseConfig.ReloadBeforeTime, identityFn(storedCreds))
		if err != nil {
			return fmt.Errorf("failed to validate: %s, %w", err, ErrUnableToValidate)
		}
		if credsValid {
			return credentialexchange.SetCredentials(storedCreds, conf)
		}
	}

	awsCreds, err := provider.Retrieve(ctx)
	if err != nil {
		return err
	}

	return completeCredStorage(secretStore, credentialexchange.FromAws(awsCreds), conf)
}

func completeCredStorage(secretStore SecretStorageImpl, awsCreds *credentialexchange.AWSCredentials, conf credentialexchange.CredentialConfig) error {
	awsCreds.Version = 1
	if err := secretStore.SaveAWSCredential(awsCreds); err != nil {
		return err
	}
	return credentialexchange.SetCredentials(awsCreds, conf)
}
