package credentialexchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
)

var ErrUnableAssume = errors.New("unable to assume")

// AWSCredentials is shaped for the credential_process JSON contract.
type AWSCredentials struct {
	Version         int
	AWSAccessKey    string    `json:"AccessKeyId"`
	AWSSecretKey    string    `json:"SecretAccessKey"`
	AWSSessionToken string    `json:"SessionToken"`
	PrincipalARN    string    `json:"-"`
	Expires         time.Time `json:"Expiration"`
}

// FromAws converts SDK credentials into the credential_process shape.
func FromAws(c aws.Credentials) *AWSCredentials {
	return &AWSCredentials{
		AWSAccessKey:    c.AccessKeyID,
		AWSSecretKey:    c.SecretAccessKey,
		AWSSessionToken: c.SessionToken,
		Expires:         c.Expires.Local(),
	}
}

type AuthIdentityApi interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// IsValid reports whether a previously stored credential can still be used.
// A credential inside its reload window or rejected by STS with an
// expiry-class error code is invalid but not an error.
func IsValid(ctx context.Context, currentCreds *AWSCredentials, reloadBeforeSeconds int, svc AuthIdentityApi) (bool, error) {
	if currentCreds == nil {
		return false, nil
	}

	if ReloadBeforeExpiry(currentCreds.Expires, reloadBeforeSeconds) {
		return false, nil
	}

	if _, err := svc.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "ExpiredToken", "InvalidClientTokenId":
				return false, nil
			}
		}
		return false, fmt.Errorf("failed to check status of credential: %s, %w", err, ErrUnableAssume)
	}

	return true, nil
}
