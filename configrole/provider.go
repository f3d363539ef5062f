// configrole implements an aws.CredentialsProvider that reads role_arn and
// source_profile from the shared config file and delegates the exchange to
// the SDK's assume role provider, built on the source profile's own
// credential chain.
//
// The delegate is constructed once on first Retrieve and reused, so edits to
// the config file require a new Provider.
package configrole

import (
	"context"
	"errors"
	"fmt"
	"os/user"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/awsutils/aws-config-assume-role/internal/credentialexchange"
	"github.com/awsutils/aws-config-assume-role/internal/profileconfig"
)

var ErrSourceChain = errors.New("unable to build source profile credential chain")

// Provider resolves temporary credentials for the role_arn configured on a
// shared config profile, using the profile named by source_profile to perform
// the exchange. It satisfies aws.CredentialsProvider.
type Provider struct {
	region      string
	sessionName string
	profile     string
	configFile  string
	stsClientFn func(aws.Config) stscreds.AssumeRoleAPIClient

	mu       sync.Mutex
	delegate aws.CredentialsProvider
}

type Option func(*Provider)

// WithRegion sets the fallback region used when the source profile's section
// carries no region key.
func WithRegion(region string) Option {
	return func(p *Provider) {
		p.region = region
	}
}

// WithSessionName overrides the role session name passed to AssumeRole.
func WithSessionName(name string) Option {
	return func(p *Provider) {
		p.sessionName = name
	}
}

// WithProfile overrides the profile section to read. Defaults to AWS_PROFILE
// or `default`.
func WithProfile(name string) Option {
	return func(p *Provider) {
		p.profile = name
	}
}

// WithConfigFile overrides the shared config file location. Defaults to
// AWS_CONFIG_FILE or $HOME/.aws/config.
func WithConfigFile(file string) Option {
	return func(p *Provider) {
		p.configFile = file
	}
}

// WithSTSClientFn swaps the STS client constructor, used in tests.
func WithSTSClientFn(fn func(aws.Config) stscreds.AssumeRoleAPIClient) Option {
	return func(p *Provider) {
		p.stsClientFn = fn
	}
}

func New(opts ...Option) *Provider {
	p := &Provider{
		stsClientFn: func(cfg aws.Config) stscreds.AssumeRoleAPIClient {
			return sts.NewFromConfig(cfg)
		},
	}
	for _, o := range opts {
		o(p)
	}
	if p.sessionName == "" {
		username := "unknown"
		if u, err := user.Current(); err == nil {
			username = u.Username
		}
		p.sessionName = credentialexchange.SessionName(username, credentialexchange.SELF_NAME)
	}
	return p
}

// Retrieve implements aws.CredentialsProvider. Expiry and refresh of the
// resolved credential are owned by the wrapped aws.CredentialsCache.
func (p *Provider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	delegate, err := p.ensureDelegate(ctx)
	if err != nil {
		return aws.Credentials{}, err
	}
	return delegate.Retrieve(ctx)
}

func (p *Provider) ensureDelegate(ctx context.Context) (aws.CredentialsProvider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.delegate != nil {
		return p.delegate, nil
	}

	configFile := p.configFile
	if configFile == "" {
		located, err := profileconfig.Location()
		if err != nil {
			return nil, err
		}
		configFile = located
	}

	profileName := p.profile
	if profileName == "" {
		profileName = profileconfig.DefaultName()
	}

	prof, err := profileconfig.Load(configFile, profileName)
	if err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithSharedConfigProfile(prof.SourceProfile),
	}
	// an explicit config file override must also govern where the SDK
	// resolves the source profile from
	if p.configFile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigFiles([]string{p.configFile}))
	}
	if region := pickRegion(prof.SourceRegion, p.region); region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("source profile %s: %v, %w", prof.SourceProfile, err, ErrSourceChain)
	}

	assume := stscreds.NewAssumeRoleProvider(p.stsClientFn(cfg), prof.RoleARN, func(o *stscreds.AssumeRoleOptions) {
		o.RoleSessionName = p.sessionName
	})
	p.delegate = aws.NewCredentialsCache(assume)
	return p.delegate, nil
}

// pickRegion prefers the source profile's own region over the configured
// fallback. An empty result leaves resolution to the SDK's default chain.
func pickRegion(sourceRegion, fallback string) string {
	if sourceRegion != "" {
		return sourceRegion
	}
	return fallback
}
