// profileconfig locates and reads the AWS shared config file.
//
// Only the keys needed for config-based role assumption are surfaced -
// role_arn, source_profile and the source profile's region. Everything else
// in the file is the SDK's business.
package profileconfig

import (
	"errors"
	"fmt"
	"os"
	"path"

	ini "gopkg.in/ini.v1"
)

const (
	AWS_PROFILE     = "AWS_PROFILE"
	AWS_CONFIG_FILE = "AWS_CONFIG_FILE"

	defaultProfileName = "default"

	roleArnKey       = "role_arn"
	sourceProfileKey = "source_profile"
	regionKey        = "region"
)

var (
	ErrConfigNotFound       = errors.New("unable to read aws config file")
	ErrSectionNotFound      = errors.New("profile section not found")
	ErrRoleArnMissing       = errors.New("role_arn not set on profile")
	ErrSourceProfileMissing = errors.New("source_profile not set on profile")
	ErrNoHomeDir            = errors.New("unable to determine home directory")
)

// Profile is the subset of a shared config section required for the
// role-assumption exchange.
type Profile struct {
	Name          string
	RoleARN       string
	SourceProfile string
	// SourceRegion holds the region key from the source profile's own
	// section, empty when the section or the key is absent.
	SourceRegion string
}

// Location returns the shared config file path, honouring AWS_CONFIG_FILE.
func Location() (string, error) {
	if v, exists := os.LookupEnv(AWS_CONFIG_FILE); exists && v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%v, %w", err, ErrNoHomeDir)
	}
	return path.Join(home, ".aws", "config"), nil
}

// DefaultName returns the profile to read, honouring AWS_PROFILE.
func DefaultName() string {
	if v, exists := os.LookupEnv(AWS_PROFILE); exists && v != "" {
		return v
	}
	return defaultProfileName
}

// Load reads the named profile out of the config file at the given path.
func Load(file, name string) (Profile, error) {
	cfg, err := ini.Load(file)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %v, %w", file, err, ErrConfigNotFound)
	}

	section, err := lookupSection(cfg, name)
	if err != nil {
		return Profile{}, err
	}

	prof := Profile{Name: name}

	prof.RoleARN = section.Key(roleArnKey).String()
	if prof.RoleARN == "" {
		return Profile{}, fmt.Errorf("profile %s, %w", name, ErrRoleArnMissing)
	}

	prof.SourceProfile = section.Key(sourceProfileKey).String()
	if prof.SourceProfile == "" {
		return Profile{}, fmt.Errorf("profile %s, %w", name, ErrSourceProfileMissing)
	}

	if src, err := lookupSection(cfg, prof.SourceProfile); err == nil {
		prof.SourceRegion = src.Key(regionKey).String()
	}

	return prof, nil
}

// lookupSection accepts both the bare and the `profile `-prefixed section
// headers used in the shared config format.
func lookupSection(cfg *ini.File, name string) (*ini.Section, error) {
	for _, candidate := range []string{name, fmt.Sprintf("profile %s", name)} {
		if cfg.HasSection(candidate) {
			return cfg.Section(candidate), nil
		}
	}
	return nil, fmt.Errorf("profile %s, %w", name, ErrSectionNotFound)
}
