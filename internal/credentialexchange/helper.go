package credentialexchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"strings"
	"time"

	ini "gopkg.in/ini.v1"
)

var (
	ErrSectionNotFound = errors.New("section not found")
	ErrConfigFailure   = errors.New("config error")
)

func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatal("unable to get the user home dir")
	}
	return home
}

// ConfigIniFile is the tracking file listing profiles with cached secrets.
func ConfigIniFile(basePath string) string {
	var base string
	if basePath != "" {
		base = basePath
	} else {
		base = HomeDir()
	}
	return path.Join(base, fmt.Sprintf(".%s.ini", SELF_NAME))
}

func SessionName(username, selfName string) string {
	return fmt.Sprintf("%s-%s", username, selfName)
}

// SetCredentials emits the credential to stdout in the credential_process
// shape, or stores it under a named section of the shared credentials file.
func SetCredentials(creds *AWSCredentials, config CredentialConfig) error {
	if config.BaseConfig.StoreInProfile {
		return storeCredentialsInProfile(*creds, config.BaseConfig.CfgSectionName)
	}
	return returnStdOutAsJson(*creds)
}

func storeCredentialsInProfile(creds AWSCredentials, configSection string) error {
	var awsConfPath string

	if overriddenpath, exists := os.LookupEnv("AWS_SHARED_CREDENTIALS_FILE"); exists {
		awsConfPath = overriddenpath
	} else {
		awsConfPath = path.Join(HomeDir(), ".aws", "credentials")
	}

	if _, err := os.Stat(awsConfPath); os.IsNotExist(err) {
		if err := os.MkdirAll(path.Dir(awsConfPath), 0700); err != nil {
			return fmt.Errorf("%s, %w", err, ErrConfigFailure)
		}
		if err := os.WriteFile(awsConfPath, []byte{}, 0600); err != nil {
			return fmt.Errorf("%s, %w", err, ErrConfigFailure)
		}
	}

	cfg, err := ini.Load(awsConfPath)
	if err != nil {
		return fmt.Errorf("fail to read credentials file: %v, %w", err, ErrConfigFailure)
	}
	cfg.Section(configSection).Key("aws_access_key_id").SetValue(creds.AWSAccessKey)
	cfg.Section(configSection).Key("aws_secret_access_key").SetValue(creds.AWSSecretKey)
	cfg.Section(configSection).Key("aws_session_token").SetValue(creds.AWSSessionToken)
	return cfg.SaveTo(awsConfPath)
}

func returnStdOutAsJson(creds AWSCredentials) error {
	creds.Version = 1

	jsonBytes, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, string(jsonBytes))
	return nil
}

// ReloadBeforeExpiry returns true if the time
// to expiry is less than the specified time in seconds
// false if there is more than required time in seconds
// before needing to recycle credentials
func ReloadBeforeExpiry(expiry time.Time, reloadBeforeSeconds int) bool {
	now := time.Now().Local()
	diff := expiry.Local().Sub(now)
	return diff.Seconds() < float64(reloadBeforeSeconds)
}

// WriteIniSection records a profile in the tracking file so clear-cache can
// enumerate stored secrets later.
func WriteIniSection(profile string) error {
	section := fmt.Sprintf("%s.%s", INI_CONF_SECTION, ProfileKeyConverter(profile))
	iniFile := ConfigIniFile("")
	if _, err := os.Stat(iniFile); os.IsNotExist(err) {
		if err := os.WriteFile(iniFile, []byte{}, 0600); err != nil {
			return fmt.Errorf("%s, %w", err, ErrConfigFailure)
		}
	}
	cfg, err := ini.Load(iniFile)
	if err != nil {
		return fmt.Errorf("fail to read ini file: %v, %w", err, ErrConfigFailure)
	}
	if !cfg.HasSection(section) {
		sct, err := cfg.NewSection(section)
		if err != nil {
			return err
		}
		sct.Key("name").SetValue(profile)
		return cfg.SaveTo(iniFile)
	}

	return nil
}

func GetAllIniSections() ([]string, error) {
	sections := []string{}
	cfg, err := ini.Load(ConfigIniFile(""))
	if err != nil {
		return nil, err
	}
	for _, v := range cfg.Section(INI_CONF_SECTION).ChildSections() {
		sections = append(sections, strings.Replace(v.Name(), fmt.Sprintf("%s.", INI_CONF_SECTION), "", -1))
	}
	return sections, nil
}
