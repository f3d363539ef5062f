package credentialexchange_test

import (
	"os"
	"path"
	"testing"
	"time"

	"github.com/awsutils/aws-config-assume-role/internal/credentialexchange"
	ini "gopkg.in/ini.v1"
)

func TestReloadBeforeExpirySuccess(t *testing.T) {
	expiry := (time.Now()).Add(time.Second * 305)

	got := credentialexchange.ReloadBeforeExpiry(expiry, 300)

	if got {
		t.Errorf("Expected %v, got: %v", false, got)
	}
}

func TestReloadBeforeExpiryNeedToRefresh(t *testing.T) {
	expiry := (time.Now()).Add(time.Second * 299)

	got := credentialexchange.ReloadBeforeExpiry(expiry, 300)

	if !got {
		t.Errorf("Expected %v, got: %v", true, got)
	}
}

func Test_HomeDirOverwritten(t *testing.T) {
	t.Setenv("HOME", "./.ignore-delete")
	got := credentialexchange.HomeDir()
	if got != "./.ignore-delete" {
		t.Fail()
	}
}

func Test_SessionName(t *testing.T) {
	got := credentialexchange.SessionName("tester", credentialexchange.SELF_NAME)
	if got != "tester-aws-config-assume-role" {
		t.Errorf("expected tester-aws-config-assume-role, got %s", got)
	}
}

func Test_SetCredentials_with(t *testing.T) {
	ttests := map[string]struct {
		setup     func(t *testing.T)
		conf      credentialexchange.CredentialConfig
		cred      func() *credentialexchange.AWSCredentials
		expectErr bool
	}{
		"write to creds file": {
			setup: func(t *testing.T) {
				t.Setenv("HOME", t.TempDir())
				os.Unsetenv("AWS_SHARED_CREDENTIALS_FILE")
			},
			cred: func() *credentialexchange.AWSCredentials {
				return mockSuccessCreds
			},
			conf: credentialexchange.CredentialConfig{
				BaseConfig: credentialexchange.BaseConfig{
					StoreInProfile: true,
					CfgSectionName: "test-section",
				},
			},
		},
		"write to stdout": {
			setup: func(t *testing.T) {
				t.Setenv("HOME", t.TempDir())
			},
			cred: func() *credentialexchange.AWSCredentials {
				return mockSuccessCreds
			},
			conf: credentialexchange.CredentialConfig{
				BaseConfig: credentialexchange.BaseConfig{
					StoreInProfile: false,
					CfgSectionName: "test-section",
				},
			},
		},
		"write using AWS_SHARED_CREDENTIALS_FILE": {
			setup: func(t *testing.T) {
				tempDir := t.TempDir()
				t.Setenv("HOME", tempDir)
				credsFile := path.Join(tempDir, "creds")
				os.WriteFile(credsFile, []byte(``), 0600)
				t.Setenv("AWS_SHARED_CREDENTIALS_FILE", credsFile)
			},
			cred: func() *credentialexchange.AWSCredentials {
				return mockSuccessCreds
			},
			conf: credentialexchange.CredentialConfig{
				BaseConfig: credentialexchange.BaseConfig{
					StoreInProfile: true,
					CfgSectionName: "test-section",
				},
			},
		},
	}
	for name, tt := range ttests {
		t.Run(name, func(t *testing.T) {
			tt.setup(t)

			err := credentialexchange.SetCredentials(tt.cred(), tt.conf)
			if tt.expectErr && err == nil {
				t.Error("got <nil>, wanted non nil")
				return
			}

			if err != nil {
				t.Errorf("got %s, wanted <nil>", err)
			}
		})
	}
}

func Test_SetCredentials_persists_section_keys(t *testing.T) {
	tempDir := t.TempDir()
	credsFile := path.Join(tempDir, "creds")
	os.WriteFile(credsFile, []byte(``), 0600)
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", credsFile)

	conf := credentialexchange.CredentialConfig{
		BaseConfig: credentialexchange.BaseConfig{
			StoreInProfile: true,
			CfgSectionName: "test-section",
		},
	}
	if err := credentialexchange.SetCredentials(mockSuccessCreds, conf); err != nil {
		t.Fatalf("got %s, wanted <nil>", err)
	}

	cfg, err := ini.Load(credsFile)
	if err != nil {
		t.Fatalf("fail to read file: %v", err)
	}
	got := cfg.Section("test-section").Key("aws_access_key_id").String()
	if got != mockSuccessCreds.AWSAccessKey {
		t.Errorf("expected %s, got %s", mockSuccessCreds.AWSAccessKey, got)
	}
}

func Test_WriteIniSection_tracks_profile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := credentialexchange.WriteIniSection("dev"); err != nil {
		t.Fatalf("got %s, wanted <nil>", err)
	}
	// second write is a noop
	if err := credentialexchange.WriteIniSection("dev"); err != nil {
		t.Fatalf("got %s, wanted <nil>", err)
	}
	if err := credentialexchange.WriteIniSection("staging"); err != nil {
		t.Fatalf("got %s, wanted <nil>", err)
	}

	sections, err := credentialexchange.GetAllIniSections()
	if err != nil {
		t.Fatalf("got %s, wanted <nil>", err)
	}
	if len(sections) != 2 {
		t.Errorf("incorrectly parsed ini got %d, wanted: 2", len(sections))
	}
}
