package credentialexchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/werf/lockgate"
	"github.com/werf/lockgate/pkg/file_locker"
	"github.com/zalando/go-keyring"
	ini "gopkg.in/ini.v1"
)

var (
	ErrUnableToLoadAWSCred        = errors.New("unable to load AWS credential")
	ErrUnableToRetrieveSections   = errors.New("unable to retrieve sections")
	ErrUnableToLoadDueToLock      = errors.New("cannot load secret due to lock error")
	ErrUnableToAcquireLock        = errors.New("cannot acquire lock")
	ErrUnmarshallingSecret        = errors.New("cannot unmarshal secret")
	ErrFailedToClearSecretStorage = errors.New("failed to clear secret storage on OS")
)

// KeyRing is the narrow surface of the OS keychain used by SecretStore.
type KeyRing interface {
	Set(service, user, password string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

// SecretStore caches issued credentials in the OS keychain, one entry per
// profile, guarded by a file lock so concurrent credential_process
// invocations do not race.
type SecretStore struct {
	AWSCredentials *AWSCredentials
	AWSCredJson    string
	keyring        KeyRing
	profile        string
	lockDir        string
	locker         lockgate.Locker
	lockResource   string
	secretService  string
	secretUser     string
}

func (s *SecretStore) WithLocker(locker lockgate.Locker) *SecretStore {
	s.locker = locker
	return s
}

func (s *SecretStore) WithKeyring(keyring KeyRing) *SecretStore {
	s.keyring = keyring
	return s
}

// keyRingImpl is the default keyring implementation
type keyRingImpl struct{}

func (k *keyRingImpl) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}
func (k *keyRingImpl) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}
func (k *keyRingImpl) Delete(service, user string) error {
	return keyring.Delete(service, user)
}

func NewSecretStore(profile, namer, baseDir, username string) (*SecretStore, error) {
	lockDir := fmt.Sprintf("%s/%s-lock", baseDir, SELF_NAME)
	locker, err := file_locker.NewFileLocker(lockDir)
	if err != nil {
		return nil, fmt.Errorf("cannot setup lock dir: %s", lockDir)
	}

	return &SecretStore{
		lockDir:       lockDir,
		locker:        locker,
		keyring:       &keyRingImpl{},
		lockResource:  namer,
		secretService: namer,
		profile:       profile,
		secretUser:    username,
	}, nil
}

func (s *SecretStore) ensureLock() (func(), error) {
	acquired, lock, err := s.locker.Acquire(s.lockResource, lockgate.AcquireOptions{Shared: false, Timeout: 1 * time.Minute})
	if err != nil {
		return nil, fmt.Errorf("%s, %w", err, ErrUnableToAcquireLock)
	}

	if !acquired {
		return nil, fmt.Errorf("%s, %w", err, ErrUnableToLoadDueToLock)
	}
	return func() {
		if err := s.locker.Release(lock); err != nil {
			fmt.Fprintf(os.Stderr, "failed to release lock: %s", err)
		}
	}, nil
}

func (s *SecretStore) load() error {
	release, err := s.ensureLock()
	if err != nil {
		return err
	}
	defer release()

	creds := &AWSCredentials{}

	jsonStr, err := s.keyring.Get(s.secretService, s.secretUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := json.Unmarshal([]byte(jsonStr), &creds); err != nil {
		return fmt.Errorf("%s, %w", err, ErrUnmarshallingSecret)
	}

	if err := WriteIniSection(s.profile); err != nil {
		return err
	}

	s.AWSCredentials = creds
	s.AWSCredJson = jsonStr
	return nil
}

func (s *SecretStore) save() error {
	release, err := s.ensureLock()
	if err != nil {
		return err
	}
	defer release()

	if err := WriteIniSection(s.profile); err != nil {
		return err
	}

	return s.keyring.Set(s.secretService, s.secretUser, s.AWSCredJson)
}

func (s *SecretStore) AWSCredential() (*AWSCredentials, error) {
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("secret store: %s, %w", err, ErrUnableToLoadAWSCred)
	}

	if s.AWSCredentials == nil && s.AWSCredJson == "" {
		return nil, nil
	}

	fmt.Fprintf(os.Stderr, "Got credential from OS secret store for %s", s.profile)

	return s.AWSCredentials, nil
}

func (s *SecretStore) SaveAWSCredential(cred *AWSCredentials) error {
	s.AWSCredentials = cred
	jsonStr, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	s.AWSCredJson = string(jsonStr)
	return s.save()
}

func (s *SecretStore) Clear() error {
	return s.keyring.Delete(s.secretService, s.secretUser)
}

// ClearAll loops through all the sections in the tracking file and
// deletes them from the keychain implementation on the OS
func (s *SecretStore) ClearAll() error {
	iniFile := ConfigIniFile("")
	if _, err := os.Stat(iniFile); os.IsNotExist(err) {
		// no tracking file means nothing was ever stored
		return nil
	}

	srvSections := []string{}
	cfg, err := ini.Load(iniFile)
	if err != nil {
		return fmt.Errorf("unable to get sections from ini: %s, %w", err, ErrUnableToRetrieveSections)
	}

	for _, v := range cfg.Section(INI_CONF_SECTION).ChildSections() {
		srvSections = append(srvSections, strings.Replace(v.Name(), fmt.Sprintf("%s.", INI_CONF_SECTION), "", -1))
	}

	for _, v := range srvSections {
		if err := s.keyring.Delete(fmt.Sprintf("%s-%s", SELF_NAME, v), s.secretUser); err != nil {
			return fmt.Errorf("%s, %w", err, ErrFailedToClearSecretStorage)
		}
	}

	return nil
}

// ProfileKeyConverter converts a profile name to a key safe for the
// keychain service name and the tracking file section name
func ProfileKeyConverter(profile string) string {
	return strings.ReplaceAll(strings.ReplaceAll(profile, ":", "_"), "/", "____")
}

// KeyProfileConverter converts a key back to a profile name
func KeyProfileConverter(key string) string {
	return strings.ReplaceAll(strings.ReplaceAll(key, "____", "/"), "_", ":")
}
