package credentialexchange

const (
	SELF_NAME        = "aws-config-assume-role"
	INI_CONF_SECTION = "profile"
)

type BaseConfig struct {
	Profile          string
	CfgSectionName   string
	StoreInProfile   bool
	ReloadBeforeTime int
	Username         string
}

type CredentialConfig struct {
	BaseConfig  BaseConfig
	Region      string
	SessionName string
	ConfigFile  string
}
