package shared

type ServerConfig struct {
	Sqlite SqliteConfig `mapstructure:"sqlite" validate:"required"`
	Panic  PanicConfig  `mapstructure:"panic" validate:"required"`
	Sns    SnsConfig    `mapstructure:"sns" validate:"required"`
	Twilio TwilioConfig `mapstructure:"twilio"`
	Google GoogleConfig `mapstructure:"google"`
}

type SqliteConfig struct {
	PassPhrase string `mapstructure:"passPhrase" validate:"required"`
}

type PanicConfig struct {
	Cron               CronConfig     `mapstructure:"cron" validate:"required"`
	Listener           ListenerConfig `mapstructure:"listener" validate:"required"`
	Session            SessionConfig  `mapstructure:"session" validate:"required"`
	DefaultCountryCode string         `mapstructure:"defaultCountryCode" validate:"required"`
}

type CronConfig struct {
	TimeZone string `mapstructure:"timeZone" validate:"required"`
}

type ListenerConfig struct {
	Port int `mapstructure:"port" validate:"required"`
}

type SessionConfig struct {
	Secret        string `mapstructure:"secret" validate:"required"`
	MaxAgeSeconds int    `mapstructure:"maxAgeSeconds" validate:"required"`
}

// SnsConfig points at the external service that provisions an
// SNS topic for each trusted contact.
type SnsConfig struct {
	RegistrationUrl string `mapstructure:"registrationUrl" validate:"required"`
	TimeoutSeconds  int    `mapstructure:"timeoutSeconds"`
}

type TwilioConfig struct {
	AccountSid          string `mapstructure:"accountSid"`
	AuthToken           string `mapstructure:"authToken"`
	MessagingServiceSid string `mapstructure:"messagingServiceSid"`
}

type GoogleConfig struct {
	ApplicationCredentials string        `mapstructure:"applicationCredentials"`
	Storage                StorageConfig `mapstructure:"storage"`
}

type StorageConfig struct {
	Bucket           string      `mapstructure:"bucket" validate:"required_with=EnableDbBackup"`
	Prefix           string      `mapstructure:"prefix"`
	DbBackupSchedule string      `mapstructure:"dbBackupSchedule" validate:"required_with=EnableDbBackup"`
	EnableDbBackup   interface{} `mapstructure:"enableDbBackup"`
}
