// pkg/config/config.go

package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_err"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/shared"
	cerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Interface string   `mapstructure:"interface" yaml:"interface" validate:"required,max=15,excludesall=/ "`
	WPAConfig string   `mapstructure:"wpa_config" yaml:"wpa_config" validate:"required,filepath"`
	Country   string   `mapstructure:"country" yaml:"country" validate:"required,len=2,uppercase"`
	Services  Services `mapstructure:"services" yaml:"services"`
	Poll      Poll     `mapstructure:"poll" yaml:"poll"`
	History   History  `mapstructure:"history" yaml:"history"`
	Metrics   Metrics  `mapstructure:"metrics" yaml:"metrics"`
}

type Services struct {
	SSH     string   `mapstructure:"ssh" yaml:"ssh" validate:"required"`
	VNC     string   `mapstructure:"vnc" yaml:"vnc" validate:"required"`
	Restart []string `mapstructure:"restart" yaml:"restart" validate:"dive,required"`
	Network []string `mapstructure:"network" yaml:"network" validate:"dive,required"`
}

// Poll bounds the wait for association after a new network is written.
type Poll struct {
	Attempts int           `mapstructure:"attempts" yaml:"attempts" validate:"min=1,max=600"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval" validate:"gt=0"`
	DHCPWait time.Duration `mapstructure:"dhcp_wait" yaml:"dhcp_wait" validate:"gte=0"`
}

type History struct {
	// Empty disables the run history store.
	Path string `mapstructure:"path" yaml:"path"`
}

type Metrics struct {
	// Empty disables the Prometheus textfile export.
	TextfileDir string `mapstructure:"textfile_dir" yaml:"textfile_dir"`
}

// SetDefaults registers every key so env overrides work without a file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("interface", shared.DefaultInterface)
	v.SetDefault("wpa_config", shared.DefaultWPAConfig)
	v.SetDefault("country", shared.DefaultCountry)
	v.SetDefault("services.ssh", shared.DefaultSSHService)
	v.SetDefault("services.vnc", shared.DefaultVNCService)
	v.SetDefault("services.restart", shared.DefaultRestartServices)
	v.SetDefault("services.network", shared.DefaultNetworkServices)
	v.SetDefault("poll.attempts", 30)
	v.SetDefault("poll.interval", time.Second)
	v.SetDefault("poll.dhcp_wait", 5*time.Second)
	v.SetDefault("history.path", shared.HistoryFile)
	v.SetDefault("metrics.textfile_dir", "")
}

// BindFlags maps the persistent CLI flags onto config keys.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"interface":  "interface",
		"wpa_config": "wpa-config",
		"country":    "country",
	}
	var errs error
	for key, flag := range bindings {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		errs = cerr.CombineErrors(errs, v.BindPFlag(key, f))
	}
	return errs
}

// Load layers defaults, the env defaults file, the YAML config, PIRESCUE_*
// variables and bound flags, then validates the result. An explicit path that
// does not exist is an error; the default file is only read when present.
func Load(v *viper.Viper, path string) (*Config, error) {
	if err := godotenv.Load(shared.EnvDefaultsFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, cerr.Wrapf(err, "load %s", shared.EnvDefaultsFile)
	}

	SetDefaults(v)
	v.SetEnvPrefix(shared.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" && ExistsFile(shared.ConfigFile) {
		path = shared.ConfigFile
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, cerr.WithHint(cerr.Wrapf(err, "read config %s", path), "check the YAML syntax or pass --config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, cerr.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return rescue_err.NewExpectedError(cerr.Wrap(err, "invalid configuration"))
	}
	return nil
}

// Render returns c as YAML.
func (c *Config) Render() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, cerr.Wrap(err, "render config")
	}
	return out, nil
}

// ExistsFile reports whether path names a regular file.
func ExistsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
