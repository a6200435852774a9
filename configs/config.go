package configs

import (
	"log"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config struct
type Config struct {
	App      `mapstructure:"app"`
	Postgres `mapstructure:"postgres"`
	WhatsApp `mapstructure:"whatsapp"`
	Gemini   `mapstructure:"gemini"`
	Shopify  `mapstructure:"shopify"`
	Session  `mapstructure:"session"`
	Agent    `mapstructure:"agent"`
}

// App struct
type App struct {
	Debug bool   `mapstructure:"debug"`
	Env   string `mapstructure:"env"`
	Port  string `mapstructure:"port"`
}

// Postgres struct - optional transcript-log database.
// Leave host empty to run without persistence.
type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DbName   string `mapstructure:"database"`
	SSLMode  bool   `mapstructure:"sslmode"`
}

// WhatsApp struct - WhatsApp Business Cloud API credentials
type WhatsApp struct {
	AccessToken   string `mapstructure:"access_token"`
	PhoneNumberID string `mapstructure:"phone_number_id"`
	VerifyToken   string `mapstructure:"verify_token"`
	BaseURL       string `mapstructure:"base_url"`
	APIVersion    string `mapstructure:"api_version"`
}

// Gemini struct
type Gemini struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// Shopify struct
type Shopify struct {
	StoreURL        string `mapstructure:"store_url"`
	APIToken        string `mapstructure:"api_token"`
	APIVersion      string `mapstructure:"api_version"`
	TrackingBaseURL string `mapstructure:"tracking_base_url"`
}

// Session struct - conversation session and aggregation tuning.
// Zero values signal the application layer to apply defaults.
type Session struct {
	Timeout       int `mapstructure:"timeout"`        // idle threshold, minutes
	MaxTurns      int `mapstructure:"max_turns"`      // retained exchanges
	FirstWindow   int `mapstructure:"first_window"`   // first debounce window, seconds
	NextWindow    int `mapstructure:"next_window"`    // later debounce windows, seconds
	SweepInterval int `mapstructure:"sweep_interval"` // reaper interval, minutes
}

// Agent struct - persona configuration for the support agent
type Agent struct {
	Name         string `mapstructure:"name"`
	StoreName    string `mapstructure:"store_name"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

var config Config

// InitViper func
func InitViper(path, env string) {
	getConfig(path, env)
}

// GetViper func
func GetViper() *Config {
	return &config
}

func getConfig(path, env string) {
	viper.SetConfigName("config")
	viper.AddConfigPath(path)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Println("Config file has changed: ", e.Name)
	})
	err = viper.Unmarshal(&config)
	if err != nil {
		log.Fatalln(err)
	}
}
