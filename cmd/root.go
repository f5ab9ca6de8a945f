package cmd

import (
	"errors"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "grantfinder"
)

type Config struct {
	ProfileFile string          `mapstructure:"profile-file"`
	StoreFile   string          `mapstructure:"store-file"`
	ExcludeFile string          `mapstructure:"exclude-file"`
	DraftsDir   string          `mapstructure:"drafts-dir"`
	UserAgent   string          `mapstructure:"user-agent"`
	Matching    *MatchingConfig `mapstructure:"matching"`
	Sources     *SourcesConfig  `mapstructure:"sources"`
	Tracker     *TrackerConfig  `mapstructure:"tracker"`
	AI          *AIConfig       `mapstructure:"ai"`
	Schedule    *ScheduleConfig `mapstructure:"schedule"`
}

type MatchingConfig struct {
	MinimumScore   float64  `mapstructure:"minimum-score"`
	ExcludeFunders []string `mapstructure:"exclude-funders"`
}

type SourcesConfig struct {
	Concurrency int              `mapstructure:"concurrency"`
	GrantsGov   *GrantsGovConfig `mapstructure:"grants-gov"`
	WomensNet   *SourceToggle    `mapstructure:"womensnet"`
	MBDA        *SourceToggle    `mapstructure:"mbda"`
	HelloAlice  *SourceToggle    `mapstructure:"helloalice"`
	IFundWomen  *SourceToggle    `mapstructure:"ifundwomen"`
}

type GrantsGovConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Keywords   []string `mapstructure:"keywords"`
	Rows       int      `mapstructure:"rows"`
	MaxResults int      `mapstructure:"max-results"`
	ThrottleMS int      `mapstructure:"throttle-ms"`
}

type SourceToggle struct {
	Enabled bool `mapstructure:"enabled"`
}

type TrackerConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet-id"`
	CredentialsFile string `mapstructure:"credentials-file"`
}

type AIConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Provider  string        `mapstructure:"provider"`
	AutoDraft bool          `mapstructure:"auto-draft"`
	Gemini    *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type ScheduleConfig struct {
	Listen        string `mapstructure:"listen"`
	Scan          string `mapstructure:"scan"`
	DeadlineCheck string `mapstructure:"deadline-check"`
	WeeklySummary string `mapstructure:"weekly-summary"`
	ReminderDays  []int  `mapstructure:"reminder-days"`
	Pprof         bool   `mapstructure:"pprof"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "grantfinder discovers small business grants, scores them against the company profile and drafts applications",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("tracker.credentials-file", "GOOGLE_APPLICATION_CREDENTIALS"); err != nil {
		log.Fatalf("binding GOOGLE_APPLICATION_CREDENTIALS environment variable: %v", err)
	}
	if err := viper.BindEnv("tracker.spreadsheet-id", "GRANTFINDER_SPREADSHEET_ID"); err != nil {
		log.Fatalf("binding GRANTFINDER_SPREADSHEET_ID environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is grantfinder.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// A .env file in the working directory feeds the environment bindings.
	// A missing file is fine.
	_ = godotenv.Load()

	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// An explicitly named config file must parse; the default one may simply
	// not exist yet.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func setDefaults() {
	viper.SetDefault("profile-file", "profile.yaml")
	viper.SetDefault("store-file", app+".db")
	viper.SetDefault("drafts-dir", "drafts")

	viper.SetDefault("matching.minimum-score", 0.6)

	viper.SetDefault("sources.concurrency", 4)
	viper.SetDefault("sources.grants-gov.enabled", true)
	viper.SetDefault("sources.grants-gov.keywords", []string{
		"women-owned small business",
		"minority-owned business",
		"media production",
		"digital marketing",
		"small business california",
	})
	viper.SetDefault("sources.grants-gov.rows", 25)
	viper.SetDefault("sources.grants-gov.max-results", 100)
	viper.SetDefault("sources.grants-gov.throttle-ms", 500)
	viper.SetDefault("sources.womensnet.enabled", true)
	viper.SetDefault("sources.mbda.enabled", true)
	viper.SetDefault("sources.helloalice.enabled", true)
	viper.SetDefault("sources.ifundwomen.enabled", true)

	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")

	viper.SetDefault("schedule.listen", ":8080")
	viper.SetDefault("schedule.scan", "0 9 * * *")
	viper.SetDefault("schedule.deadline-check", "0 8 * * *")
	viper.SetDefault("schedule.weekly-summary", "0 17 * * 5")
	viper.SetDefault("schedule.reminder-days", []int{7, 3, 1})
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	config.ensure()

	return config, nil
}

// ensure fills nested sections so commands can dereference them freely.
func (c *Config) ensure() {
	if c.Matching == nil {
		c.Matching = &MatchingConfig{}
	}
	if c.Sources == nil {
		c.Sources = &SourcesConfig{}
	}
	if c.Sources.GrantsGov == nil {
		c.Sources.GrantsGov = &GrantsGovConfig{}
	}
	if c.Sources.WomensNet == nil {
		c.Sources.WomensNet = &SourceToggle{}
	}
	if c.Sources.MBDA == nil {
		c.Sources.MBDA = &SourceToggle{}
	}
	if c.Sources.HelloAlice == nil {
		c.Sources.HelloAlice = &SourceToggle{}
	}
	if c.Sources.IFundWomen == nil {
		c.Sources.IFundWomen = &SourceToggle{}
	}
	if c.Tracker == nil {
		c.Tracker = &TrackerConfig{}
	}
	if c.AI == nil {
		c.AI = &AIConfig{}
	}
	if c.AI.Gemini == nil {
		c.AI.Gemini = &GeminiConfig{}
	}
	if c.Schedule == nil {
		c.Schedule = &ScheduleConfig{}
	}
}
