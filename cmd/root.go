package cmd

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "interactive-resume"
)

type Config struct {
	Resume     *ResumeConfig     `mapstructure:"resume"`
	Chat       *ChatConfig       `mapstructure:"chat"`
	Storage    *StorageConfig    `mapstructure:"storage"`
	Keys       *KeysConfig       `mapstructure:"keys"`
	Server     *ServerConfig     `mapstructure:"server"`
	Transcript *TranscriptConfig `mapstructure:"transcript"`
}

type ResumeConfig struct {
	// Source is a base url, a directory holding resume.json or the file itself.
	Source      string        `mapstructure:"source"`
	PDF         string        `mapstructure:"pdf"`
	Title       string        `mapstructure:"title"`
	Lang        string        `mapstructure:"lang"`
	LoadTimeout time.Duration `mapstructure:"load-timeout"`
}

type ChatConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	EndpointFile   string        `mapstructure:"endpoint-file"`
	Mock           bool          `mapstructure:"mock"`
	Timeout        time.Duration `mapstructure:"timeout"`
	UserAgent      string        `mapstructure:"user-agent"`
	MaxLogLength   int           `mapstructure:"max-log-length"`
	Welcome        string        `mapstructure:"welcome"`
	ContactEmail   string        `mapstructure:"contact-email"`
	QuickQuestions []string      `mapstructure:"quick-questions"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type KeysConfig struct {
	ClientID           string `mapstructure:"client-id"`
	SessionID          string `mapstructure:"session-id"`
	PreviousResponseID string `mapstructure:"previous-response-id"`
	HideIntro          string `mapstructure:"hide-intro"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
	SessionTTL      time.Duration `mapstructure:"session-ttl"`
	Intro           string        `mapstructure:"intro"`
}

type TranscriptConfig struct {
	Prefix     string `mapstructure:"prefix"`
	Greeting   string `mapstructure:"greeting"`
	ResumeURL  string `mapstructure:"resume-url"`
	PartnerURL string `mapstructure:"partner-url"`
	Contact    string `mapstructure:"contact"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interactive-resume renders a résumé and lets visitors chat about it",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"chat.endpoint":      "AI_RESUME_ENDPOINT",
		"chat.endpoint-file": "AI_RESUME_ENDPOINT_FILE",
		"resume.source":      "AI_RESUME_SOURCE",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("resume.source", ".")
	viper.SetDefault("resume.load-timeout", 15*time.Second)
	viper.SetDefault("chat.timeout", 60*time.Second)
	viper.SetDefault("storage.driver", "bolt")
	viper.SetDefault("storage.path", app+".db")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.shutdown-timeout", 30*time.Second)
	viper.SetDefault("server.session-ttl", 30*time.Minute)
	viper.SetDefault("transcript.prefix", "AI-Resume-Chat")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interactive-resume.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// .env is optional and never overrides variables already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every setting has a default, so only an explicit config file is required.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Resume == nil {
		config.Resume = &ResumeConfig{}
	}
	if config.Chat == nil {
		config.Chat = &ChatConfig{}
	}
	if config.Storage == nil {
		config.Storage = &StorageConfig{}
	}
	if config.Keys == nil {
		config.Keys = &KeysConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	if config.Transcript == nil {
		config.Transcript = &TranscriptConfig{}
	}

	return config, nil
}
