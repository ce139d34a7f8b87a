package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf holds the app configuration. It is loaded once at startup from
// defaults, an optional config/.env.<env> file and ENV-prefixed env vars.
var Conf *Config

type (
	Config struct {
		Env      string
		AppName  string
		Debug    bool
		TestMode bool
		WorkDir  string

		SecretKey          []byte
		FrontendBaseURL    string
		DefaultFromName    string
		DefaultFromAddress string
		SendgridApiKey     string
		RollbarToken       string

		SessionTTL            time.Duration
		OTPTTL                time.Duration
		InitialPasswordLength int
		StudentEmailDomain    string

		Server   ServerConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Host            string
		Port            string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromAddress}
}

func (sc ServerConfig) Address() string { return sc.Host + ":" + sc.Port }

func (dc DatabaseConfig) Address() string { return dc.Host + ":" + dc.Port }

func init() {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Academia")
	v.SetDefault("secretKey", "w#6p0^p$e&2(m1x=u+d1@9s^$t7kqz!yj0f(d&5p-rv4c8n_a3")
	v.SetDefault("frontendBaseUrl", "http://localhost:5173")
	v.SetDefault("defaultFromName", "Academia")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sessionTtl", 24*time.Hour)
	v.SetDefault("otpTtl", 10*time.Minute)
	v.SetDefault("initialPasswordLength", 10)
	v.SetDefault("studentEmailDomain", "students.localhost")
	v.SetDefault("serverHost", "0.0.0.0")
	v.SetDefault("serverPort", "8000")
	v.SetDefault("serverShutdownTimeout", 20*time.Second)
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "academia")
	v.SetDefault("dbUser", "academia")
	v.SetDefault("dbPassword", "")
	v.SetDefault("dbAdminUser", "")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbDisableTls", true)
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	wd := findWorkDir()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	Conf = &Config{
		Env:                   env,
		AppName:               v.GetString("appName"),
		Debug:                 v.GetBool("debug"),
		TestMode:              env == "TEST",
		WorkDir:               wd,
		SecretKey:             []byte(v.GetString("secretKey")),
		FrontendBaseURL:       v.GetString("frontendBaseUrl"),
		DefaultFromName:       v.GetString("defaultFromName"),
		DefaultFromAddress:    v.GetString("defaultFromEmail"),
		SendgridApiKey:        v.GetString("sendgridApiKey"),
		RollbarToken:          v.GetString("rollbarToken"),
		SessionTTL:            v.GetDuration("sessionTtl"),
		OTPTTL:                v.GetDuration("otpTtl"),
		InitialPasswordLength: v.GetInt("initialPasswordLength"),
		StudentEmailDomain:    v.GetString("studentEmailDomain"),
		Server: ServerConfig{
			Host:            v.GetString("serverHost"),
			Port:            v.GetString("serverPort"),
			ShutdownTimeout: v.GetDuration("serverShutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			DisableTLS:    v.GetBool("dbDisableTls"),
		},
	}
}

// findWorkDir walks up from the current directory looking for go.mod.
// go-test changes the working directory to the test package being run;
// assets would not resolve otherwise.
// see: https://stackoverflow.com/questions/23847003/golang-tests-and-working-directory
func findWorkDir() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd // deployed binary; assets expected next to it
		}
		currDir = newDir
	}
}
