package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Debug                    bool   `envconfig:"debug"`
	Port                     int    `envconfig:"port" default:"8080"`
	Env                      string `envconfig:"env"`
	JWTSecret                string `envconfig:"jwt_secret"`
	DataDir                  string `envconfig:"data_dir" default:"./data"`
	RedisAddr                string `envconfig:"redis_addr"`
	RedisPassword            string `envconfig:"redis_password"`
	AmqpURL                  string `envconfig:"amqp_url"`
	NotificationQueue        string `envconfig:"notification_queue" default:"citizen_notifications"`
	LocationTimeoutSeconds   int    `envconfig:"location_timeout_seconds" default:"10"`
	AccessControlAllowOrigin string `envconfig:"access_control_allow_origin"`
}

func Load() (*Config, error) {
	env := os.Getenv("GIN_MODE")
	if env != "release" {
		if err := godotenv.Load("./.env"); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	err := envconfig.Process("civicseva", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}
