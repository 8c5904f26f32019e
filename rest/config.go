package rest

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the identity service root, e.g. "https://id.example.com/1.1".
	BaseURL string `env:"IDENTITY_BASE_URL"`
	// AppID and AppKey are the application credentials sent on every request.
	AppID  string `env:"IDENTITY_APP_ID"`
	AppKey string `env:"IDENTITY_APP_KEY"`
	// Timeout bounds each request when no http.Client is supplied.
	Timeout time.Duration `env:"IDENTITY_HTTP_TIMEOUT" envDefault:"10s"`
}

func (o Options) validate() error {
	if o.BaseURL == "" {
		return errors.New("rest: base url is required")
	}
	if o.AppID == "" || o.AppKey == "" {
		return errors.New("rest: app id and app key are required")
	}
	return nil
}

// OptionsFromEnv reads Options from the environment.
func OptionsFromEnv() (Options, error) {
	var opts Options
	if err := env.Parse(&opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}
