package tokenstore

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds the storage settings.
type Config struct {
	Bucket string `description:"S3 bucket holding tokens, reports, and covers."`
	Prefix string `description:"Optional key prefix inside the bucket."`
}

// Name of the configuration tree.
func (*Config) Name() string {
	return "storage"
}

// Component loads the storage settings and constructs a Store backed by
// a real S3 client.
type Component struct{}

// NewComponent populates the default values.
func NewComponent() *Component {
	return &Component{}
}

// Settings returns the default configuration.
func (*Component) Settings() *Config {
	return &Config{}
}

// New constructs the Store from the resolved configuration.
func (*Component) New(ctx context.Context, conf *Config) (*Store, error) {
	awsConf, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	store := New(s3.NewFromConfig(awsConf), conf.Bucket)
	store.Prefix = conf.Prefix
	return store, nil
}
