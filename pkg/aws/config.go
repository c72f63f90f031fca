package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// LoadAWSConfig loads the default AWS config. When AWS_ENDPOINT (or the
// service specific AWS_SNS_ENDPOINT / AWS_SQS_ENDPOINT) is set, every client
// built from the returned config targets that endpoint, which is how the
// stack runs against LocalStack.
func LoadAWSConfig(ctx context.Context) (sdkaws.Config, error) {
	region := getEnv("AWS_REGION", "ap-south-1")
	endpoint := firstEnv("AWS_ENDPOINT", "AWS_SNS_ENDPOINT", "AWS_SQS_ENDPOINT")

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if key, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); key != "" && secret != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, os.Getenv("AWS_SESSION_TOKEN")),
		))
	} else if endpoint != "" {
		// LocalStack accepts any credentials
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("test", "test", ""),
		))
	}
	if endpoint != "" {
		opts = append(opts, config.WithEndpointResolverWithOptions(
			sdkaws.EndpointResolverWithOptionsFunc(func(service, r string, options ...interface{}) (sdkaws.Endpoint, error) {
				return sdkaws.Endpoint{URL: endpoint, SigningRegion: region, HostnameImmutable: true}, nil
			}),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}
	return cfg, nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
