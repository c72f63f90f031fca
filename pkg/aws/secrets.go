package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsClient reads Secrets Manager values once per process.
type SecretsClient struct {
	api secretsAPI

	mu     sync.Mutex
	values map[string]string
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	return &SecretsClient{api: secretsmanager.NewFromConfig(cfg), values: map[string]string{}}
}

func (s *SecretsClient) GetSecret(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.values[name]; ok {
		return v, nil
	}
	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(name)})
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s is binary", name)
	}
	s.values[name] = *out.SecretString
	return *out.SecretString, nil
}

// GetSecretMap reads a secret holding a flat JSON object of strings, the
// layout used for DB_CREDENTIALS and APP_SECRETS.
func (s *SecretsClient) GetSecretMap(ctx context.Context, name string) (map[string]string, error) {
	raw, err := s.GetSecret(ctx, name)
	if err != nil {
		return nil, err
	}
	m := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("secret %s is not a JSON object: %w", name, err)
	}
	return m, nil
}
