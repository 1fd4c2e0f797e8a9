package datazone

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/datazone"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ClientConfig selects the region and, optionally, the AWS account the
// caller credentials must belong to.
type ClientConfig struct {
	Region string `yaml:"region" validate:"required"`
	// ExpectedAccountID, when set, is compared with the STS caller identity
	// before any DataZone call is made.
	ExpectedAccountID string `yaml:"expected_account_id" validate:"omitempty,len=12,numeric"`
	// Profile selects a named shared-config profile.
	Profile string `yaml:"profile"`
}

// NewClient loads the default AWS configuration for cfg and returns a
// DataZone client.
func NewClient(ctx context.Context, cfg ClientConfig) (*datazone.Client, error) {
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		opts = append(opts, awscfg.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	if cfg.ExpectedAccountID != "" {
		if err := checkCallerAccount(ctx, sts.NewFromConfig(awsCfg), cfg.ExpectedAccountID); err != nil {
			return nil, err
		}
	}
	return datazone.NewFromConfig(awsCfg), nil
}

// callerIdentity is the STS subset used by the account preflight.
type callerIdentity interface {
	GetCallerIdentity(ctx context.Context, in *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// checkCallerAccount catches credentials for the wrong account before any
// resource is touched.
func checkCallerAccount(ctx context.Context, client callerIdentity, want string) error {
	identity, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("STS GetCallerIdentity: %w", err)
	}
	if got := aws.ToString(identity.Account); got != want {
		return fmt.Errorf("AWS caller account %s does not match expected account %s", got, want)
	}
	return nil
}
