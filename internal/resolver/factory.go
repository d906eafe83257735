package resolver

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// STSClientFactory builds clients with temporary credentials obtained by
// assuming the cross-account directory role. Credentials are assumed
// freshly on every call; there is intentionally no caching or
// expiry-aware reuse. Clients are always scoped to the directory-service
// region regardless of which region data is being queried about.
type STSClientFactory struct {
	stsClient *sts.Client
	cfg       aws.Config
	roleArn   string
	region    string
}

// NewSTSClientFactory creates a factory assuming roleArn in region
func NewSTSClientFactory(cfg aws.Config, roleArn, region string) *STSClientFactory {
	return &STSClientFactory{
		stsClient: sts.NewFromConfig(cfg),
		cfg:       cfg,
		roleArn:   roleArn,
		region:    region,
	}
}

func (f *STSClientFactory) targetConfig() aws.Config {
	creds := stscreds.NewAssumeRoleProvider(f.stsClient, f.roleArn)
	targetCfg := f.cfg.Copy()
	targetCfg.Credentials = creds
	targetCfg.Region = f.region
	return targetCfg
}

// SSMClient returns a parameter store client in the directory region
func (f *STSClientFactory) SSMClient(ctx context.Context) (SSMAPI, error) {
	return ssm.NewFromConfig(f.targetConfig()), nil
}

// OrganizationsClient returns a directory service client
func (f *STSClientFactory) OrganizationsClient(ctx context.Context) (OrganizationsAPI, error) {
	return organizations.NewFromConfig(f.targetConfig()), nil
}
