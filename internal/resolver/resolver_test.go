package resolver

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogops/aws-orchestrator/internal/config"
	"github.com/catalogops/aws-orchestrator/internal/constants"
	"github.com/catalogops/aws-orchestrator/internal/entity"
)

func testConfig(multi bool) *config.Config {
	cfg := &config.Config{
		DefaultTarget: config.Target{
			Name:            "default",
			AccountID:       "111122223333",
			Region:          "us-west-2",
			BuildProjectArn: "arn:aws:codebuild:us-west-2:111122223333:project/portal-builder",
		},
	}
	if multi {
		cfg.MultiAccount = &config.MultiAccount{
			Enabled:              true,
			DirectoryRegion:      "us-east-1",
			RoleArn:              "arn:aws:iam::111122223333:role/DirectoryAccess",
			EnrolledOUsParameter: "/portal/enrolled-ous",
			RegionsParameter:     "/portal/available-regions",
		}
	}
	return cfg
}

type fakeSSM struct {
	params map[string]string
}

func (f *fakeSSM) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	value, ok := f.params[aws.ToString(params.Name)]
	if !ok {
		return nil, &ssmtypes.ParameterNotFound{}
	}
	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{Value: aws.String(value)},
	}, nil
}

type fakeOrganizations struct {
	accountsByOU map[string][]orgtypes.Account
}

func (f *fakeOrganizations) ListAccountsForParent(ctx context.Context, params *organizations.ListAccountsForParentInput, optFns ...func(*organizations.Options)) (*organizations.ListAccountsForParentOutput, error) {
	return &organizations.ListAccountsForParentOutput{
		Accounts: f.accountsByOU[aws.ToString(params.ParentId)],
	}, nil
}

type fakeFactory struct {
	ssm *fakeSSM
	org *fakeOrganizations
}

func (f *fakeFactory) SSMClient(ctx context.Context) (SSMAPI, error) { return f.ssm, nil }
func (f *fakeFactory) OrganizationsClient(ctx context.Context) (OrganizationsAPI, error) {
	return f.org, nil
}

func entityWithAnnotations(annotations map[string]string) *entity.Entity {
	return &entity.Entity{
		Kind: "Component",
		Metadata: entity.Metadata{
			Namespace:   "default",
			Name:        "my-service",
			UID:         "uid-1",
			Annotations: annotations,
		},
	}
}

func TestResolveDefault(t *testing.T) {
	r := New(testConfig(false), nil)

	target := r.Resolve(entityWithAnnotations(nil))
	assert.Equal(t, "111122223333", target.AccountID)
	assert.Equal(t, "us-west-2", target.Region)
	assert.True(t, r.IsDefault(target))
}

func TestResolveAnnotationOverride(t *testing.T) {
	r := New(testConfig(false), nil)

	ent := entityWithAnnotations(map[string]string{
		constants.AnnotationTargetAccount:   "444455556666",
		constants.AnnotationTargetRegion:    "eu-west-1",
		constants.AnnotationBuildProjectArn: "arn:aws:codebuild:eu-west-1:444455556666:project/builder",
	})

	target := r.Resolve(ent)
	assert.Equal(t, "444455556666", target.AccountID)
	assert.Equal(t, "eu-west-1", target.Region)
	assert.False(t, r.IsDefault(target))
}

func TestResolvePartialOverrideFallsBackToDefault(t *testing.T) {
	r := New(testConfig(false), nil)

	// region/project missing makes the override invalid
	ent := entityWithAnnotations(map[string]string{
		constants.AnnotationTargetAccount: "444455556666",
	})

	target := r.Resolve(ent)
	assert.Equal(t, "111122223333", target.AccountID)
}

func TestResolveIsDeterministic(t *testing.T) {
	r := New(testConfig(false), nil)
	ent := entityWithAnnotations(map[string]string{
		constants.AnnotationTargetAccount:   "444455556666",
		constants.AnnotationTargetRegion:    "eu-west-1",
		constants.AnnotationBuildProjectArn: "arn:aws:codebuild:eu-west-1:444455556666:project/builder",
	})

	first := r.Resolve(ent)
	second := r.Resolve(ent)
	assert.Equal(t, first, second)
}

func TestListAvailableAccountsDisabled(t *testing.T) {
	r := New(testConfig(false), nil)

	accounts, err := r.ListAvailableAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []AccountInfo{{AccountID: "111122223333", Alias: "DEFAULT"}}, accounts)
}

func TestListAvailableAccountsMultiAccount(t *testing.T) {
	factory := &fakeFactory{
		ssm: &fakeSSM{params: map[string]string{
			"/portal/enrolled-ous": "ou-1,ou-2",
		}},
		org: &fakeOrganizations{accountsByOU: map[string][]orgtypes.Account{
			"ou-1": {
				{Id: aws.String("222233334444"), Name: aws.String("workloads-a")},
				{Id: aws.String("333344445555"), Name: aws.String("workloads-b")},
			},
			"ou-2": {
				{Id: aws.String("444455556666"), Name: aws.String("sandbox")},
			},
		}},
	}
	r := New(testConfig(true), factory)

	accounts, err := r.ListAvailableAccounts(context.Background())
	require.NoError(t, err)

	// OU order first, then directory listing order within each OU
	assert.Equal(t, []AccountInfo{
		{AccountID: "222233334444", Alias: "workloads-a"},
		{AccountID: "333344445555", Alias: "workloads-b"},
		{AccountID: "444455556666", Alias: "sandbox"},
	}, accounts)
}

func TestListAvailableAccountsEmptyOU(t *testing.T) {
	factory := &fakeFactory{
		ssm: &fakeSSM{params: map[string]string{
			"/portal/enrolled-ous": "ou-empty,ou-1",
		}},
		org: &fakeOrganizations{accountsByOU: map[string][]orgtypes.Account{
			"ou-1": {
				{Id: aws.String("222233334444"), Name: aws.String("workloads-a")},
			},
		}},
	}
	r := New(testConfig(true), factory)

	accounts, err := r.ListAvailableAccounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
	assert.Equal(t, "222233334444", accounts[0].AccountID)
}

func TestListAvailableRegionsDisabled(t *testing.T) {
	r := New(testConfig(false), nil)

	regions, err := r.ListAvailableRegions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"us-west-2"}, regions)
}

func TestListAvailableRegionsMultiAccount(t *testing.T) {
	factory := &fakeFactory{
		ssm: &fakeSSM{params: map[string]string{
			"/portal/available-regions": "us-west-2, eu-west-1,ap-southeast-2",
		}},
	}
	r := New(testConfig(true), factory)

	regions, err := r.ListAvailableRegions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"us-west-2", "eu-west-1", "ap-southeast-2"}, regions)
}

func TestListAvailableRegionsParameterAbsent(t *testing.T) {
	factory := &fakeFactory{ssm: &fakeSSM{params: map[string]string{}}}
	r := New(testConfig(true), factory)

	regions, err := r.ListAvailableRegions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, regions)
}
