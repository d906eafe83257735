// Package resolver decides which account/region/build-project triple an
// entity's infrastructure operations run against. A single static default
// target always exists; multi-account mode adds a directory lookup path
// over enrolled organizational units.
package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/catalogops/aws-orchestrator/internal/apicall"
	"github.com/catalogops/aws-orchestrator/internal/config"
	"github.com/catalogops/aws-orchestrator/internal/constants"
	"github.com/catalogops/aws-orchestrator/internal/entity"
)

// AccountInfo is a single selectable deployment account
type AccountInfo struct {
	AccountID string `json:"accountId"`
	Alias     string `json:"alias"`
}

// SSMAPI is the parameter store surface the resolver needs
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// OrganizationsAPI is the directory service surface the resolver needs
type OrganizationsAPI interface {
	ListAccountsForParent(ctx context.Context, params *organizations.ListAccountsForParentInput, optFns ...func(*organizations.Options)) (*organizations.ListAccountsForParentOutput, error)
}

// ClientFactory builds directory-region clients with cross-account
// credentials. Implementations assume the configured role freshly per
// call; concurrent calls each assume the role independently.
type ClientFactory interface {
	SSMClient(ctx context.Context) (SSMAPI, error)
	OrganizationsClient(ctx context.Context) (OrganizationsAPI, error)
}

// Resolver resolves deployment targets and enumerates available
// accounts/regions. Resolution itself is pure and safe for concurrent
// use across entities.
type Resolver struct {
	cfg     *config.Config
	factory ClientFactory
}

// New creates a Resolver. The factory may be nil when multi-account mode
// is disabled.
func New(cfg *config.Config, factory ClientFactory) *Resolver {
	return &Resolver{cfg: cfg, factory: factory}
}

// Resolve returns the deployment target for an entity: the annotated
// override when account, region and build project are all present,
// otherwise the static default. Deterministic and side-effect free.
func (r *Resolver) Resolve(ent *entity.Entity) config.Target {
	account := ent.Annotation(constants.AnnotationTargetAccount)
	region := ent.Annotation(constants.AnnotationTargetRegion)
	project := ent.Annotation(constants.AnnotationBuildProjectArn)

	if account != "" && region != "" && project != "" {
		return config.Target{
			Name:            account,
			AccountID:       account,
			Region:          region,
			BuildProjectArn: project,
		}
	}
	return r.cfg.DefaultTarget
}

// IsDefault reports whether a resolved target is the static default
func (r *Resolver) IsDefault(target config.Target) bool {
	return target.AccountID == r.cfg.DefaultTarget.AccountID &&
		target.Region == r.cfg.DefaultTarget.Region &&
		target.BuildProjectArn == r.cfg.DefaultTarget.BuildProjectArn
}

// ListAvailableAccounts enumerates deployable accounts. With
// multi-account mode disabled this is the single synthetic default entry;
// enabled, it flattens the enrolled OUs in parameter order, preserving
// directory listing order within each OU. An OU with zero children is
// fine.
func (r *Resolver) ListAvailableAccounts(ctx context.Context) ([]AccountInfo, error) {
	if !r.cfg.MultiAccountEnabled() {
		return []AccountInfo{{
			AccountID: r.cfg.DefaultTarget.AccountID,
			Alias:     constants.DefaultTargetName,
		}}, nil
	}

	ssmClient, err := r.factory.SSMClient(ctx)
	if err != nil {
		return nil, err
	}

	ouList, found, err := getParameter(ctx, ssmClient, r.cfg.MultiAccount.EnrolledOUsParameter)
	if err != nil {
		return nil, err
	}
	if !found {
		return []AccountInfo{}, nil
	}

	orgClient, err := r.factory.OrganizationsClient(ctx)
	if err != nil {
		return nil, err
	}

	var accounts []AccountInfo
	for _, ou := range splitList(ouList) {
		children, err := r.listAccountsForOU(ctx, orgClient, ou)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, children...)
	}
	return accounts, nil
}

// ListAvailableRegions enumerates deployable regions. With multi-account
// mode disabled this is the default target's region; enabled, the
// comma-separated regions parameter, or an empty list when absent.
func (r *Resolver) ListAvailableRegions(ctx context.Context) ([]string, error) {
	if !r.cfg.MultiAccountEnabled() {
		return []string{r.cfg.DefaultTarget.Region}, nil
	}

	ssmClient, err := r.factory.SSMClient(ctx)
	if err != nil {
		return nil, err
	}

	value, found, err := getParameter(ctx, ssmClient, r.cfg.MultiAccount.RegionsParameter)
	if err != nil {
		return nil, err
	}
	if !found {
		return []string{}, nil
	}
	return splitList(value), nil
}

func (r *Resolver) listAccountsForOU(ctx context.Context, client OrganizationsAPI, ouID string) ([]AccountInfo, error) {
	var accounts []AccountInfo
	var nextToken *string

	for {
		out, err := apicall.Do(ctx, "organizations list-accounts-for-parent "+ouID, func() (*organizations.ListAccountsForParentOutput, error) {
			return client.ListAccountsForParent(ctx, &organizations.ListAccountsForParentInput{
				ParentId:  aws.String(ouID),
				NextToken: nextToken,
			})
		})
		if err != nil {
			return nil, err
		}

		for _, account := range out.Accounts {
			accounts = append(accounts, AccountInfo{
				AccountID: aws.ToString(account.Id),
				Alias:     aws.ToString(account.Name),
			})
		}

		if out.NextToken == nil {
			return accounts, nil
		}
		nextToken = out.NextToken
	}
}

func getParameter(ctx context.Context, client SSMAPI, name string) (string, bool, error) {
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", false, nil
		}
		return "", false, apicall.Classify(ctx, "ssm get-parameter "+name, err)
	}

	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", false, nil
	}
	return *out.Parameter.Value, true, nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
