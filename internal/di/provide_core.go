package di

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/catalogops/aws-orchestrator/internal/builder"
	"github.com/catalogops/aws-orchestrator/internal/catalog"
	"github.com/catalogops/aws-orchestrator/internal/config"
	"github.com/catalogops/aws-orchestrator/internal/configstore"
	"github.com/catalogops/aws-orchestrator/internal/fetch"
	"github.com/catalogops/aws-orchestrator/internal/metrics"
	"github.com/catalogops/aws-orchestrator/internal/objectsync"
	"github.com/catalogops/aws-orchestrator/internal/resolver"
)

// ProvideResolver builds the target resolver. The cross-account client
// factory is only constructed when multi-account mode is enabled.
func ProvideResolver(awsCfg aws.Config, cfg *config.Config) *resolver.Resolver {
	var factory resolver.ClientFactory
	if cfg.MultiAccountEnabled() {
		factory = resolver.NewSTSClientFactory(awsCfg, cfg.MultiAccount.RoleArn, cfg.MultiAccount.DirectoryRegion)
	}
	return resolver.New(cfg, factory)
}

func ProvideConfigStore(client *ssm.Client, cfg *config.Config) *configstore.Store {
	return configstore.New(client, cfg.ParameterPrefix)
}

// ProvideReader routes fetches by scheme: http(s) URLs over HTTP,
// everything else against the object store
func ProvideReader(client *s3.Client) fetch.Reader {
	return &fetch.AutoReader{
		HTTP: &fetch.HTTPReader{},
		S3:   &fetch.S3Reader{Client: client},
	}
}

func ProvideMetricsSender(cfg *config.Config) *metrics.Sender {
	return metrics.New(cfg.MetricsEndpoint)
}

func ProvideCatalogClient(url CatalogURL) catalog.Client {
	return catalog.NewHTTPClient(string(url))
}

func ProvideOrchestrator(client *codebuild.Client, res *resolver.Resolver, store *configstore.Store, reader fetch.Reader, sender *metrics.Sender, cfg *config.Config) *builder.Orchestrator {
	return builder.New(client, res, store, reader, sender, cfg)
}

func ProvideSyncEngine(client *s3.Client, cfg *config.Config) *objectsync.Engine {
	return objectsync.New(client, cfg.AssetBucket, cfg.AssetPrefix)
}
