package azure

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/gobeaver/filesniff"
)

func init() {
	filesniff.RegisterSource("azure", createAzureSource)
}

func createAzureSource(cfg *filesniff.Config) (filesniff.HeaderSource, error) {
	if cfg.AzureAccountName == "" || cfg.AzureAccountKey == "" {
		return nil, fmt.Errorf("azure account name and key are required")
	}
	if cfg.AzureContainerName == "" {
		return nil, fmt.Errorf("azure container name is required")
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AzureAccountName)
	if cfg.AzureEndpoint != "" {
		serviceURL = cfg.AzureEndpoint
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AzureAccountName, cfg.AzureAccountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	var options []SourceOption
	if cfg.AzurePrefix != "" {
		options = append(options, WithPrefix(cfg.AzurePrefix))
	}

	return New(client, cfg.AzureContainerName, options...), nil
}
