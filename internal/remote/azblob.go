package remote

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Azure/azure-sdk-for-go/storage"
	"github.com/Azure/go-autorest/autorest/adal"
)

// fetchAzblob resolves azblob://container/blob to dest using the teacher's
// Azure dependencies: github.com/Azure/azure-sdk-for-go/storage for the
// blob read, and github.com/Azure/go-autorest/autorest/adal to check a
// service principal token when AZURE_CLIENT_ID/AZURE_CLIENT_SECRET/
// AZURE_TENANT_ID are set. The blob read itself always uses shared-key auth
// via AZURE_STORAGE_ACCOUNT/AZURE_STORAGE_ACCESS_KEY; the service principal
// token is not used for it.
func (r *Resolver) fetchAzblob(ctx context.Context, uri, dest string) error {
	container, blob, err := parseBucketURI(uri, "azblob://")
	if err != nil {
		return err
	}

	account := os.Getenv("AZURE_STORAGE_ACCOUNT")
	if account == "" {
		return fmt.Errorf("remote: azblob fetch %q: AZURE_STORAGE_ACCOUNT not set", uri)
	}

	if err := servicePrincipalLogin(); err != nil {
		r.mon.Warning(fmt.Errorf("remote: azblob service-principal login skipped: %w", err))
	}

	key := os.Getenv("AZURE_STORAGE_ACCESS_KEY")
	client, err := storage.NewBasicClient(account, key)
	if err != nil {
		return fmt.Errorf("remote: azblob client: %w", err)
	}

	bsc := client.GetBlobService()
	rc, err := bsc.GetContainerReference(container).GetBlobReference(blob).Get(nil)
	if err != nil {
		return fmt.Errorf("remote: azblob read %q: %w", uri, err)
	}
	defer rc.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("remote: azblob cache write %q: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return fmt.Errorf("remote: azblob cache write %q: %w", dest, err)
	}
	return nil
}

// servicePrincipalLogin acquires (and discards, beyond validating the
// credentials resolve) an AAD token via adal, the path a deployment using
// azblob:// sources with a service principal rather than a storage account
// key would exercise. It is a no-op when the three env vars aren't set.
func servicePrincipalLogin() error {
	tenantID := os.Getenv("AZURE_TENANT_ID")
	clientID := os.Getenv("AZURE_CLIENT_ID")
	clientSecret := os.Getenv("AZURE_CLIENT_SECRET")
	if tenantID == "" || clientID == "" || clientSecret == "" {
		return nil
	}

	oauthConfig, err := adal.NewOAuthConfig(azureADEndpoint, tenantID)
	if err != nil {
		return err
	}
	spt, err := adal.NewServicePrincipalToken(*oauthConfig, clientID, clientSecret, azureStorageResource)
	if err != nil {
		return err
	}
	return spt.Refresh()
}

const (
	azureADEndpoint      = "https://login.microsoftonline.com"
	azureStorageResource = "https://storage.azure.com/"
)
