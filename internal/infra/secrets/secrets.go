// internal/infra/secrets/secrets.go
package secrets

import (
	"context"
	"errors"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Access reads one secret version from Secret Manager. name is either a
// full resource name (projects/.../secrets/.../versions/...) or a bare
// secret id, in which case the latest version under projectID is read.
func Access(ctx context.Context, projectID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("secrets: empty secret name")
	}
	if !strings.HasPrefix(name, "projects/") {
		prj := strings.TrimSpace(projectID)
		if prj == "" {
			return "", errors.New("secrets: projectID is empty")
		}
		name = "projects/" + prj + "/secrets/" + name + "/versions/latest"
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Payload == nil {
		return "", errors.New("secrets: empty payload for " + name)
	}
	return strings.TrimSpace(string(resp.Payload.Data)), nil
}
