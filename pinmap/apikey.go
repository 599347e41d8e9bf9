// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package pinmap

import (
	"context"
	"errors"
	"fmt"
	"log"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// The Maps key provisioned for the service carries this display name.
const geocodingKeyDisplayName = "Palytt Geocoding Key"

// getAPIKeyFromADC resolves the Google Maps API key through Application
// Default Credentials when GOOGLE_MAPS_API_KEY is not set in the environment.
func getAPIKeyFromADC(ctx context.Context) (string, error) {
	// 1. Get Project ID from ADC
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	projectID := creds.ProjectID
	if projectID == "" {
		return "", errors.New("no project id in default credentials; set GOOGLE_MAPS_API_KEY instead")
	}

	// 2. Create API Keys client
	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	// 3. List keys to find the one with the expected display name
	req := &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	}

	it := client.ListKeys(ctx, req)

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName != geocodingKeyDisplayName {
			continue
		}

		// ListKeys and GetKey redact the KeyString; GetKeyString is the only
		// way to retrieve the secret.
		log.Printf("Found key resource '%s', retrieving secret...", key.Name)

		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{
			Name: key.Name,
		})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.KeyString == "" {
			return "", fmt.Errorf("key '%s' found but KeyString is empty after GetKeyString", geocodingKeyDisplayName)
		}

		return resp.KeyString, nil
	}

	return "", fmt.Errorf("key with display name '%s' not found in project %s", geocodingKeyDisplayName, projectID)
}
