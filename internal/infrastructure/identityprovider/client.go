package identityprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"resty.dev/v3"

	"github.com/janhq/money-coach/internal/config"
	"github.com/janhq/money-coach/internal/domain/user"
	"github.com/janhq/money-coach/internal/utils/httpclients"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

// Client reads user profiles from the identity provider's backend API.
type Client struct {
	http *resty.Client
}

var _ user.ProfileFetcher = (*Client)(nil)

func NewClient(baseURL, secret string, cfg *config.Config) *Client {
	client := httpclients.NewClient("identity-provider", cfg.IdentityTimeout)
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetHeader("Accept", "application/json")
	if secret != "" {
		client.SetHeader("Authorization", "Bearer "+secret)
	}
	client.SetRetryCount(0)
	return &Client{http: client}
}

// FetchProfile returns the account's profile. The response uses the same user
// object shape as webhook event data.
func (c *Client) FetchProfile(ctx context.Context, externalID string) (*user.Profile, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/users/" + url.PathEscape(externalID))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "identity provider unavailable", err, "975c6326-9bf8-402a-8f68-07f0972f5987")
	}
	if resp.StatusCode() >= 400 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("identity provider returned status %d", resp.StatusCode()), nil, "6ebca016-d7ff-42a3-8790-a13b9f8a70ba")
	}

	var data user.EventData
	if err := json.Unmarshal(resp.Bytes(), &data); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "failed to decode identity profile", err, "ccb25a91-b8f5-4655-b425-0116dd689d81")
	}

	return &user.Profile{
		Email:     data.PrimaryEmail(),
		FirstName: data.FirstName,
		LastName:  data.LastName,
		ImageURL:  data.ImageURL,
	}, nil
}
