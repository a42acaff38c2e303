package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
)

// UniversityClient queries the public universities search API.
type UniversityClient struct {
	baseURL string
	client  *client
}

func NewUniversityClient(baseURL string, httpClient *http.Client, maxRetries int, logger utils.Logger) repositories.UniversityDirectory {
	return &UniversityClient{
		baseURL: baseURL,
		client:  newClient("university directory", httpClient, maxRetries, logger),
	}
}

func (u *UniversityClient) Search(ctx context.Context, query models.UniversityQuery) (*repositories.RawResponse, error) {
	params := url.Values{}
	if query.Name != "" {
		params.Set("name", query.Name)
	}
	if query.Country != "" {
		params.Set("country", query.Country)
	}

	target := u.baseURL + "/search"
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return u.client.do(ctx, http.MethodGet, target, nil)
}
