package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for HTTP requests with proxy handling.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs a GET request to the specified URL with parameters.
	// Returns the response body of a 2xx response, or a *helpers.FetchError.
	Get(ctx context.Context, url string, params map[string]string) ([]byte, error)
}
