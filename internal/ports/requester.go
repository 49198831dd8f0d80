package ports

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bnema/nodekeeper/internal/domain"
)

type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Requester performs one logical call against the gateway API. A nil
// response always comes with a non-nil error.
type Requester interface {
	Perform(ctx context.Context, method, path string, body any, maxAttempts int) (*Response, error)
}

// RequesterFactory binds a Requester to one account's token, proxy and
// user agent.
type RequesterFactory interface {
	NewRequester(account domain.Account, proxy domain.Proxy, userAgent string) (Requester, error)
}

type UserAgentPicker interface {
	Pick() string
}
