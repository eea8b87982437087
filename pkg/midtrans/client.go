package midtrans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/smartkasir/pos-backend/pkg/config"
	"github.com/smartkasir/pos-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var (
	errServerKeyRequired = errors.New("midtrans server key is required")
	errInvalidEnv        = fmt.Errorf("midtrans environment must be %q or %q", sandboxEnv, productionEnv)
)

// Client wraps the Snap API client plus env-specific metadata.
type Client struct {
	snap        snap.Client
	environment string
	maxRetries  uint64
}

// NewClient initializes the Snap client once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.MidtransConfig, logg *logger.Logger) (*Client, error) {
	env, midtransEnv, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	serverKey := strings.TrimSpace(cfg.ServerKey)
	if serverKey == "" {
		return nil, errServerKeyRequired
	}

	var s snap.Client
	s.New(serverKey, midtransEnv)

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("midtrans snap client initialized (%s)", env))
	}

	return &Client{
		snap:        s,
		environment: env,
		maxRetries:  cfg.MaxRetries,
	}, nil
}

// Environment reports the normalized Midtrans environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// CreateCheckoutSession creates a Snap transaction and returns the hosted
// payment page URL. Transient API failures are retried with backoff.
func (c *Client) CreateCheckoutSession(ctx context.Context, orderID string, amount decimal.Decimal) (string, error) {
	if c == nil {
		return "", errors.New("midtrans client not initialized")
	}
	if strings.TrimSpace(orderID) == "" {
		return "", errors.New("order id is required")
	}
	if amount.Sign() <= 0 {
		return "", fmt.Errorf("amount must be positive, got %s", amount)
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: amount.Round(0).IntPart(),
		},
	}

	var redirectURL string
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, snapErr := c.snap.CreateTransaction(req)
		if snapErr != nil {
			if snapErr.StatusCode == 0 || snapErr.StatusCode >= 500 {
				return retry.RetryableError(snapErr)
			}
			return snapErr
		}
		if resp == nil || resp.RedirectURL == "" {
			return errors.New("snap response missing redirect url")
		}
		redirectURL = resp.RedirectURL
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("creating snap transaction %q: %w", orderID, err)
	}

	return redirectURL, nil
}

func normalizeEnv(env string) (string, midtrans.EnvironmentType, error) {
	switch env {
	case sandboxEnv:
		return sandboxEnv, midtrans.Sandbox, nil
	case productionEnv:
		return productionEnv, midtrans.Production, nil
	default:
		return "", midtrans.Sandbox, errInvalidEnv
	}
}
