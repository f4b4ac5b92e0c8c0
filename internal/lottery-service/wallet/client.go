package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	walletdto "github.com/radieske/lottery-platform-poc/internal/lottery-service/wallet/dto"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

// Reserve bloqueia amount na carteira do usuário, idempotente por externalRef.
func (c *Client) Reserve(ctx context.Context, userID string, cents int64, externalRef string) (string, error) {
	var out walletdto.ReserveResponse
	err := c.post(ctx, "/wallet/reserve", walletdto.ReserveRequest{
		UserID: userID, AmountCents: cents, ExternalRef: externalRef,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.ReservationID, nil
}

// Commit efetiva uma reserva: a stake entra em custódia do pote.
func (c *Client) Commit(ctx context.Context, userID, externalRef string) error {
	return c.post(ctx, "/wallet/commit", walletdto.CommitRequest{
		UserID: userID, ExternalRef: externalRef,
	}, nil)
}

// Refund desfaz uma reserva pendente.
func (c *Client) Refund(ctx context.Context, userID, externalRef string) error {
	return c.post(ctx, "/wallet/refund", walletdto.RefundRequest{
		UserID: userID, ExternalRef: externalRef,
	}, nil)
}

// Payout credita o prêmio na carteira do vencedor, idempotente por externalRef:
// repetir a chamada com a mesma ref nunca paga duas vezes.
func (c *Client) Payout(ctx context.Context, userID string, cents int64, externalRef string) (string, error) {
	var out walletdto.PayoutResponse
	err := c.post(ctx, "/wallet/payout", walletdto.PayoutRequest{
		UserID: userID, AmountCents: cents, ExternalRef: externalRef,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.PayoutID, nil
}

func (c *Client) post(ctx context.Context, path string, in any, out any) error {
	body, _ := json.Marshal(in)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("wallet %s http %d", path, res.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
