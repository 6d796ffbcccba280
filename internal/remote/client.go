package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"stocktake/internal"
	"stocktake/internal/config"
)

// Client talks to the Alegra-style bookkeeping API: item lookup and
// inventory adjustment submission. It never retries; a failed call surfaces
// to the operator, who may retry by confirming again.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	log        *logrus.Logger
}

type itemResponse struct {
	ID        json.Number `json:"id"`
	Name      string      `json:"name"`
	Inventory struct {
		AvailableQuantity json.Number `json:"availableQuantity"`
		UnitCost          json.Number `json:"unitCost"`
	} `json:"inventory"`
	Price []struct {
		Price json.Number `json:"price"`
	} `json:"price"`
}

type adjustmentRequest struct {
	Date      string          `json:"date"`
	Warehouse warehouseRef    `json:"warehouse"`
	Items     []adjustmentRow `json:"items"`
}

type warehouseRef struct {
	ID string `json:"id"`
}

type adjustmentRow struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Quantity float64 `json:"quantity"`
	UnitCost float64 `json:"unitCost"`
}

func NewClient(cfg config.Config, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.New()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.RemoteTimeoutMs) * time.Millisecond},
		log:        log,
	}
}

// GetItem fetches the remote snapshot for one item. Absent numeric fields
// come back as 0, never as an error.
func (c *Client) GetItem(ctx context.Context, externalID string) (internal.ItemSnapshot, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return internal.ItemSnapshot{}, errors.New("empty external id")
	}

	body, err := c.do(ctx, http.MethodGet, "items/"+externalID, nil)
	if err != nil {
		return internal.ItemSnapshot{}, err
	}

	var item itemResponse
	if err := json.Unmarshal(body, &item); err != nil {
		return internal.ItemSnapshot{}, fmt.Errorf("decode item %s: %w", externalID, err)
	}

	snapshot := internal.ItemSnapshot{
		ExternalID:        externalID,
		Name:              item.Name,
		AvailableQuantity: numberOrZero(item.Inventory.AvailableQuantity),
		UnitCost:          numberOrZero(item.Inventory.UnitCost),
	}
	if len(item.Price) > 0 {
		snapshot.UnitPrice = numberOrZero(item.Price[0].Price)
	}
	if item.Inventory.AvailableQuantity == "" {
		c.log.WithField("item", externalID).Warn("remote item reports no available quantity, treating stock as zero")
	}
	return snapshot, nil
}

// SubmitAdjustment posts one signed stock adjustment. Any non-2xx status or
// transport failure is an error; nothing is retried.
func (c *Client) SubmitAdjustment(ctx context.Context, adj internal.Adjustment) error {
	payload := adjustmentRequest{
		Date:      time.Now().Format("2006-01-02"),
		Warehouse: warehouseRef{ID: c.cfg.WarehouseID},
		Items: []adjustmentRow{{
			ID:       adj.ExternalID,
			Type:     string(adj.Type),
			Quantity: adj.Quantity,
			UnitCost: adj.UnitCost,
		}},
	}

	blob, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, http.MethodPost, "inventory-adjustments", blob); err != nil {
		return err
	}

	c.log.WithFields(logrus.Fields{
		"item":     adj.ExternalID,
		"type":     adj.Type,
		"quantity": adj.Quantity,
	}).Info("inventory adjustment submitted")
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	if strings.TrimSpace(c.cfg.AlegraAPIKey) == "" {
		return nil, errors.New("missing ALEGRA_API_KEY")
	}

	url := strings.TrimRight(c.cfg.AlegraBaseURL, "/") + "/" + endpoint

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Basic "+c.cfg.AlegraAPIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alegra request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("alegra response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("alegra api error: status=%d body=%s", resp.StatusCode, truncate(respBody, 512))
	}
	return respBody, nil
}

func numberOrZero(n json.Number) float64 {
	if n == "" {
		return 0
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return f
}

func truncate(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
