package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// salesChunkDays bounds the date range of a single sales query so page
// counts stay manageable on busy stores.
const salesChunkDays = 30

const salesQuery = `
query Orders($limit: Int!, $page: Int!, $from: DateTimeTz!, $to: DateTimeTz!) {
    orders(limit: $limit, page: $page, where: { orderDate: { from: $from, to: $to } }) {
        orderDate
        status
        lines {
            productVariant {
                product {
                    id
                    name
                }
            }
            size
            quantity
        }
    }
}`

const shippedSalesQuery = `
query Orders($limit: Int!, $page: Int!, $from: DateTimeTz!, $to: DateTimeTz!) {
    orders(limit: $limit, page: $page, where: { orderDate: { from: $from, to: $to }, status: [SHIPPED] }) {
        orderDate
        status
        lines {
            productVariant {
                product {
                    id
                    name
                }
            }
            size
            quantity
        }
    }
}`

// FetchSales returns every sold order line in the inclusive [from, to] date
// window. The window is split into chunks fetched concurrently; results are
// merged in chronological chunk order. Any failed page aborts the fetch.
func (c *Client) FetchSales(ctx context.Context, from, to time.Time, onlyShipped bool) ([]SaleLine, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("commerce: sales window ends before it starts")
	}

	type chunk struct{ from, to time.Time }
	var chunks []chunk
	for start := from; !start.After(to); start = start.AddDate(0, 0, salesChunkDays) {
		end := start.AddDate(0, 0, salesChunkDays-1)
		if end.After(to) {
			end = to
		}
		chunks = append(chunks, chunk{from: start, to: end})
	}

	results := make([][]SaleLine, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, ch := range chunks {
		i, ch := i, ch
		g.Go(func() error {
			lines, err := c.fetchSalesChunk(gctx, ch.from, ch.to, onlyShipped)
			if err != nil {
				return err
			}
			results[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var sales []SaleLine
	for _, lines := range results {
		sales = append(sales, lines...)
	}
	return sales, nil
}

func (c *Client) fetchSalesChunk(ctx context.Context, from, to time.Time, onlyShipped bool) ([]SaleLine, error) {
	document := salesQuery
	if onlyShipped {
		document = shippedSalesQuery
	}

	type wireOrder struct {
		Status string `json:"status"`
		Lines  []struct {
			ProductVariant *struct {
				Product *struct {
					ID json.Number `json:"id"`
				} `json:"product"`
			} `json:"productVariant"`
			Size     string `json:"size"`
			Quantity int    `json:"quantity"`
		} `json:"lines"`
	}

	var sales []SaleLine
	for page := 1; ; page++ {
		var data struct {
			Orders []wireOrder `json:"orders"`
		}
		vars := map[string]any{
			"limit": c.pageSize,
			"page":  page,
			"from":  from.Format("2006-01-02") + "T00:00:00Z",
			"to":    to.Format("2006-01-02") + "T23:59:59Z",
		}
		if err := c.query(ctx, document, vars, &data); err != nil {
			return nil, fmt.Errorf("sales %s..%s page %d: %w", from.Format("2006-01-02"), to.Format("2006-01-02"), page, err)
		}
		if len(data.Orders) == 0 {
			break
		}
		for _, order := range data.Orders {
			if onlyShipped && order.Status != "SHIPPED" {
				continue
			}
			for _, line := range order.Lines {
				if line.ProductVariant == nil || line.ProductVariant.Product == nil {
					continue
				}
				quantity := line.Quantity
				if quantity == 0 {
					quantity = 1
				}
				sales = append(sales, SaleLine{
					ProductID: normalizeID(line.ProductVariant.Product.ID.String()),
					Size:      normalizeSize(line.Size),
					Quantity:  quantity,
				})
			}
		}
		if len(data.Orders) < c.pageSize {
			break
		}
	}
	return sales, nil
}
