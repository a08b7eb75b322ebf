package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const currentStockQuery = `
query ProductStocks($productId: [Int!]!) {
    warehouses {
        stock(where: { productId: $productId }) {
            productSize {
                quantity
                size {
                    name
                }
                productVariant {
                    product {
                        id
                        name
                    }
                }
            }
        }
    }
}`

// FetchCurrentStock returns the live on-hand quantity for one product/size,
// summed across warehouses. Sizes that do not match contribute nothing; an
// unknown size yields zero.
func (c *Client) FetchCurrentStock(ctx context.Context, productID, size string) (int, error) {
	numericID, err := strconv.Atoi(strings.TrimSpace(productID))
	if err != nil {
		return 0, fmt.Errorf("commerce: product id %q is not numeric: %w", productID, err)
	}

	var data struct {
		Warehouses []struct {
			Stock []struct {
				ProductSize struct {
					Quantity int `json:"quantity"`
					Size     *struct {
						Name string `json:"name"`
					} `json:"size"`
					ProductVariant struct {
						Product struct {
							ID json.Number `json:"id"`
						} `json:"product"`
					} `json:"productVariant"`
				} `json:"productSize"`
			} `json:"stock"`
		} `json:"warehouses"`
	}
	vars := map[string]any{"productId": []int{numericID}}
	if err := c.query(ctx, currentStockQuery, vars, &data); err != nil {
		return 0, err
	}

	want := normalizeSize(size)
	total := 0
	for _, warehouse := range data.Warehouses {
		for _, entry := range warehouse.Stock {
			name := NoSize
			if entry.ProductSize.Size != nil {
				name = normalizeSize(entry.ProductSize.Size.Name)
			}
			if name == want {
				total += entry.ProductSize.Quantity
			}
		}
	}
	if total == 0 {
		c.logger.Debug("commerce: no stock for size", "product_id", productID, "size", size)
	}
	return total, nil
}
