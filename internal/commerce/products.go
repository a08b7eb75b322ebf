package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

const suppliersQuery = `
query Suppliers {
    suppliers {
        id
        name
        status
    }
}`

const supplierVariantsQuery = `
query SupplierVariants($id: Int!, $limit: Int!, $page: Int!) {
    supplier(id: $id) {
        suppliedProductVariants(limit: $limit, page: $page) {
            productVariant {
                product {
                    id
                    name
                    status
                    productNumber
                    isBundle
                }
                productSizes {
                    stock {
                        productSize {
                            description
                            quantity
                        }
                    }
                }
            }
        }
    }
}`

const productCostsQuery = `
query AllProductCosts($limit: Int!, $page: Int!) {
    products(limit: $limit, page: $page) {
        id
        productNumber
        variants {
            unitCost {
                value
            }
        }
    }
}`

const collectionsQuery = `
query Collections {
    collections {
        name
        products {
            id
        }
    }
}`

const warehouseStockQuery = `
query ProductStocks($limit: Int!, $page: Int!) {
    warehouses {
        stock(limit: $limit, page: $page) {
            productSize {
                quantity
                size {
                    name
                }
                productVariant {
                    product {
                        id
                        name
                        status
                        productNumber
                        isBundle
                    }
                }
            }
        }
    }
}`

type wireProduct struct {
	ID            json.Number `json:"id"`
	Name          string      `json:"name"`
	Status        string      `json:"status"`
	ProductNumber string      `json:"productNumber"`
	IsBundle      bool        `json:"isBundle"`
}

// FetchSuppliers lists all suppliers.
func (c *Client) FetchSuppliers(ctx context.Context) ([]Supplier, error) {
	var data struct {
		Suppliers []struct {
			ID     json.Number `json:"id"`
			Name   string      `json:"name"`
			Status string      `json:"status"`
		} `json:"suppliers"`
	}
	if err := c.query(ctx, suppliersQuery, nil, &data); err != nil {
		return nil, err
	}
	suppliers := make([]Supplier, 0, len(data.Suppliers))
	for _, s := range data.Suppliers {
		id, err := s.ID.Int64()
		if err != nil {
			c.logger.Warn("commerce: skipping supplier with non-numeric id", "id", s.ID)
			continue
		}
		suppliers = append(suppliers, Supplier{ID: int(id), Name: s.Name, Status: s.Status})
	}
	return suppliers, nil
}

// FetchSupplierVariants pages through the product variants a supplier
// delivers, flattened to one record per (product, size).
func (c *Client) FetchSupplierVariants(ctx context.Context, supplierID int) ([]Variant, error) {
	type wireVariant struct {
		ProductVariant struct {
			Product      wireProduct `json:"product"`
			ProductSizes []struct {
				Stock []struct {
					ProductSize struct {
						Description string `json:"description"`
						Quantity    int    `json:"quantity"`
					} `json:"productSize"`
				} `json:"stock"`
			} `json:"productSizes"`
		} `json:"productVariant"`
	}

	var variants []Variant
	for page := 1; ; page++ {
		var data struct {
			Supplier struct {
				SuppliedProductVariants []wireVariant `json:"suppliedProductVariants"`
			} `json:"supplier"`
		}
		vars := map[string]any{"id": supplierID, "limit": c.pageSize, "page": page}
		if err := c.query(ctx, supplierVariantsQuery, vars, &data); err != nil {
			return nil, fmt.Errorf("supplier %d page %d: %w", supplierID, page, err)
		}
		fetched := data.Supplier.SuppliedProductVariants
		if len(fetched) == 0 {
			break
		}
		for _, v := range fetched {
			product := v.ProductVariant.Product
			base := Variant{
				ProductID:     normalizeID(product.ID.String()),
				ProductName:   product.Name,
				ProductNumber: product.ProductNumber,
				Status:        product.Status,
				IsBundle:      product.IsBundle,
			}
			if len(v.ProductVariant.ProductSizes) == 0 {
				sized := base
				sized.Size = NoSize
				variants = append(variants, sized)
				continue
			}
			for _, sizeEntry := range v.ProductVariant.ProductSizes {
				for _, stock := range sizeEntry.Stock {
					sized := base
					sized.Size = normalizeSize(stock.ProductSize.Description)
					sized.StockQuantity = stock.ProductSize.Quantity
					variants = append(variants, sized)
				}
			}
		}
		if len(fetched) < c.pageSize {
			break
		}
	}
	return variants, nil
}

// FetchProductCosts pages through all products and returns the unit cost of
// each product's first variant.
func (c *Client) FetchProductCosts(ctx context.Context) (map[string]decimal.Decimal, error) {
	costs := make(map[string]decimal.Decimal)
	for page := 1; ; page++ {
		var data struct {
			Products []struct {
				ID       json.Number `json:"id"`
				Variants []struct {
					UnitCost *struct {
						Value decimal.Decimal `json:"value"`
					} `json:"unitCost"`
				} `json:"variants"`
			} `json:"products"`
		}
		vars := map[string]any{"limit": c.pageSize, "page": page}
		if err := c.query(ctx, productCostsQuery, vars, &data); err != nil {
			return nil, fmt.Errorf("product costs page %d: %w", page, err)
		}
		if len(data.Products) == 0 {
			break
		}
		for _, p := range data.Products {
			value := decimal.Zero
			if len(p.Variants) > 0 && p.Variants[0].UnitCost != nil {
				value = p.Variants[0].UnitCost.Value
			}
			costs[normalizeID(p.ID.String())] = value
		}
		if len(data.Products) < c.pageSize {
			break
		}
	}
	return costs, nil
}

// FetchCollections maps each product to the set of collections it belongs to.
func (c *Client) FetchCollections(ctx context.Context) (map[string][]string, error) {
	var data struct {
		Collections []struct {
			Name     string `json:"name"`
			Products []struct {
				ID json.Number `json:"id"`
			} `json:"products"`
		} `json:"collections"`
	}
	if err := c.query(ctx, collectionsQuery, nil, &data); err != nil {
		return nil, err
	}
	memberships := make(map[string]map[string]struct{})
	for _, coll := range data.Collections {
		for _, p := range coll.Products {
			id := normalizeID(p.ID.String())
			if memberships[id] == nil {
				memberships[id] = make(map[string]struct{})
			}
			memberships[id][coll.Name] = struct{}{}
		}
	}
	result := make(map[string][]string, len(memberships))
	for id, set := range memberships {
		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)
		result[id] = names
	}
	return result, nil
}

// FetchProducts merges supplier catalogs, warehouse stock, unit costs, and
// collection memberships into one ProductStock row per (ProductID, Size).
// Warehouse rows without a supplying catalog entry are kept under the
// NoSupplier placeholder so stock on hand is never dropped.
func (c *Client) FetchProducts(ctx context.Context) ([]ProductStock, error) {
	suppliers, err := c.FetchSuppliers(ctx)
	if err != nil {
		return nil, err
	}

	type key struct{ productID, size string }
	merged := make(map[key]*ProductStock)

	for _, supplier := range suppliers {
		variants, err := c.FetchSupplierVariants(ctx, supplier.ID)
		if err != nil {
			return nil, err
		}
		if len(variants) == 0 {
			c.logger.Info("commerce: supplier has no variants", "supplier", supplier.Name)
			continue
		}
		for _, v := range variants {
			k := key{v.ProductID, v.Size}
			row, ok := merged[k]
			if !ok {
				row = &ProductStock{
					ProductID:     v.ProductID,
					ProductNumber: v.ProductNumber,
					ProductName:   v.ProductName,
					Supplier:      supplier.Name,
					Status:        v.Status,
					IsBundle:      v.IsBundle,
					Size:          v.Size,
				}
				merged[k] = row
			}
			row.StockBalance += v.StockQuantity
		}
	}

	if err := c.mergeWarehouseStock(ctx, func(p wireProduct, size string, quantity int) {
		k := key{normalizeID(p.ID.String()), size}
		if row, ok := merged[k]; ok {
			row.StockBalance += quantity
			return
		}
		merged[k] = &ProductStock{
			ProductID:     k.productID,
			ProductNumber: p.ProductNumber,
			ProductName:   p.Name,
			Supplier:      NoSupplier,
			Status:        p.Status,
			IsBundle:      p.IsBundle,
			Size:          size,
			StockBalance:  quantity,
		}
	}); err != nil {
		return nil, err
	}

	costs, err := c.FetchProductCosts(ctx)
	if err != nil {
		c.logger.Warn("commerce: product costs unavailable, defaulting to zero", "error", err)
		costs = map[string]decimal.Decimal{}
	}
	collections, err := c.FetchCollections(ctx)
	if err != nil {
		c.logger.Warn("commerce: collections unavailable", "error", err)
		collections = map[string][]string{}
	}

	products := make([]ProductStock, 0, len(merged))
	for _, row := range merged {
		row.PurchasePrice = costs[row.ProductID]
		row.Collections = collections[row.ProductID]
		products = append(products, *row)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].ProductID != products[j].ProductID {
			return products[i].ProductID < products[j].ProductID
		}
		return products[i].Size < products[j].Size
	})
	return products, nil
}

func (c *Client) mergeWarehouseStock(ctx context.Context, apply func(p wireProduct, size string, quantity int)) error {
	for page := 1; ; page++ {
		var data struct {
			Warehouses []struct {
				Stock []struct {
					ProductSize struct {
						Quantity int `json:"quantity"`
						Size     *struct {
							Name string `json:"name"`
						} `json:"size"`
						ProductVariant struct {
							Product wireProduct `json:"product"`
						} `json:"productVariant"`
					} `json:"productSize"`
				} `json:"stock"`
			} `json:"warehouses"`
		}
		vars := map[string]any{"limit": c.pageSize, "page": page}
		if err := c.query(ctx, warehouseStockQuery, vars, &data); err != nil {
			return fmt.Errorf("warehouse stock page %d: %w", page, err)
		}
		if len(data.Warehouses) == 0 {
			break
		}
		for _, warehouse := range data.Warehouses {
			for _, entry := range warehouse.Stock {
				size := NoSize
				if entry.ProductSize.Size != nil {
					size = normalizeSize(entry.ProductSize.Size.Name)
				}
				apply(entry.ProductSize.ProductVariant.Product, size, entry.ProductSize.Quantity)
			}
		}
		if len(data.Warehouses[0].Stock) < c.pageSize {
			break
		}
	}
	return nil
}
