package laptophub

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/mmcdole/laptophub/internal/domain"
)

// ParseCart decodes a cart response. The body may be a bare array of lines
// or an object with an "items" array; an object without items is an empty
// cart. A missing total is computed from the lines.
func ParseCart(body []byte) (*domain.Cart, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to parse response: invalid json")
	}
	root := gjson.ParseBytes(body)

	var lines gjson.Result
	switch {
	case root.IsArray():
		lines = root
	case root.IsObject() && root.Get("items").IsArray():
		lines = root.Get("items")
	}

	cart := &domain.Cart{Items: []domain.CartItem{}}
	lines.ForEach(func(_, v gjson.Result) bool {
		cart.Items = append(cart.Items, mapCartItem(v))
		return true
	})

	if total := root.Get("total"); root.IsObject() && total.Exists() && total.Type != gjson.Null {
		d, err := decimal.NewFromString(total.String())
		if err != nil {
			return nil, fmt.Errorf("failed to parse cart total %q: %w", total.String(), err)
		}
		cart.Total = d
	} else {
		cart.Total = sumItems(cart.Items)
	}

	return cart, nil
}

func mapCartItem(v gjson.Result) domain.CartItem {
	item := domain.CartItem{
		ID:        v.Get("id").Int(),
		Name:      firstString(v, itemNamePaths),
		UnitPrice: firstDecimal(v, itemPricePaths),
		Quantity:  int(firstInt(v, itemQuantityPaths)),
		ImageURL:  firstString(v, itemImagePaths),
	}

	if p := v.Get("product"); p.IsObject() && p.Get("id").Exists() {
		item.Product = &domain.ProductRef{
			ID:   p.Get("id").Int(),
			Name: firstString(p, productNamePaths),
		}
	}
	if pid := v.Get("productId"); pid.Exists() {
		item.ProductID = pid.Int()
	}

	return item
}

func sumItems(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ParseProduct decodes a product detail response
func ParseProduct(body []byte) (*domain.Product, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to parse response: invalid json")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() || !root.Get("id").Exists() {
		return nil, fmt.Errorf("failed to parse response: missing product id")
	}

	p := &domain.Product{
		ID:          root.Get("id").Int(),
		Name:        firstString(root, productNamePaths),
		Brand:       firstString(root, productBrandPaths),
		Description: firstString(root, productDescPaths),
		Price:       firstDecimal(root, productPricePaths),
		Stock:       int(root.Get("stock").Int()),
	}

	for _, path := range productImagesPaths {
		images := root.Get(path)
		if !images.IsArray() {
			continue
		}
		images.ForEach(func(_, img gjson.Result) bool {
			p.Images = append(p.Images, domain.ProductImage{
				URL:         img.Get("url").String(),
				Description: firstString(img, imageDescPaths),
				Order:       int(firstInt(img, imageOrderPaths)),
			})
			return true
		})
		break
	}
	sort.SliceStable(p.Images, func(i, j int) bool {
		return p.Images[i].Order < p.Images[j].Order
	})

	return p, nil
}

// === gjson helpers ===

func first(v gjson.Result, paths []string) gjson.Result {
	for _, path := range paths {
		if r := v.Get(path); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

func firstString(v gjson.Result, paths []string) string {
	return first(v, paths).String()
}

func firstInt(v gjson.Result, paths []string) int64 {
	return first(v, paths).Int()
}

func firstDecimal(v gjson.Result, paths []string) decimal.Decimal {
	r := first(v, paths)
	if !r.Exists() {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(r.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
