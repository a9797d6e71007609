package upstream

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

// DecodeProductList decodes a product list payload. Both the paginated
// envelope ({"products":[...],"total":...}) and a bare array are accepted.
func DecodeProductList(d *jx.Decoder) ([]product.Product, error) {
	var out []product.Product
	decodeArr := func(d *jx.Decoder) error {
		return d.Arr(func(d *jx.Decoder) error {
			p, err := DecodeProduct(d)
			if err != nil {
				return err
			}
			out = append(out, p)
			return nil
		})
	}

	switch d.Next() {
	case jx.Array:
		if err := decodeArr(d); err != nil {
			return nil, err
		}
	case jx.Object:
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			if key == "products" {
				return decodeArr(d)
			}
			return d.Skip()
		}); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("unexpected %s for product list", d.Next())
	}
	return out, nil
}

// DecodeProduct decodes a single product object. Unknown fields are skipped.
func DecodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Int()
		case "title":
			p.Title, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "category":
			p.Category, err = d.Str()
		case "brand":
			p.Brand, err = optStr(d)
		case "price":
			p.Price, err = decodeDecimal(d)
		case "discountPercentage":
			p.DiscountPercentage, err = d.Float64()
		case "rating":
			p.Rating, err = d.Float64()
		case "stock":
			p.Stock, err = d.Int()
		case "tags":
			p.Tags, err = strArr(d)
		case "thumbnail":
			p.Thumbnail, err = optStr(d)
		case "images":
			p.Images, err = strArr(d)
		case "weight":
			p.Details.Weight, err = rawScalar(d)
		case "dimensions":
			p.Details.Dimensions, err = decodeDimensions(d)
		case "warrantyInformation":
			p.Details.Warranty, err = optStr(d)
		case "shippingInformation":
			p.Details.Shipping, err = optStr(d)
		case "returnPolicy":
			p.Details.ReturnPolicy, err = optStr(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return product.Product{}, err
	}
	if p.Price.IsNegative() {
		return product.Product{}, errors.Errorf("product %d: negative price %s", p.ID, p.Price)
	}
	return p, nil
}

// DecodeCategories decodes a category list. Entries may be objects
// ({"slug","name","url"}) or plain slug strings.
func DecodeCategories(d *jx.Decoder) ([]product.Category, error) {
	var out []product.Category
	err := d.Arr(func(d *jx.Decoder) error {
		if d.Next() == jx.String {
			slug, err := d.Str()
			if err != nil {
				return err
			}
			out = append(out, product.Category{Slug: slug, Name: slug})
			return nil
		}

		var c product.Category
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "slug":
				c.Slug, err = d.Str()
			case "name":
				c.Name, err = d.Str()
			case "url":
				c.URL, err = d.Str()
			default:
				err = d.Skip()
			}
			if err != nil {
				return errors.Wrap(err, key)
			}
			return nil
		}); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func optStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

func strArr(d *jx.Decoder) ([]string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	var out []string
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	s, err := rawScalar(d)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(s)
}

// rawScalar returns a number or string value as written in the payload.
func rawScalar(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return string(n), nil
	case jx.String:
		return d.Str()
	case jx.Null:
		return "", d.Null()
	default:
		return "", errors.Errorf("unexpected %s", d.Next())
	}
}

func decodeDimensions(d *jx.Decoder) (string, error) {
	if d.Next() != jx.Object {
		return rawScalar(d)
	}
	var width, height, depth string
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "width":
			width, err = rawScalar(d)
		case "height":
			height, err = rawScalar(d)
		case "depth":
			depth, err = rawScalar(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return "", err
	}
	var parts []string
	for _, v := range []string{width, height, depth} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " x "), nil
}
