package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/vendora/vendora/store"
)

func (d *DB) CreateProduct(ctx context.Context, create *store.Product) (*store.Product, error) {
	fields := []string{"uid", "vendor_id", "category", "title", "description", "price_cents", "currency", "stock"}
	args := []any{
		create.UID, create.VendorID, create.Category, create.Title,
		create.Description, create.PriceCents, create.Currency, create.Stock,
	}

	stmt := `INSERT INTO product (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts, updated_ts, row_status`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
		&create.RowStatus,
	); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return create, nil
}

func (d *DB) ListProducts(ctx context.Context, find *store.FindProduct) ([]*store.Product, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "product.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "product.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.VendorID; v != nil {
		where, args = append(where, "product.vendor_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Category; v != nil {
		where, args = append(where, "product.category = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.RowStatus; v != nil {
		where, args = append(where, "product.row_status = "+placeholder(len(args)+1)), append(args, v.String())
	}
	if v := find.IDs; len(v) > 0 {
		holders := []string{}
		for _, id := range v {
			holders = append(holders, placeholder(len(args)+1))
			args = append(args, id)
		}
		where = append(where, "product.id IN ("+strings.Join(holders, ", ")+")")
	}

	query := `
		SELECT
			id, uid, row_status, created_ts, updated_ts,
			vendor_id, category, title, description, price_cents, currency, stock
		FROM product
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY product.id DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Product, 0)
	for rows.Next() {
		product := &store.Product{}
		if err := rows.Scan(
			&product.ID,
			&product.UID,
			&product.RowStatus,
			&product.CreatedTs,
			&product.UpdatedTs,
			&product.VendorID,
			&product.Category,
			&product.Title,
			&product.Description,
			&product.PriceCents,
			&product.Currency,
			&product.Stock,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		list = append(list, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateProduct(ctx context.Context, update *store.UpdateProduct) (*store.Product, error) {
	set, args := []string{"updated_ts = strftime('%s', 'now')"}, []any{}

	if v := update.RowStatus; v != nil {
		set, args = append(set, "row_status = "+placeholder(len(args)+1)), append(args, v.String())
	}
	if v := update.Category; v != nil {
		set, args = append(set, "category = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Description; v != nil {
		set, args = append(set, "description = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.PriceCents; v != nil {
		set, args = append(set, "price_cents = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Currency; v != nil {
		set, args = append(set, "currency = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Stock; v != nil {
		set, args = append(set, "stock = "+placeholder(len(args)+1)), append(args, *v)
	}
	args = append(args, update.ID)

	stmt := `UPDATE product SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, row_status, created_ts, updated_ts,
			vendor_id, category, title, description, price_cents, currency, stock`

	product := &store.Product{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&product.ID,
		&product.UID,
		&product.RowStatus,
		&product.CreatedTs,
		&product.UpdatedTs,
		&product.VendorID,
		&product.Category,
		&product.Title,
		&product.Description,
		&product.PriceCents,
		&product.Currency,
		&product.Stock,
	); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

func (d *DB) DeleteProduct(ctx context.Context, delete *store.DeleteProduct) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM product WHERE id = ?`, delete.ID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}
