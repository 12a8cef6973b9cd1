package repo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"deal.local/internal/app/affiliate"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTagNotFound = errors.New("affiliate tag not found")

// TagRow 是 affiliate_tags 表的一行。
type TagRow struct {
	Family    string    `json:"family"`
	Region    string    `json:"region"`
	Tag       string    `json:"tag"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TagsRepo struct {
	db *pgxpool.Pool
}

func NewTagsRepo(db *pgxpool.Pool) *TagsRepo {
	return &TagsRepo{db: db}
}

func (t *TagsRepo) List(ctx context.Context) ([]TagRow, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := t.db.Query(dbctx, "SELECT family,region,tag,updated_at FROM affiliate_tags ORDER BY family,region")
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var result []TagRow
	for rows.Next() {
		var row TagRow
		if err := rows.Scan(&row.Family, &row.Region, &row.Tag, &row.UpdatedAt); err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Upsert 写入或更新单条标签配置。
func (t *TagsRepo) Upsert(ctx context.Context, family, region, tag string) error {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := t.db.Exec(dbctx, `INSERT INTO affiliate_tags (family,region,tag) VALUES ($1,$2,$3)
		ON CONFLICT (family,region) DO UPDATE SET tag=EXCLUDED.tag, updated_at=now()`, family, region, tag)
	if err != nil {
		slog.Error(err.Error())
	}
	return err
}

func (t *TagsRepo) Delete(ctx context.Context, family, region string) error {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := t.db.Exec(dbctx, "DELETE FROM affiliate_tags WHERE family=$1 AND region=$2", family, region)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTagNotFound
	}
	return nil
}

// LoadRegistry 把表里的标签装配成只读 Registry。
// 空表返回空 Registry（所有家族都 not configured），不算错误。
func (t *TagsRepo) LoadRegistry(ctx context.Context) (*affiliate.Registry, error) {
	rows, err := t.List(ctx)
	if err != nil {
		return nil, err
	}

	cfg := make(map[affiliate.Family]map[affiliate.RegionKey]string)
	for _, row := range rows {
		family := affiliate.Family(row.Family)
		region, ok := affiliate.NormalizeRegion(row.Region)
		if !ok {
			slog.Warn("skip tag with unknown region", "family", row.Family, "region", row.Region)
			continue
		}
		if cfg[family] == nil {
			cfg[family] = make(map[affiliate.RegionKey]string)
		}
		cfg[family][region] = row.Tag
	}
	return affiliate.NewRegistry(cfg), nil
}
