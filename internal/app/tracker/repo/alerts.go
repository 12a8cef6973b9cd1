package repo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAlertNotFound = errors.New("price alert not found")

// PriceAlert 是用户订阅的降价提醒。
// 目前只做存取，轮询比价由单独的 worker 实现。
type PriceAlert struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	Family      string    `json:"family"`
	Region      string    `json:"region"`
	TargetPrice int64     `json:"target_price_cents"` // 以“分”存储，避免浮点
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

type AlertsRepo struct {
	db *pgxpool.Pool
}

func NewAlertsRepo(db *pgxpool.Pool) *AlertsRepo {
	return &AlertsRepo{db: db}
}

func (a *AlertsRepo) Create(ctx context.Context, userID int64, alert PriceAlert) (int64, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var id int64
	err := a.db.QueryRow(dbctx,
		`INSERT INTO price_alerts (user_id,url,family,region,target_price_cents,currency) VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		userID, alert.URL, alert.Family, alert.Region, alert.TargetPrice, alert.Currency,
	).Scan(&id)
	if err != nil {
		slog.Error(err.Error())
		return -1, err
	}
	return id, nil
}

func (a *AlertsRepo) ListByUserID(ctx context.Context, userID int64, limit int) ([]PriceAlert, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := a.db.Query(dbctx,
		`SELECT id,url,family,region,target_price_cents,currency,created_at FROM price_alerts WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var result []PriceAlert
	for rows.Next() {
		var item PriceAlert
		if err := rows.Scan(&item.ID, &item.URL, &item.Family, &item.Region, &item.TargetPrice, &item.Currency, &item.CreatedAt); err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (a *AlertsRepo) FindByID(ctx context.Context, userID, id int64) (*PriceAlert, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	var item PriceAlert
	err := a.db.QueryRow(dbctx,
		`SELECT id,url,family,region,target_price_cents,currency,created_at FROM price_alerts WHERE id=$1 AND user_id=$2`,
		id, userID,
	).Scan(&item.ID, &item.URL, &item.Family, &item.Region, &item.TargetPrice, &item.Currency, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlertNotFound
		}
		slog.Error(err.Error())
		return nil, err
	}
	return &item, nil
}

func (a *AlertsRepo) Delete(ctx context.Context, userID, id int64) error {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	tag, err := a.db.Exec(dbctx, "DELETE FROM price_alerts WHERE id=$1 AND user_id=$2", id, userID)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}
