package repo

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"deal.local/internal/app/tracker"
	"deal.local/internal/app/tracker/cache"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrLinkNotFound = errors.New("tracked link not found")
var ErrAlreadyDisabled = errors.New("tracked link already disabled")
var ErrCodeAlreadyExists = errors.New("tracked link code already exists")
var ErrURLAlreadyHasDifferentCode = errors.New("tracked link url already has different code")

// LinkMetaData 是查询单条链接时返回的元数据。
type LinkMetaData struct {
	URL       string    `json:"url"`
	TargetURL string    `json:"target_url"`
	Family    string    `json:"family"`
	Region    string    `json:"region"`
	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserLink struct {
	Code       string    `json:"code"`
	URL        string    `json:"url"`
	TargetURL  string    `json:"target_url"`
	Disabled   bool      `json:"disabled"`
	CreatedAt  time.Time `json:"created_at"`
	ClickCount int64     `json:"click_count"`
}

// ResolvedLink 是跳转路径上需要的最小信息。
// family/region 跟着 target 一起缓存，点击事件不用再查库。
type ResolvedLink struct {
	TargetURL string `json:"t"`
	Family    string `json:"f"`
	Region    string `json:"r"`
}

type LinksRepo struct {
	db    *pgxpool.Pool
	cache *cache.TargetCache
	bloom *cache.BloomFilter
}

func NewLinksRepo(db *pgxpool.Pool, cache *cache.TargetCache, bloom *cache.BloomFilter) *LinksRepo {
	return &LinksRepo{
		db:    db,
		cache: cache,
		bloom: bloom,
	}
}

/*
把原始 URL 和改写后的跳转目标保存到数据库，生成短码。
传入http请求的上下文c.Req.Context()
*/
func (s *LinksRepo) Create(ctx context.Context, url, targetURL, family, region string, createdBy *int64) (string, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	//开启事务
	tx, err := s.db.Begin(dbctx)
	if err != nil {
		slog.Error(err.Error())
		return "", err
	}
	defer tx.Rollback(dbctx) //事务提交成功后 rollback 会无效/返回错误，可忽略

	//插入 url 并获取 id；重复提交同一个 url 时刷新跳转目标（地区覆盖可能变了）
	var id int64
	var code string

	if err := tx.
		QueryRow(dbctx, `INSERT INTO tracked_links (url,target_url,family,region,disabled) VALUES ($1,$2,$3,$4,false)
			ON CONFLICT (url) DO UPDATE SET target_url=EXCLUDED.target_url, family=EXCLUDED.family, region=EXCLUDED.region, updated_at=now()
			RETURNING id, COALESCE(code,'')`, url, targetURL, family, region).
		Scan(&id, &code); err != nil {
		slog.Error(err.Error())
		return "", err
	}

	if code == "" {
		newCode, err := tracker.SqidsEncode(uint64(id))
		if err != nil {
			slog.Error(err.Error())
			return "", err
		}

		// 只在缺失时填充；如果别的事务已经填了就退回 SELECT。
		if err := tx.
			QueryRow(dbctx, "UPDATE tracked_links SET code=$1 WHERE id=$2 AND (code IS NULL OR code='') RETURNING code", newCode, id).
			Scan(&code); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				if err := tx.QueryRow(dbctx, "SELECT code FROM tracked_links WHERE id=$1", id).Scan(&code); err != nil {
					slog.Error(err.Error())
					return "", err
				}
			} else {
				slog.Error(err.Error())
				return "", err
			}
		}
	}

	if createdBy != nil {
		_, err := tx.Exec(dbctx, "INSERT INTO user_links (user_id,link_id) VALUES ($1,$2) ON CONFLICT DO NOTHING", *createdBy, id)
		if err != nil {
			slog.Error(err.Error())
			return "", err
		}
	}

	if err := tx.Commit(dbctx); err != nil {
		slog.Error(err.Error())
		return "", err
	}

	s.afterCreate(ctx, code, targetURL, family, region)
	return code, nil
}

// CreateWithCustomCode 创建跟踪链接，并尝试使用用户自定义 code。
//
// 行为约定：
// - code 已被占用：返回 ErrCodeAlreadyExists
// - url 已存在且 code 不同：返回 ErrURLAlreadyHasDifferentCode
// - url 已存在且 code 为空：会尝试把 code 更新为自定义 code
// - url 已存在且 code 相同：幂等返回该 code
func (s *LinksRepo) CreateWithCustomCode(ctx context.Context, url, targetURL, family, region, code string, createdBy *int64) (string, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := s.db.Begin(dbctx)
	if err != nil {
		slog.Error(err.Error())
		return "", err
	}
	defer tx.Rollback(dbctx)

	// 1) 尝试直接插入（url/code 都有唯一约束）
	var id int64
	var gotCode string
	err = tx.QueryRow(dbctx,
		`INSERT INTO tracked_links (url,target_url,family,region,code,disabled) VALUES ($1,$2,$3,$4,$5,false)
			ON CONFLICT (url) DO NOTHING RETURNING id, code`,
		url, targetURL, family, region, code,
	).Scan(&id, &gotCode)
	if err == nil {
		// 新行插入成功，使用了自定义 code
	} else if errors.Is(err, pgx.ErrNoRows) {
		// url 已存在，查出当前 code
		if err := tx.QueryRow(dbctx, "SELECT id, COALESCE(code,'') FROM tracked_links WHERE url=$1", url).Scan(&id, &gotCode); err != nil {
			slog.Error(err.Error())
			return "", err
		}
		if gotCode != "" && gotCode != code {
			return "", ErrURLAlreadyHasDifferentCode
		}
		if gotCode == "" {
			// 尝试填充缺失 code（可能会与其它短码冲突）
			if err := tx.QueryRow(dbctx,
				"UPDATE tracked_links SET code=$1 WHERE url=$2 AND (code IS NULL OR code='') RETURNING code",
				code, url,
			).Scan(&gotCode); err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == "23505" {
					return "", ErrCodeAlreadyExists
				}
				slog.Error(err.Error())
				return "", err
			}
		}
	} else {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// unique violation: code 冲突
			if strings.Contains(strings.ToLower(pgErr.ConstraintName), "code") {
				return "", ErrCodeAlreadyExists
			}
		}
		slog.Error(err.Error())
		return "", err
	}

	if createdBy != nil {
		_, err := tx.Exec(dbctx, "INSERT INTO user_links (user_id,link_id) VALUES ($1,$2) ON CONFLICT DO NOTHING", *createdBy, id)
		if err != nil {
			slog.Error(err.Error())
			return "", err
		}
	}

	if err := tx.Commit(dbctx); err != nil {
		slog.Error(err.Error())
		return "", err
	}

	s.afterCreate(ctx, gotCode, targetURL, family, region)
	return gotCode, nil
}

// afterCreate 写缓存/覆盖负缓存：创建成功后立刻写入，
// 避免此前命中 "__nil__" 导致短码暂时不可用。同时喂给布隆过滤器。
func (s *LinksRepo) afterCreate(ctx context.Context, code, targetURL, family, region string) {
	if code == "" {
		return
	}
	if s.bloom != nil {
		s.bloom.Add(code)
	}
	if s.cache != nil {
		cacheCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_ = s.cache.Set(cacheCtx, code, encodeResolved(ResolvedLink{TargetURL: targetURL, Family: family, Region: region}))
	}
}

func encodeResolved(r ResolvedLink) string {
	data, _ := json.Marshal(r)
	return string(data)
}

func decodeResolved(s string) (ResolvedLink, bool) {
	var r ResolvedLink
	if err := json.Unmarshal([]byte(s), &r); err != nil || r.TargetURL == "" {
		return ResolvedLink{}, false
	}
	return r, true
}

// Resolve 返回短码对应的跳转目标；不存在或已停用时返回零值。
func (s *LinksRepo) Resolve(ctx context.Context, code string) (ResolvedLink, bool) {
	//先查缓存
	if s.cache != nil {
		if v, _ := s.cache.Get(ctx, code); v != "" {
			if cache.IsNotFound(v) {
				return ResolvedLink{}, false //命中负缓存
			}
			if r, ok := decodeResolved(v); ok {
				return r, true
			}
		}
	}

	// 布隆过滤器说一定不存在，就不用打 DB 了
	if s.bloom != nil && !s.bloom.MightExist(code) {
		if s.cache != nil {
			s.cache.SetNotFound(ctx, code)
		}
		return ResolvedLink{}, false
	}

	//查数据库
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	row := s.db.QueryRow(dbctx, "SELECT target_url,family,region FROM tracked_links WHERE code=$1 AND disabled=false", code)
	var r ResolvedLink
	if err := row.Scan(&r.TargetURL, &r.Family, &r.Region); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if s.cache != nil {
				s.cache.SetNotFound(ctx, code)
			}
		} else {
			slog.Error(err.Error())
		}
		return ResolvedLink{}, false
	}

	//写缓存
	if s.cache != nil && r.TargetURL != "" {
		s.cache.Set(ctx, code, encodeResolved(r))
	}
	return r, true
}

func (s *LinksRepo) FindByCode(ctx context.Context, code string) (*LinkMetaData, error) {
	var data LinkMetaData
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	if err := s.db.
		QueryRow(dbctx, "SELECT url,target_url,family,region,disabled,created_at,updated_at FROM tracked_links WHERE code=$1", code).
		Scan(&data.URL, &data.TargetURL, &data.Family, &data.Region, &data.Disabled, &data.CreatedAt, &data.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		slog.Error(err.Error())
		return nil, err
	}
	return &data, nil
}

func (s *LinksRepo) DisableByCode(ctx context.Context, code string) error {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	// 先尝试停用当前启用的行。
	var ok int
	err := s.db.QueryRow(dbctx, "UPDATE tracked_links SET disabled=true, updated_at=now() WHERE code=$1 AND disabled=false RETURNING 1", code).Scan(&ok)
	if err == nil {
		if s.cache != nil {
			s.cache.Delete(ctx, code)
		}
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		slog.Error(err.Error())
		return err
	}

	// 没有行被更新：要么不存在，要么已停用。
	var disabled bool
	if err := s.db.QueryRow(dbctx, "SELECT disabled FROM tracked_links WHERE code=$1", code).Scan(&disabled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLinkNotFound
		}
		slog.Error(err.Error())
		return err
	}
	if disabled {
		return ErrAlreadyDisabled
	}

	return errors.New("tracked link disable failed")
}

func (u *LinksRepo) ListByUserID(ctx context.Context, userID int64, limit int) ([]UserLink, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := u.db.Query(dbctx, "SELECT l.code,l.url,l.target_url,l.disabled,l.click_count,ul.created_at FROM user_links ul JOIN tracked_links l ON l.id=ul.link_id WHERE ul.user_id=$1 ORDER BY ul.created_at DESC LIMIT $2", userID, limit)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var result []UserLink
	for rows.Next() {
		var item UserLink
		if err := rows.Scan(&item.Code, &item.URL, &item.TargetURL, &item.Disabled, &item.ClickCount, &item.CreatedAt); err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	return result, nil
}

func (u *LinksRepo) RemoveFromUserList(ctx context.Context, userID int64, code string) error {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := u.db.Exec(dbctx, `
          DELETE FROM user_links ul
          USING tracked_links l
          WHERE ul.user_id = $1
            AND ul.link_id = l.id
            AND l.code = $2
      `, userID, code)

	if err != nil {
		slog.Error(err.Error())
		return err
	}
	return nil
}

func (u *LinksRepo) UserOwnsLink(ctx context.Context, userID int64, code string) (bool, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	var exists bool
	err := u.db.QueryRow(dbctx, `SELECT EXISTS(
	SELECT 1 FROM user_links ul JOIN tracked_links l ON l.id=ul.link_id WHERE ul.user_id = $1 AND l.code = $2)`, userID, code).Scan(&exists)
	if err != nil {
		slog.Error(err.Error())
		return false, err
	}
	return exists, nil
}

type ClickStats struct {
	ID        int64     `json:"id"` //用于下一次查询的分页cursor
	ClickedAt time.Time `json:"clicked_at"`
	Referer   string    `json:"referer"`
	UserAgent string    `json:"user_agent"`
	Family    string    `json:"family"`
	Region    string    `json:"region"`
}

type StatsResponse struct {
	TotalClicks  uint64       `json:"total_clicks"`
	RecentClicks []ClickStats `json:"recent_clicks"`
	NextCursor   *int64       `json:"next_cursor,omitempty"`
}

func (u *LinksRepo) ListStatsByCode(ctx context.Context, code string, limit int, cursor int64) (*StatsResponse, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	//查总点击数
	var totalClicks uint64
	if err := u.db.QueryRow(dbctx, `SELECT click_count FROM tracked_links WHERE code = $1`, code).Scan(&totalClicks); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		slog.Error(err.Error())
		return nil, err
	}
	//查明细列表
	var rows pgx.Rows
	var err error
	if cursor == 0 {
		rows, err = u.db.Query(dbctx, `SELECT id,clicked_at,referer,user_agent,family,region FROM click_stats WHERE code = $1 ORDER BY id DESC LIMIT $2`, code, limit)
	} else {
		rows, err = u.db.Query(dbctx, `SELECT id,clicked_at,referer,user_agent,family,region FROM click_stats WHERE code = $1 AND id<$2 ORDER BY id DESC LIMIT $3`, code, cursor, limit)
	}
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var clicks []ClickStats
	for rows.Next() {
		var item ClickStats
		if err := rows.Scan(&item.ID, &item.ClickedAt, &item.Referer, &item.UserAgent, &item.Family, &item.Region); err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		clicks = append(clicks, item)
	}
	if err := rows.Err(); err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	var nextCursor *int64
	if len(clicks) == limit {
		//还有下一页
		nextCursor = &clicks[len(clicks)-1].ID
	}

	return &StatsResponse{
		TotalClicks:  totalClicks,
		RecentClicks: clicks,
		NextCursor:   nextCursor,
	}, nil
}

// WarmupBloom 启动时把已有短码灌进布隆过滤器。
func (u *LinksRepo) WarmupBloom(ctx context.Context) (int, error) {
	if u.bloom == nil {
		return 0, nil
	}
	dbctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := u.db.Query(dbctx, "SELECT code FROM tracked_links WHERE code IS NOT NULL AND code <> ''")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return count, err
		}
		u.bloom.Add(code)
		count++
	}
	return count, rows.Err()
}
