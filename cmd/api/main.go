package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"deal.local/internal/app/affiliate"
	affcache "deal.local/internal/app/affiliate/cache"
	trcache "deal.local/internal/app/tracker/cache"
	trackerhttpapi "deal.local/internal/app/tracker/httpapi"
	"deal.local/internal/app/tracker/repo"
	"deal.local/internal/app/tracker/stats"
	"deal.local/internal/platform/auth"
	platformcache "deal.local/internal/platform/cache"
	"deal.local/internal/platform/config"
	"deal.local/internal/platform/db"
	"deal.local/internal/platform/httpmiddleware"
	"deal.local/internal/platform/httpserver"
	"deal.local/internal/platform/metrics"
	"deal.local/internal/platform/migrate"
	"deal.local/internal/platform/ratelimit"
	"deal.local/internal/platform/trace"
	"deal.local/web"
	"deal.local/web/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg := config.Load()

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	slog.SetDefault(slog.New(h))

	//DB
	dbCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	dbPool, errDB := db.New(dbCtx, cfg.DBDSN)
	if errDB != nil {
		log.Fatal(errDB)
	}
	defer dbPool.Close()
	if err := dbPool.Ping(dbCtx); err != nil {
		log.Fatal(err)
	}
	slog.Info("database connected")

	//迁移
	migCtx, migCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer migCancel()
	if res, err := migrate.Up(migCtx, dbPool, migrate.Options{}); err != nil {
		log.Fatal(err)
	} else {
		slog.Info("migrations done", "applied", len(res.AppliedFiles), "skipped", len(res.SkippedFiles))
	}

	usersRepo := repo.NewUsersRepo(dbPool)
	tagsRepo := repo.NewTagsRepo(dbPool)
	alertsRepo := repo.NewAlertsRepo(dbPool)

	//Redis
	redisClient, errRedis := platformcache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if errRedis != nil {
		log.Fatal(errRedis)
	}
	defer redisClient.Close()
	//限流器
	var limiter *ratelimit.Limiter
	if cfg.RateLimitEnabled {
		limiter = ratelimit.NewLimiter(redisClient)
	} else {
		slog.Warn("RateLimit disabled by config", "RATELIMIT_ENABLED", false)
	}

	//改写结果缓存（L1 + L2）
	rewriteLocal, errLocal := affcache.NewLocalCache(cfg.LinkCacheMaxItems, cfg.LinkCacheTTL)
	if errLocal != nil {
		log.Fatal(errLocal)
	}
	linkCache := affcache.NewLinkCache(rewriteLocal, redisClient, cfg.LinkCacheTTL)
	defer linkCache.Close()

	//跳转目标缓存
	targetLocal, errTarget := trcache.NewLocalCache(100000, 1<<24) // 10万条目，16MB
	if errTarget != nil {
		log.Fatal(errTarget)
	}
	targetCache := trcache.NewTargetCache(redisClient, targetLocal)
	defer targetCache.Close()
	//创建布隆过滤器 预期 100 万短码，1% 误判率
	bloomFilter := trcache.NewBloomFilter(1_000_000, 0.01)

	// migrations 可能跑很久，启动加载不要复用前面的短超时 ctx
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer bootCancel()

	linksRepo := repo.NewLinksRepo(dbPool, targetCache, bloomFilter)
	if n, err := linksRepo.WarmupBloom(bootCtx); err != nil {
		slog.Warn("bloom warmup failed", "err", err)
	} else {
		slog.Info("bloom warmup done", "codes", n)
	}

	//装配联盟标签表：DB 优先，空表时用环境变量种子
	registry, errReg := tagsRepo.LoadRegistry(bootCtx)
	if errReg != nil {
		log.Fatal(errReg)
	}
	if !registry.Configured(affiliate.FamilyAmazon) && !registry.Configured(affiliate.FamilyEbay) && len(cfg.SeedTags) > 0 {
		slog.Info("affiliate_tags empty, seeding from env", "entries", len(cfg.SeedTags))
		seedCtx, seedCancel := context.WithTimeout(context.Background(), 5*time.Second)
		for key, tag := range cfg.SeedTags {
			family, region, ok := strings.Cut(key, "/")
			if !ok {
				continue
			}
			if err := tagsRepo.Upsert(seedCtx, family, region, tag); err != nil {
				slog.Warn("seed tag failed", "key", key, "err", err)
			}
		}
		seedCancel()
		if registry, errReg = tagsRepo.LoadRegistry(bootCtx); errReg != nil {
			log.Fatal(errReg)
		}
	}
	affSvc := affiliate.NewService(registry, nil, linkCache)

	//初始化统计收集器（根据配置选择 Channel 或 Kafka）
	var collector stats.Collector
	var kafkaConsumer *stats.KafkaConsumer
	var channelConsumer *stats.Consumer
	if cfg.KafkaEnabled {
		slog.Info("collecting clicks via kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		collector = stats.NewKafkaCollector(cfg.KafkaBrokers, cfg.KafkaTopic)
		kafkaConsumer = stats.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, dbPool)
	} else {
		slog.Info("collecting clicks via channel")
		channelCollector := stats.NewChannelCollector(10000)
		collector = channelCollector
		channelConsumer = stats.NewConsumer(dbPool, channelCollector)
	}

	// JWT
	ts, jwtErr := auth.NewHS256Service(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if jwtErr != nil {
		log.Fatal(jwtErr)
	}

	metrics.Init()

	var shutdown func(context.Context) error
	if cfg.TracingEnabled {
		shutdown = trace.InitTrace(cfg.OtlpGrpcEndpoint, cfg.OtlpServiceName)
		if shutdown == nil {
			slog.Error("Trace init failed")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					slog.Error(err.Error())
				}
			}()
		}
	} else {
		slog.Warn("Tracing disabled by config", "TRACING_ENABLED", false)
	}

	// 对外业务
	r := web.New()
	r.Use(web.Recovery(), middleware.ReqID(), middleware.AccessLog(), httpmiddleware.Metrics(), httpmiddleware.TraceName())

	api := r.Group("/api/v1")

	trackerhttpapi.RegisterPublicRoutes(r, linksRepo, collector, limiter)
	trackerhttpapi.RegisterAPIRoutes(api, linksRepo, usersRepo, alertsRepo, tagsRepo, affSvc, ts, limiter)

	r.GET("/healthz", func(ctx *web.Context) {
		ctx.String(http.StatusOK, "ok")
	})

	publicHandler := http.Handler(r)
	if cfg.TracingEnabled {
		publicHandler = otelhttp.NewHandler(r, "http")
	}
	publicSrv := httpserver.New(cfg, publicHandler)

	// 仅本机/内网
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	// 数据库连接状态检测
	adminMux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		dbCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := dbPool.Ping(dbCtx); err != nil {
			w.WriteHeader(500)
			w.Write([]byte("DB Ping Err"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("DB ready"))
	})

	adminMux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service_name": cfg.ServiceName,
			"version":      version,
			"commit":       commit,
			"build_time":   buildTime,
			"go_version":   runtime.Version(),
		})
	})

	if cfg.PprofEnabled {
		adminMux.HandleFunc("/debug/pprof/", pprof.Index)
		adminMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		adminMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		adminMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		adminMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	adminSrv := &http.Server{
		Addr:              cfg.AdminAddr, // 推荐：127.0.0.1:6060
		Handler:           adminMux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errch := make(chan error, 2)

	go func() {
		errch <- httpserver.RunWithGracefulShutdownContext(publicSrv, cfg.ShutdownTimeout, stopCtx)
	}()
	go func() {
		errch <- httpserver.RunWithGracefulShutdownContext(adminSrv, cfg.ShutdownTimeout, stopCtx)
	}()

	// 启动 Kafka consumer（如果启用）
	if kafkaConsumer != nil {
		go kafkaConsumer.Run(stopCtx)
		defer kafkaConsumer.Close()
	}
	// 启动 Channel consumer（如果启用）
	if channelConsumer != nil {
		go channelConsumer.Run(stopCtx)
	}
	defer collector.Close()

	err := <-errch
	if err != nil {
		stop()
		select {
		case <-errch:
		case <-time.After(cfg.ShutdownTimeout + time.Second):
		}
		log.Fatal(err)
	}

	stop()
	<-errch
}
