package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/exceltravels/duty-track/internal/blobstore"
	"github.com/exceltravels/duty-track/internal/database"
	"github.com/exceltravels/duty-track/internal/driverid"
	"github.com/exceltravels/duty-track/internal/env"
	"github.com/exceltravels/duty-track/internal/ratelimit"
	"github.com/exceltravels/duty-track/internal/sms"
	"github.com/exceltravels/duty-track/internal/token"
	"github.com/exceltravels/duty-track/internal/version"
)

var (
	_cfgFile     = flag.String("cfg", "", "path to config file")
	_showVersion = flag.Bool("version", false, "display version and exit")
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

type config struct {
	baseURL  string
	httpHost string
	httpPort int
	db       struct {
		dsn         string
		automigrate bool
	}
	redis struct {
		addr     string
		password string
	}
	uploads struct {
		dir string
	}
	cors struct {
		allowedOrigins []string
	}
	jwt struct {
		secret string
		ttl    time.Duration
	}
	sms struct {
		provider string
		apiURL   string
		apiKey   string
		from     string
	}
	otp struct {
		ttl           time.Duration
		length        int
		rateLimit     int
		rateWindow    time.Duration
		sweepInterval time.Duration
	}
	password struct {
		minLength int
	}
	dutySlip struct {
		strictCompletedFetch bool
	}
	driverID struct {
		maxRetries int
	}
}

type application struct {
	config     config
	db         *database.DB
	logger     *slog.Logger
	slips      func(logger *slog.Logger) dutySlipStore
	blobs      *blobstore.DiskStore
	smsSender  sms.Sender
	tokens     *token.Issuer
	allocator  *driverid.Allocator
	otpLimiter *ratelimit.Limiter
	done       chan struct{}
	wg         sync.WaitGroup
}

func run(logger *slog.Logger) error {
	flag.Parse()

	if *_showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	var cfg config

	if *_cfgFile != "" {
		err := env.Load(*_cfgFile)
		if err != nil {
			return err
		}
	}

	cfg.baseURL = env.GetString("BASE_URL", "http://localhost:8080")
	cfg.httpHost = env.GetString("HTTP_HOST", "localhost")
	cfg.httpPort = env.GetInt("HTTP_PORT", 8080)
	cfg.db.dsn = env.GetString("DB_DSN", "postgres:postgres@localhost:5432/postgres")
	cfg.db.automigrate = env.GetBool("DB_AUTOMIGRATE", true)
	cfg.redis.addr = env.GetString("REDIS_ADDR", "")
	cfg.redis.password = env.GetString("REDIS_PASSWORD", "")
	cfg.uploads.dir = env.GetString("UPLOAD_DIR", "./uploads")
	cfg.cors.allowedOrigins = splitAndTrim(env.GetString("CORS_ALLOWED_ORIGINS", "*"))
	cfg.jwt.secret = env.GetString("JWT_SECRET", "insecure-dev-secret")
	cfg.jwt.ttl = env.GetDuration("JWT_TTL", 24*time.Hour)
	cfg.sms.provider = env.GetString("SMS_PROVIDER", "log")
	cfg.sms.apiURL = env.GetString("SMS_API_URL", "")
	cfg.sms.apiKey = env.GetString("SMS_API_KEY", "")
	cfg.sms.from = env.GetString("SMS_FROM", "")

	// Business rules that drifted between revisions stay configurable; the
	// defaults follow the stricter, later revision.
	cfg.otp.ttl = env.GetDuration("OTP_TTL", 10*time.Minute)
	cfg.otp.length = env.GetInt("OTP_LENGTH", 6)
	cfg.otp.rateLimit = env.GetInt("OTP_RATE_LIMIT", 3)
	cfg.otp.rateWindow = env.GetDuration("OTP_RATE_WINDOW", 15*time.Minute)
	cfg.otp.sweepInterval = env.GetDuration("OTP_SWEEP_INTERVAL", time.Minute)
	cfg.password.minLength = env.GetInt("PASSWORD_MIN_LENGTH", 6)
	cfg.dutySlip.strictCompletedFetch = env.GetBool("STRICT_COMPLETED_FETCH", true)
	cfg.driverID.maxRetries = env.GetInt("DRIVER_ID_MAX_RETRIES", 10)

	db, err := database.New(cfg.db.dsn, cfg.db.automigrate)
	if err != nil {
		return err
	}
	defer db.Close()

	blobs, err := blobstore.NewDiskStore(cfg.uploads.dir, cfg.baseURL+"/uploads")
	if err != nil {
		return err
	}

	app := &application{
		config: cfg,
		db:     db,
		logger: logger,
		slips: func(l *slog.Logger) dutySlipStore {
			return database.NewDutySlipDAO(l, db)
		},
		blobs:  blobs,
		tokens: token.NewIssuer(cfg.jwt.secret, cfg.jwt.ttl),
		allocator: &driverid.Allocator{
			Store:      database.NewDriverDAO(logger, db),
			MaxRetries: cfg.driverID.maxRetries,
		},
		done: make(chan struct{}),
	}

	switch cfg.sms.provider {
	case "http":
		app.smsSender = sms.NewHTTPSender(cfg.sms.apiURL, cfg.sms.apiKey, cfg.sms.from)
	default:
		app.smsSender = &sms.LogSender{Logger: logger.With("module", "sms")}
	}

	if cfg.redis.addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.redis.addr, Password: cfg.redis.password})
		app.otpLimiter = ratelimit.New(rdb, "otp", cfg.otp.rateLimit, cfg.otp.rateWindow)
		defer rdb.Close()
	} else {
		logger.Warn("OTP rate limiting disabled", "reason", "REDIS_ADDR not set")
	}

	app.startOTPSweeper(cfg.otp.sweepInterval)

	return app.serveHTTP()
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
