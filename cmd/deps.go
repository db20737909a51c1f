package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-reservations/app/lock"
	"github.com/vibast-solutions/ms-go-reservations/app/notifier"
	"github.com/vibast-solutions/ms-go-reservations/app/repository"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
	"github.com/vibast-solutions/ms-go-reservations/config"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// dependencies is the object graph shared by every subcommand.
type dependencies struct {
	db  *sql.DB
	rdb *redis.Client

	locker     *lock.Locker
	mysqlLocks *lock.MySQLStore

	enrollments *service.EnrollmentService
	tickets     *service.TicketService
	envelopes   *service.EnvelopeService
	claims      *service.ClaimService
}

func buildDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MySQLMaxOpen)
	db.SetMaxIdleConns(cfg.MySQLMaxIdle)
	db.SetConnMaxLifetime(cfg.MySQLMaxLife)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	n, err := buildNotifier(ctx, cfg)
	if err != nil {
		_ = db.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("build notifier: %w", err)
	}

	d := &dependencies{db: db, rdb: rdb}

	var store lock.Store
	switch cfg.LockBackend {
	case config.LockBackendMySQL:
		d.mysqlLocks = lock.NewMySQLStore(db)
		store = d.mysqlLocks
	default:
		store = lock.NewRedisStore(rdb)
	}
	d.locker = lock.NewLocker(store, cfg.Lock)

	d.enrollments = service.NewEnrollmentService(
		d.locker,
		repository.NewCourseRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewSeatMapRepository(rdb),
		n,
	)
	d.tickets = service.NewTicketService(d.locker, repository.NewTicketRepository(rdb))
	d.envelopes = service.NewEnvelopeService(d.locker, repository.NewEnvelopeRepository(rdb), nil)
	d.claims = service.NewClaimService(repository.NewClaimResultRepository(rdb), d.enrollments, d.tickets, d.envelopes)

	logrus.WithFields(logrus.Fields{
		"lock_backend": cfg.LockBackend,
		"fair":         cfg.Lock.Fair,
		"watchdog_ttl": cfg.Lock.WatchdogTTL,
	}).Info("Dependencies ready")

	return d, nil
}

func (d *dependencies) Close() {
	if err := d.rdb.Close(); err != nil {
		logrus.WithError(err).Warn("Redis close failed")
	}
	if err := d.db.Close(); err != nil {
		logrus.WithError(err).Warn("Database close failed")
	}
}

// purgeExpiredLeases deletes dead lease rows until ctx is done. Only the MySQL
// backend keeps expired rows around.
func (d *dependencies) purgeExpiredLeases(ctx context.Context, interval time.Duration) {
	if d.mysqlLocks == nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := d.mysqlLocks.PurgeExpired(ctx)
			if err != nil {
				logrus.WithError(err).Warn("Lease purge failed")
				continue
			}
			if n > 0 {
				logrus.WithField("rows", n).Debug("Purged expired leases")
			}
		}
	}
}

func buildNotifier(ctx context.Context, cfg *config.Config) (notifier.Notifier, error) {
	switch cfg.NotifierProvider {
	case "", "noop":
		return notifier.NewNoopNotifier(), nil
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, err
		}
		return notifier.NewSESNotifier(awsCfg, cfg.SESSourceEmail), nil
	default:
		return nil, fmt.Errorf("unsupported NOTIFIER_PROVIDER: %s", cfg.NotifierProvider)
	}
}
