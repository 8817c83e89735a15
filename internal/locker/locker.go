package locker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrNotObtained = errors.New("kilit alınamadı")

// Locker redis üzerinde dağıtık kilit. Kilit doluysa belirli süre tekrar dener.
// Tutulan kilit bırakılana kadar ttl/2 aralıklarla yenilenir; uzun süren işte süresi dolmaz.
type Locker struct {
	client  *redislock.Client
	ttl     time.Duration
	backoff time.Duration
	retries int
	log     *zap.Logger
}

func New(rdb redis.UniversalClient, log *zap.Logger) *Locker {
	return &Locker{
		client:  redislock.New(rdb),
		ttl:     30 * time.Second,
		backoff: 250 * time.Millisecond,
		retries: 120,
		log:     log,
	}
}

// WithRetry bekleme aralığını ve deneme sayısını değiştirir.
func (l *Locker) WithRetry(backoff time.Duration, retries int) *Locker {
	l.backoff = backoff
	l.retries = retries
	return l
}

// WithTTL kilit süresini değiştirir. Yenileme aralığı bu sürenin yarısıdır.
func (l *Locker) WithTTL(ttl time.Duration) *Locker {
	l.ttl = ttl
	return l
}

func (l *Locker) Obtain(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), l.retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis kilidi alınamadı (%s): %w", key, err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(lock, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// Bağlam iptal edilmiş olsa bile kilit bırakılmalı
			if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				l.log.Warn("redis kilidi bırakılamadı", zap.String("key", key), zap.Error(err))
			}
		})
	}, nil
}

// keepAlive stop kapanana kadar kilidin süresini uzatır.
func (l *Locker) keepAlive(lock *redislock.Lock, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl/2)
			err := lock.Refresh(ctx, l.ttl, nil)
			cancel()
			if errors.Is(err, redislock.ErrNotObtained) {
				l.log.Warn("redis kilidi kaybedildi", zap.String("key", lock.Key()))
				return
			}
			if err != nil {
				l.log.Warn("redis kilidi yenilenemedi", zap.String("key", lock.Key()), zap.Error(err))
			}
		}
	}
}

// Connect REDIS_ADDRESS boşsa nil döner; kilit devre dışı kalır.
func Connect(ctx context.Context, addr string, log *zap.Logger) (*Locker, *redis.Client, error) {
	if addr == "" {
		return nil, nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis bağlantısı kurulamadı (%s): %w", addr, err)
	}
	log.Info("redis bağlantısı kuruldu", zap.String("addr", addr))
	return New(rdb, log), rdb, nil
}
