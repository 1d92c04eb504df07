package services

import (
	"context"
	"fmt"
	"photofeed/models"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// CounterType тип счетчика графа подписок
type CounterType string

const (
	CounterFollowers CounterType = "followers"
	CounterFollowing CounterType = "following"

	COUNTER_KEY_PREFIX = "graph_counters:"
)

// Счетчик меняется только если ключ уже прогрет: иначе инкремент от нуля дал бы неверное значение.
var adjustCounterScript = redis.NewScript(`
	local key = KEYS[1]
	local field = ARGV[1]
	local delta = tonumber(ARGV[2])

	if redis.call('EXISTS', key) == 0 then
		return -1
	end

	local value = redis.call('HINCRBY', key, field, delta)
	if value < 0 then
		redis.call('HSET', key, field, 0)
		value = 0
	end
	return value
`)

// GraphCounters - кеш счетчиков подписчиков/подписок в Redis.
// Источник истины - таблица follows; кеш прогревается при чтении и сверяется по расписанию.
type GraphCounters struct {
	client  *redis.Client
	ttl     time.Duration
	warmTTL time.Duration
}

// graphCounters устанавливается в InitRedis; nil означает работу без кеша
var graphCounters *GraphCounters

func NewGraphCounters(client *redis.Client, ttl time.Duration) *GraphCounters {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &GraphCounters{client: client, ttl: ttl, warmTTL: time.Minute}
}

func (c *GraphCounters) enabled() bool {
	return c != nil && c.client != nil
}

func (c *GraphCounters) key(userID models.UserID) string {
	return fmt.Sprintf("%s%d", COUNTER_KEY_PREFIX, userID)
}

// Adjust меняет счетчик на delta, если он есть в кеше
func (c *GraphCounters) Adjust(ctx context.Context, userID models.UserID, counterType CounterType, delta int64) error {
	if !c.enabled() {
		return nil
	}
	err := adjustCounterScript.Run(ctx, c.client, []string{c.key(userID)}, string(counterType), delta).Err()
	if err != nil {
		return fmt.Errorf("failed to adjust %s counter for user %d: %w", counterType, userID, err)
	}
	return nil
}

// Get возвращает закешированные значения; ok=false при промахе
func (c *GraphCounters) Get(ctx context.Context, userID models.UserID) (followers, following int64, ok bool, err error) {
	if !c.enabled() {
		return 0, 0, false, nil
	}
	values, err := c.client.HMGet(ctx, c.key(userID), string(CounterFollowers), string(CounterFollowing)).Result()
	if err != nil {
		return 0, 0, false, err
	}
	if len(values) != 2 || values[0] == nil || values[1] == nil {
		return 0, 0, false, nil
	}
	followers, err = strconv.ParseInt(fmt.Sprint(values[0]), 10, 64)
	if err != nil {
		return 0, 0, false, err
	}
	following, err = strconv.ParseInt(fmt.Sprint(values[1]), 10, 64)
	if err != nil {
		return 0, 0, false, err
	}
	return followers, following, true, nil
}

// Set записывает значения, сверенные с базой, на полный ttl
func (c *GraphCounters) Set(ctx context.Context, userID models.UserID, followers, following int64) error {
	return c.write(ctx, userID, followers, following, c.ttl)
}

// Warm прогревает кеш значениями, прочитанными при промахе. Подписка, закоммиченная между
// чтением из базы и Warm, не попадет в кеш (Adjust пропускает холодный ключ),
// поэтому такие значения живут только warmTTL; ReconcileCounters продлевает их до ttl.
func (c *GraphCounters) Warm(ctx context.Context, userID models.UserID, followers, following int64) error {
	return c.write(ctx, userID, followers, following, c.warmTTL)
}

func (c *GraphCounters) write(ctx context.Context, userID models.UserID, followers, following int64, ttl time.Duration) error {
	if !c.enabled() {
		return nil
	}
	key := c.key(userID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, string(CounterFollowers), followers, string(CounterFollowing), following)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// CachedUsers перебирает id пользователей, чьи счетчики сейчас в кеше
func (c *GraphCounters) CachedUsers(ctx context.Context, fn func(models.UserID) error) error {
	if !c.enabled() {
		return nil
	}
	iter := c.client.Scan(ctx, 0, COUNTER_KEY_PREFIX+"*", 100).Iterator()
	for iter.Next(ctx) {
		id, err := models.ParseUserID(iter.Val()[len(COUNTER_KEY_PREFIX):])
		if err != nil {
			continue
		}
		if err := fn(id); err != nil {
			return err
		}
	}
	return iter.Err()
}
