package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"booking-api/config"
	"booking-api/pkg/helpers"
)

// App-level container sharing constructed components across packages; the
// router auto-wires modules from these singletons. Everything is set once
// at startup (no lazy globals hiding shared mutable state in handlers).

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	jwtManager  *helpers.JWTManager
	eventsPub   *helpers.EventPublisher
	esClient    *elasticsearch.Client
)

func SetConfig(c *config.Config)             { cfg = c }
func GetConfig() *config.Config              { return cfg }
func SetLogger(l *logrus.Logger)             { logger = l }
func GetLogger() *logrus.Logger              { return logger }
func SetPGPool(p *pgxpool.Pool)              { pgPool = p }
func GetPGPool() *pgxpool.Pool               { return pgPool }
func SetRedis(r *redis.Client)               { redisClient = r }
func GetRedis() *redis.Client                { return redisClient }
func SetJWT(m *helpers.JWTManager)           { jwtManager = m }
func GetJWT() *helpers.JWTManager            { return jwtManager }
func SetEvents(p *helpers.EventPublisher)    { eventsPub = p }
func GetEvents() *helpers.EventPublisher     { return eventsPub }
func SetES(c *elasticsearch.Client)          { esClient = c }
func GetES() *elasticsearch.Client           { return esClient }
