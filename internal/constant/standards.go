package constant

const (
	DevelopmentEnvironment = "development"
	ProductionEnvironment  = "production"
)

const (
	StandardsStreamName          = "standards"
	StandardsStreamSubjectAll    = "standards.*"
	StandardsStreamSubjectWarm   = "standards.warm"
	StandardsStreamSubjectWarmed = "standards.warmed"
	StandardsStreamSubjectTrades = "standards.trades"
)

const (
	PairProviderPostgres = "postgres"
	PairProviderRedis    = "redis"
	PairProviderFile     = "file"
	PairProviderREST     = "rest"
)

const (
	RedisKeyPairsPrefix       = "standards:pairs:"
	RedisKeyInstrumentsPrefix = "standards:instruments:"
)

const (
	DatabaseMarketData = "market_data"
	RedisStandards     = "standards"
)
