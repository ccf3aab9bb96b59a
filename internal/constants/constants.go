package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultInputTopic  = "monitoring_records"
	DefaultOutputTopic = "classified_records"
)

const (
	DefaultMongoDBName       = "riskgrade"
	DefaultHistoryCollection = "classification_history"
)

const (
	SnapshotKeyPrefix = "riskgrade:latest:"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

const (
	DefaultSnapshotTTLSeconds = 3600
)

const (
	RuleSourceFile     = "file"
	RuleSourcePostgres = "postgres"
)

const (
	FallbackUnclassified = "unclassified"
	FallbackSkip         = "skip"
	FallbackError        = "error"
)
