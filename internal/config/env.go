package config

import "time"

// Env key constants. All configuration env vars use the ADMISSION_ prefix;
// duration values require explicit units (e.g. 500ms, 40s, 2m).

// Path to kubeconfig file. If unset, KUBECONFIG is used as fallback.
const envKeyKubeConfig = "ADMISSION_KUBECONFIG"

// Kubernetes API server URL. If unset, KUBERNETES_MASTER is used as fallback.
const envKeyKubeMaster = "ADMISSION_KUBE_MASTER"

// Cluster ID registered from the sum of node allocatable; empty disables discovery.
const envKeyKubeCapacityCluster = "ADMISSION_KUBE_CAPACITY_CLUSTER"

// Label selector restricting which nodes contribute capacity.
const envKeyKubeNodeSelector = "ADMISSION_KUBE_NODE_SELECTOR"

// Log level: debug, info, warn, error.
const envKeyLogLevel = "ADMISSION_LOG_LEVEL"

// Log format: json or text.
const envKeyLogFormat = "ADMISSION_LOG_FORMAT"

// Port for health, readiness and admission HTTP server.
const envKeyHTTPPort = "ADMISSION_HTTP_PORT"

// Port for Prometheus metrics (GET /metrics).
const envKeyMetricsPort = "ADMISSION_METRICS_PORT"

// Pinger check interval.
const (
	envKeyPingerInterval = "ADMISSION_PINGER_INTERVAL"
	envMinPingerInterval = time.Second
)

// Delay before each deferred re-attempt.
const (
	envKeyRetryDelay = "ADMISSION_RETRY_DELAY"
	envMinRetryDelay = time.Millisecond
)

// Number of delayed re-attempts after the initial one.
const envKeyRetryBudget = "ADMISSION_RETRY_BUDGET"

// Number of re-attempts after persistence faults.
const envKeyFaultBudget = "ADMISSION_FAULT_BUDGET"

// Worker pool size and pending work buffer.
const (
	envKeyWorkers   = "ADMISSION_WORKERS"
	envKeyQueueSize = "ADMISSION_QUEUE_SIZE"
)

// Defer workloads whose dependencies have not completed.
const envKeyDependencyGating = "ADMISSION_DEPENDENCY_GATING"

// Cron spec and IANA zone of the ledger audit.
const (
	envKeyAuditSchedule = "ADMISSION_AUDIT_SCHEDULE"
	envKeyAuditTZ       = "ADMISSION_AUDIT_TZ"
)

// Store backend: memory, redis, etcd or postgres.
const envKeyStore = "ADMISSION_STORE"

// Key prefix used by the redis and etcd stores.
const envKeyStorePrefix = "ADMISSION_STORE_PREFIX"

// How long startup waits for the store to answer.
const (
	envKeyStoreConnectTimeout = "ADMISSION_STORE_CONNECT_TIMEOUT"
	envMinStoreConnectTimeout = time.Second
)

const (
	envKeyRedisAddr     = "ADMISSION_REDIS_ADDR"
	envKeyRedisDB       = "ADMISSION_REDIS_DB"
	envKeyEtcdEndpoints = "ADMISSION_ETCD_ENDPOINTS"
	envKeyPostgresDSN   = "ADMISSION_POSTGRES_DSN"
)

// YAML file of clusters and workloads registered at startup.
const envKeySeedFile = "ADMISSION_SEED_FILE"

// File whose presence aborts startup and triggers termination once running.
const envKeyTerminationFile = "ADMISSION_TERMINATION_FILE"

// Upper bound for graceful shutdown of all components.
const (
	envKeyShutdownTimeout = "ADMISSION_SHUTDOWN_TIMEOUT"
	envMinShutdownTimeout = time.Second
)

// Standard k8s env keys used as fallback when ADMISSION_* are unset.
const (
	envKeyKubeConfigFallback = "KUBECONFIG"
	envKeyKubeMasterFallback = "KUBERNETES_MASTER"
)
