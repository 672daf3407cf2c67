package constants

import (
	"net/http"
	"time"
)

// Backend defaults. The food endpoints historically ran on a separate port.
const (
	DefaultBaseURL     = "http://localhost:8088"
	DefaultFoodBaseURL = "http://localhost:8080"
	DefaultUsername    = "testuser"
	DefaultPassword    = "123456"
	DefaultUserID      = 1
)

// Endpoint paths
const (
	PathHealth           = "/api/ai/test/health"
	PathAnalyzeFood      = "/api/ai/analyze-food"
	PathAnalyzeUpload    = "/api/ai/analyze-food/upload"
	PathLogin            = "/api/user/login"
	PathReportGenerate   = "/api/nutrition/report/generate"
	PathReportList       = "/api/nutrition/report/list"
	PathReportByID       = "/api/nutrition/report/%v"
	PathWeightLatest     = "/api/weight/latest"
	PathWeightAdd        = "/api/weight/add"
	PathWeightList       = "/api/weight/list"
	PathWeightStats      = "/api/weight/statistics"
	PathWeightDeleteByID = "/api/weight/delete/%v"
)

// Business success sentinels. The AI endpoints answer 0, everything else 200.
const (
	FoodSuccessCode    = 0
	DefaultSuccessCode = http.StatusOK
)

// Per-call timeouts
const (
	DefaultHealthTimeout  = 10 * time.Second
	DefaultLoginTimeout   = 10 * time.Second
	DefaultAnalyzeTimeout = 60 * time.Second
	DefaultCallTimeout    = 30 * time.Second
)

// Suite payload defaults
const (
	DefaultReportPeriod   = "WEEK"
	DefaultReportDays     = 7
	DefaultReportPageSize = 10
	DefaultWeightValue    = 70.5
	DefaultBodyFat        = 20.5
	DefaultWeightPageSize = 5
)

// Response preview lengths used when echoing bodies to the console.
const (
	PreviewShort  = 200
	PreviewMedium = 500
	PreviewLong   = 800
)

// History store defaults
const (
	DefaultHistoryDBFile   = "apismoke.db"
	DefaultSuiteRunsTable  = "suite_runs"
	DefaultStepRunsTable   = "step_runs"
	DefaultPostgresPort    = 5432
	DefaultPostgresSSLMode = "disable"

	DefaultPostgresMaxConnections = 5
	DefaultMaxConnLifetime        = 5 * time.Minute
	DefaultSQLiteLifetime         = 10 * time.Minute
)

// Metrics defaults
const (
	DefaultMetricsJob       = "apismoke"
	DefaultMetricsNamespace = "apismoke"
	DefaultPushTimeout      = 10 * time.Second
)
