// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immigration-workers/internal/common/config"
	"immigration-workers/internal/common/database"
	commonerrors "immigration-workers/internal/common/errors"
	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/models"
	"immigration-workers/pkg/registry"

	cdc "immigration-workers/internal/workers/evaluation/check-document-completeness"
	per "immigration-workers/internal/workers/evaluation/persist-evaluation-record"
	se "immigration-workers/internal/workers/evaluation/score-eligibility"
	ve "immigration-workers/internal/workers/evaluation/validate-eligibility"
	mr "immigration-workers/internal/workers/matching/match-representative"
	ned "immigration-workers/internal/workers/notification/notify-expiring-documents"
)

const registryPath = "../../configs/visa-registry.json"

var zeebeClient zbc.Client

func TestMain(m *testing.M) {
	if os.Getenv("E2E") != "true" {
		fmt.Println("skipping e2e tests; set E2E=true to run against a live stack")
		os.Exit(0)
	}

	var err error
	zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         "localhost:26500",
		UsePlaintextConnection: true,
	})
	if err != nil {
		panic(fmt.Sprintf("❌ Failed to connect to Zeebe: %v", err))
	}

	code := m.Run()

	zeebeClient.Close()
	os.Exit(code)
}

func TestFullEvaluationPipeline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)

	// Force localhost for the e2e stack
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.Addresses = []string{"http://localhost:9200"}

	t.Log("🚀 Starting full evaluation pipeline against real services...")

	pg, esc, rdb := assertServicesConnectivity(t, ctx, cfg)
	defer pg.Close()
	defer rdb.Close()

	createEvaluationTable(t, ctx, pg)

	reg, err := registry.Load(registryPath)
	require.NoError(t, err)
	schema, ok := reg.Snapshot().Lookup("E-1", "new")
	require.True(t, ok, "registry must carry the E-1/new schema")

	log := logger.NewTestLogger(t)
	applicationID := fmt.Sprintf("APP-E2E-%d", time.Now().UnixNano())

	evaluationData := map[string]interface{}{
		"educationLevel":   "phd",
		"researchField":    "artificial intelligence",
		"experienceYears":  6,
		"institutionType":  "university",
		"publicationCount": 12,
	}
	for _, field := range schema.RequiredEvaluationFields {
		if _, ok := evaluationData[field]; !ok {
			evaluationData[field] = "provided"
		}
	}
	administrativeData := map[string]interface{}{}
	for _, field := range schema.RequiredAdministrativeFields {
		administrativeData[field] = "provided"
	}

	// --- 1. Validate eligibility data ---
	t.Log("🔍 Step 1: validate-eligibility")
	veHandler := ve.NewHandler(ve.LoadConfig(), reg, log)
	validated, err := veHandler.Execute(ctx, &ve.Input{
		ApplicationID:      applicationID,
		VisaType:           "E-1",
		ApplicationType:    "new",
		EvaluationData:     evaluationData,
		AdministrativeData: administrativeData,
	})
	require.NoError(t, err)
	assert.True(t, validated.SchemaFound)
	assert.Empty(t, validated.MissingEvaluation)
	assert.True(t, validated.ReadyForScoring)

	// --- 2. Score eligibility ---
	t.Log("📊 Step 2: score-eligibility")
	seHandler := se.NewHandler(se.LoadConfig(), reg, log)
	scored, err := seHandler.Execute(ctx, &se.Input{
		ApplicationID:   applicationID,
		VisaType:        "E-1",
		ApplicationType: "new",
		EvaluationData:  evaluationData,
		DocumentLevel:   "uploaded",
	})
	require.NoError(t, err)
	require.NotNil(t, scored.Evaluation)
	assert.NotEmpty(t, scored.Evaluation.EvaluationID)
	assert.GreaterOrEqual(t, scored.OverallScore, 0)
	assert.LessOrEqual(t, scored.OverallScore, 100)
	assert.GreaterOrEqual(t, scored.Confidence, 0)
	assert.LessOrEqual(t, scored.Confidence, 100)
	assert.NotEmpty(t, scored.Status)
	t.Logf("   score=%d confidence=%d status=%s", scored.OverallScore, scored.Confidence, scored.Status)

	// --- 3. Check document completeness ---
	t.Log("📄 Step 3: check-document-completeness")
	issued := time.Now().AddDate(0, -1, 0)
	documents := make([]models.SubmittedDocument, 0, len(schema.RequiredDocuments))
	for _, docType := range schema.RequiredDocuments {
		documents = append(documents, models.SubmittedDocument{
			DocumentType: docType,
			OriginalName: docType + ".pdf",
			IssueDate:    &issued,
		})
	}
	cdcHandler := cdc.NewHandler(cdc.LoadConfig(), reg, log)
	checked, err := cdcHandler.Execute(ctx, &cdc.Input{
		ApplicationID:   applicationID,
		VisaType:        "E-1",
		ApplicationType: "new",
		Documents:       documents,
	})
	require.NoError(t, err)
	require.NotNil(t, checked.Validation)
	assert.True(t, checked.IsComplete)
	assert.Empty(t, checked.Validation.MissingRequired)

	// --- 4. Match representatives ---
	t.Log("🤝 Step 4: match-representative")
	mrCfg := mr.LoadConfig()
	mrCfg.DirectoryIndex = "representatives-e2e"
	mrCfg.PoolCacheKey = fmt.Sprintf("matching:e2e-pool:%s", applicationID)

	seedRepresentatives(t, ctx, esc, mrCfg.DirectoryIndex)
	directory := mr.NewDirectory(mrCfg, esc, rdb, log)

	pool, err := directory.FetchPool(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, pool, "directory pool must contain seeded candidates")

	// Second fetch is served from the Redis snapshot
	cached, err := directory.FetchPool(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(pool), len(cached))

	mrHandler := mr.NewHandler(mrCfg, directory, log)
	matched, err := mrHandler.Execute(ctx, &mr.Input{
		ApplicationID: applicationID,
		Evaluation:    scored.Evaluation,
		Preferences: models.ClientPreferences{
			Budget:            1200000,
			PreferredLanguage: "ko",
			Location:          "Seoul",
		},
	})
	require.NoError(t, err)
	assert.True(t, matched.MatchFound)
	assert.NotEmpty(t, matched.RecommendedGrade)
	require.NotEmpty(t, matched.Recommendations)
	assert.LessOrEqual(t, len(matched.Recommendations), 3)
	assert.NotNil(t, matched.Recommendations[0].ServicePlan)

	// --- 5. Persist the evaluation record ---
	t.Log("💾 Step 5: persist-evaluation-record")
	perHandler := per.NewHandler(per.LoadConfig(), per.NewStore(pg.DB), log)
	persisted, err := perHandler.Execute(ctx, &per.Input{
		ApplicationID:      applicationID,
		Evaluation:         scored.Evaluation,
		DocumentValidation: checked.Validation,
	})
	require.NoError(t, err)
	assert.True(t, persisted.Persisted)
	assert.Equal(t, scored.Evaluation.EvaluationID, persisted.EvaluationID)

	var count int
	err = pg.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM evaluation_records WHERE application_id = $1", applicationID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Records are append-only; replaying the same evaluation id must fail
	_, err = perHandler.Execute(ctx, &per.Input{
		ApplicationID: applicationID,
		Evaluation:    scored.Evaluation,
	})
	require.Error(t, err)
	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeDuplicateEvaluation, stdErr.Code)

	// --- 6. Expiry notification (channels disabled, decision logic only) ---
	t.Log("🔔 Step 6: notify-expiring-documents")
	nedHandler := ned.NewHandler(&ned.Config{
		Timeout:      10 * time.Second,
		EmailEnabled: false,
		SMSEnabled:   false,
	}, nil, nil, log)
	notified, err := nedHandler.Execute(ctx, &ned.Input{
		ApplicationID: applicationID,
		Expiries:      checked.Validation.Expiries,
	})
	require.NoError(t, err)
	if notified.Skipped {
		assert.Empty(t, notified.NotifiedDocuments)
	} else {
		assert.Empty(t, notified.EmailMessageID)
		assert.Empty(t, notified.SMSMessageID)
	}

	t.Log("✅ Full evaluation pipeline passed")
}

func assertServicesConnectivity(t *testing.T, ctx context.Context, cfg *config.Config) (*database.PostgresClient, *database.ElasticsearchClient, *database.RedisClient) {
	t.Log("🔍 Checking service connectivity...")

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "❌ PostgreSQL connection failed")
	require.NoError(t, pg.Ping(ctx), "❌ PostgreSQL ping failed")
	t.Log("✅ PostgreSQL connected")

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "❌ Redis client creation failed")
	require.NoError(t, rdb.Ping(ctx), "❌ Redis ping failed")
	t.Log("✅ Redis connected")

	esc, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err, "❌ Elasticsearch client creation failed")
	require.NoError(t, esc.Ping(), "❌ Elasticsearch ping failed")
	t.Log("✅ Elasticsearch connected")

	_, err = zeebeClient.NewTopologyCommand().Send(ctx)
	require.NoError(t, err, "❌ Zeebe topology request failed")
	t.Log("✅ Zeebe connected")

	return pg, esc, rdb
}

func createEvaluationTable(t *testing.T, ctx context.Context, pg *database.PostgresClient) {
	_, err := pg.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS evaluation_records (
			evaluation_id VARCHAR(64) PRIMARY KEY,
			application_id VARCHAR(64) NOT NULL,
			visa_type VARCHAR(16) NOT NULL,
			application_type VARCHAR(32) NOT NULL,
			schema_version VARCHAR(32) NOT NULL,
			overall_score INTEGER NOT NULL,
			confidence INTEGER NOT NULL,
			status VARCHAR(32) NOT NULL,
			result JSONB NOT NULL,
			document_validation JSONB,
			evaluated_at TIMESTAMPTZ NOT NULL
		)`)
	require.NoError(t, err)
}

func seedRepresentatives(t *testing.T, ctx context.Context, esc *database.ElasticsearchClient, index string) {
	candidates := []string{
		`{"id":"REP-E2E-001","name":"Kim","grade":"SENIOR","specialties":["document preparation","academic credentials"],"experienceYears":9,"successRatePercent":88,"location":"Seoul","languages":["ko","en"],"feeRange":{"min":600000,"max":900000},"availability":"AVAILABLE","avgResponseHours":6}`,
		`{"id":"REP-E2E-002","name":"Lee","grade":"INTERMEDIATE","specialties":["eligibility review"],"experienceYears":4,"successRatePercent":79,"location":"Busan","languages":["ko"],"feeRange":{"min":350000,"max":500000},"availability":"AVAILABLE","avgResponseHours":12}`,
		`{"id":"REP-E2E-003","name":"Park","grade":"EXPERT","specialties":["complex cases"],"experienceYears":14,"successRatePercent":93,"location":"Seoul","languages":["ko","en"],"feeRange":{"min":1000000,"max":1600000},"availability":"AVAILABLE","avgResponseHours":4}`,
	}

	for i, doc := range candidates {
		res, err := esc.Client.Index(index, strings.NewReader(doc),
			esc.Client.Index.WithDocumentID(fmt.Sprintf("REP-E2E-%03d", i+1)),
			esc.Client.Index.WithContext(ctx),
			esc.Client.Index.WithRefresh("true"),
		)
		require.NoError(t, err)
		require.False(t, res.IsError(), "❌ seeding representative failed: %s", res.Status())
		res.Body.Close()
	}
	t.Logf("✅ Seeded %d representatives into %s", len(candidates), index)
}
