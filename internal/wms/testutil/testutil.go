package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pragavigithub/emerging-wms/internal/config"
	"github.com/pragavigithub/emerging-wms/internal/middleware"
	"github.com/pragavigithub/emerging-wms/internal/shared/sapb1"
	"github.com/pragavigithub/emerging-wms/internal/wms/entity"
)

const (
	TestSchema = "test_wms"
	JWTSecret  = "emerging-wms-jwt-secret-key-2025"
)

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is cleaned up after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := config.GetEnvOrDefault("DB_HOST", "127.0.0.1")
	port := config.GetEnvOrDefault("DB_PORT", "5432")
	user := config.GetEnvOrDefault("DB_USER", "wms")
	password := config.GetEnvOrDefault("DB_PASSWORD", "wms123")
	dbname := config.GetEnvOrDefault("DB_NAME", "emerging_wms")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// Create a unique test schema for isolation
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	// First: create schema using a temporary connection
	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// Second: open connection with search_path in DSN so ALL pooled connections use test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Migrate test tables
	err = db.AutoMigrate(
		&entity.ReceiptDocument{},
		&entity.ReceiptLine{},
		&entity.TransferDocument{},
		&entity.TransferLine{},
		&entity.Warehouse{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	// Cleanup on test completion
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		// Reconnect to drop the schema
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupTestRedis returns a redis client for tests. Cache write failures are
// tolerated by the code under test, so a missing redis only disables the
// offline fallback paths.
func SetupTestRedis() *redis.Client {
	loadEnv()
	host := config.GetEnvOrDefault("REDIS_HOST", "127.0.0.1")
	port := config.GetEnvOrDefault("REDIS_PORT", "6379")
	return redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port),
		DB:   9, // keep test keys away from dev data
	})
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": userID + "@test.com",
		"roles": roles,
		"iss":   "emerging-wms",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// OperatorToken returns a token for a warehouse operator test user
func OperatorToken(userID string) string {
	return GenerateTestToken(userID, "Test Operator", []string{middleware.RoleOperator})
}

// QCToken returns a token for a QC test user
func QCToken(userID string) string {
	return GenerateTestToken(userID, "Test QC", []string{middleware.RoleQC})
}

// AdminToken returns a token for an admin test user
func AdminToken(userID string) string {
	return GenerateTestToken(userID, "Test Admin", []string{middleware.RoleAdmin})
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a handler.Response-like map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// FakeGateway is an in-memory stand-in for the Service Layer client.
// Zero value behaves like an empty ERP: every lookup returns not-found.
type FakeGateway struct {
	PO         *sapb1.PurchaseOrder
	TR         *sapb1.InventoryTransferRequest
	Warehouses []sapb1.Warehouse
	Bins       map[string]*sapb1.BinLocation

	// Pre-existing documents for idempotency checks
	ExistingDeliveryRef *sapb1.DocumentRef
	ExistingTransferRef *sapb1.DocumentRef

	// Refs returned from create calls
	DeliveryRef *sapb1.DocumentRef
	TransferRef *sapb1.DocumentRef

	// Err fails every call; CreateErr fails only the create calls
	Err       error
	CreateErr error

	// Captured payloads for assertions
	CreatedDeliveries []*sapb1.DeliveryNote
	CreatedTransfers  []*sapb1.StockTransfer
}

func (f *FakeGateway) GetPurchaseOrder(ctx context.Context, docNum int) (*sapb1.PurchaseOrder, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.PO == nil || f.PO.DocNum != docNum {
		return nil, sapb1.ErrNotFound
	}
	return f.PO, nil
}

func (f *FakeGateway) GetInventoryTransferRequest(ctx context.Context, docNum int) (*sapb1.InventoryTransferRequest, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.TR == nil || f.TR.DocNum != docNum {
		return nil, sapb1.ErrNotFound
	}
	return f.TR, nil
}

func (f *FakeGateway) ListWarehouses(ctx context.Context) ([]sapb1.Warehouse, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Warehouses, nil
}

func (f *FakeGateway) GetBinLocation(ctx context.Context, binCode string) (*sapb1.BinLocation, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if bin, ok := f.Bins[binCode]; ok {
		return bin, nil
	}
	return nil, sapb1.ErrNotFound
}

func (f *FakeGateway) FindDeliveryNoteByNumAtCard(ctx context.Context, numAtCard string) (*sapb1.DocumentRef, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.ExistingDeliveryRef != nil {
		return f.ExistingDeliveryRef, nil
	}
	return nil, sapb1.ErrNotFound
}

func (f *FakeGateway) FindStockTransferByRef(ctx context.Context, ref string) (*sapb1.DocumentRef, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.ExistingTransferRef != nil {
		return f.ExistingTransferRef, nil
	}
	return nil, sapb1.ErrNotFound
}

func (f *FakeGateway) CreateDeliveryNote(ctx context.Context, payload *sapb1.DeliveryNote) (*sapb1.DocumentRef, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.CreatedDeliveries = append(f.CreatedDeliveries, payload)
	if f.DeliveryRef != nil {
		return f.DeliveryRef, nil
	}
	return &sapb1.DocumentRef{DocEntry: 9001, DocNum: 1001}, nil
}

func (f *FakeGateway) CreateStockTransfer(ctx context.Context, payload *sapb1.StockTransfer) (*sapb1.DocumentRef, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.CreatedTransfers = append(f.CreatedTransfers, payload)
	if f.TransferRef != nil {
		return f.TransferRef, nil
	}
	return &sapb1.DocumentRef{DocEntry: 9002, DocNum: 1002}, nil
}
