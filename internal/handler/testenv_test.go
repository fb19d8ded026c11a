package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"
	"github.com/hrms-go/backend/config"
	"github.com/hrms-go/backend/internal/eventbus"
	"github.com/hrms-go/backend/internal/middleware"
	"github.com/hrms-go/backend/internal/pkg/database"
	"github.com/hrms-go/backend/internal/pkg/storage"
	"github.com/hrms-go/backend/internal/repository"
	"github.com/hrms-go/backend/internal/service"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type apiEnv struct {
	db           *gorm.DB
	router       *gin.Engine
	employeeRepo repository.EmployeeRepository
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.InitDB("sqlite", filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	store, err := storage.NewLocal(filepath.Join(t.TempDir(), "files"))
	require.NoError(t, err)

	cfg := config.Default()
	templateRepo := repository.NewTemplateRepository(db)
	instanceRepo := repository.NewInstanceRepository(db)
	onboardingRepo := repository.NewOnboardingRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)

	audit := service.NewAuditService(repository.NewAuditLogRepository(db), instanceRepo)
	templates := service.NewTemplateService(templateRepo, store)
	instances := service.NewInstanceService(cfg.Contract, instanceRepo, templateRepo, store, audit, eventbus.NewContractEventBus())
	onboarding := service.NewOnboardingService(cfg.Onboarding.Documents, onboardingRepo, employeeRepo, instances)
	sweeper := service.NewSweeperService(cfg.Contract, instanceRepo, onboardingRepo, instances)
	editor := service.NewDocumentEditorService(templates, store)

	r := gin.New()
	r.Use(middleware.Recovery())
	r.GET("/healthz", NewHealthHandler(db, nil).Healthz)
	api := r.Group("/api", middleware.OptionalAuth(""))
	contracts := api.Group("/contracts")
	NewContractTemplateHandler(templates).RegisterRoutes(contracts)
	NewContractInstanceHandler(instances, audit).RegisterRoutes(contracts)
	NewSweepHandler(sweeper).RegisterRoutes(contracts)
	NewDocumentEditorHandler(editor).RegisterRoutes(api.Group("/document-editor"))
	NewOnboardingHandler(onboarding).RegisterRoutes(api.Group("/onboarding"))

	return &apiEnv{db: db, router: r, employeeRepo: employeeRepo}
}

// do 发送请求并解析统一响应，data 原样保留
func (e *apiEnv) do(t *testing.T, method, path string, body any) (int, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Warning string          `json:"warning"`
}

func (r apiResponse) decode(t *testing.T, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, out), string(r.Data))
}

// doMultipart 以 file 字段上传文件
func (e *apiEnv) doMultipart(t *testing.T, path, fileName string, data []byte) (int, apiResponse) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func samplePDF(t *testing.T, pages int) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.Cell(100, 20, "Employment agreement")
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}
