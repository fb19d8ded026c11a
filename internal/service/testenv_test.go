package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/hrms-go/backend/config"
	"github.com/hrms-go/backend/internal/eventbus"
	"github.com/hrms-go/backend/internal/model"
	"github.com/hrms-go/backend/internal/pkg/database"
	"github.com/hrms-go/backend/internal/pkg/storage"
	"github.com/hrms-go/backend/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db             *gorm.DB
	store          storage.Storage
	bus            *eventbus.ContractEventBus
	instanceRepo   repository.InstanceRepository
	onboardingRepo repository.OnboardingRepository
	employeeRepo   repository.EmployeeRepository
	templates      TemplateService
	instances      InstanceService
	audit          AuditService
	onboarding     OnboardingService
	sweeper        SweeperService
	editor         DocumentEditorService

	mu     sync.Mutex
	events []eventbus.ContractEvent
}

var testContractConfig = config.ContractConfig{
	DefaultExpiresInDays: 30,
	ReminderAfterDays:    3,
	SignBaseURL:          "https://hr.example.com/sign",
	CompanyName:          "Acme",
}

func newTestEnv(t *testing.T, policies ...config.OnboardingDocumentPolicy) *testEnv {
	t.Helper()
	db, err := database.InitDB("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	store, err := storage.NewLocal(filepath.Join(t.TempDir(), "files"))
	require.NoError(t, err)

	env := &testEnv{
		db:             db,
		store:          store,
		bus:            eventbus.NewContractEventBus(),
		instanceRepo:   repository.NewInstanceRepository(db),
		onboardingRepo: repository.NewOnboardingRepository(db),
		employeeRepo:   repository.NewEmployeeRepository(db),
	}
	templateRepo := repository.NewTemplateRepository(db)
	env.audit = NewAuditService(repository.NewAuditLogRepository(db), env.instanceRepo)
	env.templates = NewTemplateService(templateRepo, store)
	env.instances = NewInstanceService(testContractConfig, env.instanceRepo, templateRepo, store, env.audit, env.bus)
	env.onboarding = NewOnboardingService(policies, env.onboardingRepo, env.employeeRepo, env.instances)
	env.sweeper = NewSweeperService(testContractConfig, env.instanceRepo, env.onboardingRepo, env.instances)
	env.editor = NewDocumentEditorService(env.templates, store)

	record := func(ctx context.Context, event eventbus.ContractEvent) error {
		env.mu.Lock()
		env.events = append(env.events, event)
		env.mu.Unlock()
		return nil
	}
	for _, typ := range []eventbus.ContractEventType{
		eventbus.ContractEventSent, eventbus.ContractEventViewed, eventbus.ContractEventInProgress,
		eventbus.ContractEventCompleted, eventbus.ContractEventDeclined, eventbus.ContractEventCancelled,
		eventbus.ContractEventExpired, eventbus.ContractEventReminder,
	} {
		env.bus.Subscribe(typ, record)
	}
	syncOnboarding := func(ctx context.Context, event eventbus.ContractEvent) error {
		_, err := env.onboarding.SyncContractStatus(ctx, event.Instance.ID, event.Instance.Status)
		return err
	}
	env.bus.Subscribe(eventbus.ContractEventSent, syncOnboarding)
	env.bus.Subscribe(eventbus.ContractEventInProgress, syncOnboarding)
	env.bus.Subscribe(eventbus.ContractEventCompleted, syncOnboarding)
	return env
}

func (e *testEnv) eventsOf(typ eventbus.ContractEventType) []eventbus.ContractEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []eventbus.ContractEvent
	for _, ev := range e.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (e *testEnv) createTemplate(t *testing.T, name string, fields ...TemplateFieldInput) *model.ContractTemplate {
	t.Helper()
	tpl, err := e.templates.Create(context.Background(), CreateContractTemplateRequest{
		Name:     name,
		Category: model.TemplateCategoryNDA,
		Region:   model.TemplateRegionGlobal,
		Fields:   fields,
	}, model.SystemActor())
	require.NoError(t, err)
	return tpl
}

func (e *testEnv) createInstance(t *testing.T, templateID uint, days int) *model.ContractInstance {
	t.Helper()
	inst, err := e.instances.Create(context.Background(), CreateInstanceRequest{
		TemplateID:     templateID,
		RecipientEmail: "jane@example.com",
		RecipientName:  "Jane Doe",
		ExpiresInDays:  &days,
	}, model.SystemActor())
	require.NoError(t, err)
	return inst
}

func (e *testEnv) createEmployee(t *testing.T) *model.Employee {
	t.Helper()
	emp := &model.Employee{Name: "Jane Doe", Email: "jane@example.com", Department: "Engineering"}
	require.NoError(t, e.employeeRepo.Create(context.Background(), emp))
	return emp
}

func (e *testEnv) auditActions(t *testing.T, instanceID uint) []string {
	t.Helper()
	logs, err := e.audit.List(context.Background(), instanceID)
	require.NoError(t, err)
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	return actions
}

func samplePDF(t *testing.T, pages int) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := 1; i <= pages; i++ {
		pdf.AddPage()
		pdf.Cell(200, 20, fmt.Sprintf("page %d", i))
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func samplePNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
