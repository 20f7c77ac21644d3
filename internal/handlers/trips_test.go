package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KidOfCoding/TripManagement/internal/db"
	"github.com/KidOfCoding/TripManagement/internal/middleware"
	"github.com/KidOfCoding/TripManagement/internal/models"
	"github.com/KidOfCoding/TripManagement/internal/reports"
	"github.com/KidOfCoding/TripManagement/internal/trips"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const account = "acct-x"

// MockTripService is a mock implementation of TripService
type MockTripService struct {
	mock.Mock
}

func (m *MockTripService) Create(ctx context.Context, accountID string, req *models.TripRequest) (*trips.CreateResult, error) {
	args := m.Called(ctx, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trips.CreateResult), args.Error(1)
}

func (m *MockTripService) List(ctx context.Context, accountID string, status string) ([]models.TripView, error) {
	args := m.Called(ctx, accountID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TripView), args.Error(1)
}

func (m *MockTripService) Complete(ctx context.Context, accountID, id string) (*models.TripView, error) {
	args := m.Called(ctx, accountID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TripView), args.Error(1)
}

func (m *MockTripService) Reopen(ctx context.Context, accountID, id string) (*models.TripView, error) {
	args := m.Called(ctx, accountID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TripView), args.Error(1)
}

func (m *MockTripService) SetPayment(ctx context.Context, accountID, id string, req models.PaymentRequest) (*models.TripView, error) {
	args := m.Called(ctx, accountID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TripView), args.Error(1)
}

func (m *MockTripService) Update(ctx context.Context, accountID, id string, req *models.TripRequest) (*models.TripView, error) {
	args := m.Called(ctx, accountID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TripView), args.Error(1)
}

func (m *MockTripService) Delete(ctx context.Context, accountID, id string) error {
	args := m.Called(ctx, accountID, id)
	return args.Error(0)
}

// MockReportService is a mock implementation of ReportService
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Stats(ctx context.Context, accountID string) (models.TripStats, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(models.TripStats), args.Error(1)
}

func (m *MockReportService) Duplicates(ctx context.Context, accountID string) ([]models.DuplicateSet, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DuplicateSet), args.Error(1)
}

func (m *MockReportService) People(ctx context.Context, accountID string) (*models.People, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.People), args.Error(1)
}

func (m *MockReportService) Report(ctx context.Context, accountID, startDate, endDate string) (*models.Report, error) {
	args := m.Called(ctx, accountID, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

type harness struct {
	router  *gin.Engine
	trips   *MockTripService
	reports *MockReportService
	hook    *test.Hook
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, hook := test.NewNullLogger()
	tripService := new(MockTripService)
	reportService := new(MockReportService)
	handler, err := NewTripHandler(tripService, reportService, log)
	require.NoError(t, err)

	router := gin.New()
	group := router.Group("/api/trips", func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, &models.Claims{AccountID: account})
		c.Next()
	})
	handler.RegisterRoutes(group)

	return &harness{router: router, trips: tripService, reports: reportService, hook: hook}
}

func (h *harness) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func sampleView() *models.TripView {
	return &models.TripView{
		Trip: models.Trip{
			ID:      primitive.NewObjectID(),
			TripNo:  7,
			UserID:  account,
			Route:   models.Route{Source: "Airport", Destination: "Hotel"},
			Amounts: models.Amounts{CustomerPaid: 1000, DriverPaid: 600},
			Profit:  400,
			Status:  models.Status{TripStatus: models.TripOngoing},
		},
		Driver:   &models.Driver{Name: "Sam", ContactNo: "9999999999"},
		Customer: &models.Customer{Name: "Ann", ContactNo: "8888888888"},
	}
}

const createBody = `{
	"driver": {"name": "Sam", "contactNo": "99999 99999", "moneyOut": "600"},
	"customer": {"name": "Ann", "contactNo": "888-888-8888", "moneyIn": 1000},
	"trip": {"source": "Airport", "destination": "Hotel", "car": "Sedan"}
}`

func TestTripHandler_Create(t *testing.T) {
	t.Run("new trip", func(t *testing.T) {
		h := newHarness(t)
		view := sampleView()
		h.trips.On("Create", mock.Anything, account, mock.MatchedBy(func(req *models.TripRequest) bool {
			return req.Driver.MoneyOut == 600 && req.Customer.MoneyIn == 1000 && req.Trip.Source == "Airport"
		})).Return(&trips.CreateResult{Trip: view}, nil)

		w := h.do("POST", "/api/trips", createBody)
		assert.Equal(t, http.StatusCreated, w.Code)

		out := decode(t, w)
		assert.Equal(t, true, out["success"])
		assert.Equal(t, "Trip created successfully", out["message"])
		trip := out["trip"].(map[string]interface{})
		assert.Equal(t, float64(7), trip["tripNo"])
		assert.Equal(t, "Sam", trip["driverId"].(map[string]interface{})["name"])
		h.trips.AssertExpectations(t)
	})

	t.Run("reused trip", func(t *testing.T) {
		h := newHarness(t)
		h.trips.On("Create", mock.Anything, account, mock.Anything).
			Return(&trips.CreateResult{Trip: sampleView(), Reused: true}, nil)

		w := h.do("POST", "/api/trips", createBody)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Existing trip reused", decode(t, w)["message"])
	})

	t.Run("bad phone is rejected by binding", func(t *testing.T) {
		h := newHarness(t)
		body := `{"driver":{"name":"Sam","contactNo":"12345"},"customer":{"name":"Ann","contactNo":"8888888888"},"trip":{"source":"A","destination":"B"}}`

		w := h.do("POST", "/api/trips", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, false, decode(t, w)["success"])
		h.trips.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing source is rejected by binding", func(t *testing.T) {
		h := newHarness(t)
		body := `{"driver":{"name":"Sam","contactNo":"9999999999"},"customer":{"name":"Ann","contactNo":"8888888888"},"trip":{"destination":"B"}}`

		w := h.do("POST", "/api/trips", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		h := newHarness(t)
		w := h.do("POST", "/api/trips", `{"driver":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("service validation error", func(t *testing.T) {
		h := newHarness(t)
		h.trips.On("Create", mock.Anything, account, mock.Anything).
			Return(nil, fmt.Errorf("%w: invalid trip status", trips.ErrValidation))

		w := h.do("POST", "/api/trips", createBody)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w)["message"], "invalid trip status")
	})

	t.Run("store failure is hidden and logged", func(t *testing.T) {
		h := newHarness(t)
		h.trips.On("Create", mock.Anything, account, mock.Anything).
			Return(nil, errors.New("connection reset"))

		w := h.do("POST", "/api/trips", createBody)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decode(t, w)["message"])
		require.NotNil(t, h.hook.LastEntry())
		assert.Equal(t, logrus.ErrorLevel, h.hook.LastEntry().Level)
		assert.Equal(t, account, h.hook.LastEntry().Data["account_id"])
	})

	t.Run("duplicate key conflict", func(t *testing.T) {
		h := newHarness(t)
		h.trips.On("Create", mock.Anything, account, mock.Anything).
			Return(nil, fmt.Errorf("failed to resolve driver: %w", db.ErrDuplicateKey))

		w := h.do("POST", "/api/trips", createBody)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestTripHandler_List(t *testing.T) {
	h := newHarness(t)
	h.trips.On("List", mock.Anything, account, "ongoing").Return([]models.TripView{*sampleView(), *sampleView()}, nil)
	h.trips.On("List", mock.Anything, account, "").Return(nil, nil)

	w := h.do("GET", "/api/trips?status=ongoing", "")
	assert.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, float64(2), out["count"])
	assert.Len(t, out["trips"], 2)

	w = h.do("GET", "/api/trips", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"count":0,"trips":[]}`, w.Body.String())
}

func TestTripHandler_StatusTransitions(t *testing.T) {
	h := newHarness(t)
	done := sampleView()
	done.Status.TripStatus = models.TripDone
	id := done.ID.Hex()

	h.trips.On("Complete", mock.Anything, account, id).Return(done, nil)
	h.trips.On("Reopen", mock.Anything, account, id).Return(sampleView(), nil)
	h.trips.On("Complete", mock.Anything, account, "missing").Return(nil, fmt.Errorf("failed to find trip: %w", db.ErrNotFound))

	w := h.do("PATCH", "/api/trips/"+id+"/complete", "")
	assert.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "done", out["trip"].(map[string]interface{})["status"].(map[string]interface{})["tripStatus"])

	w = h.do("PATCH", "/api/trips/"+id+"/reopen", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do("PATCH", "/api/trips/missing/complete", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Trip not found"}`, w.Body.String())
}

func TestTripHandler_SetPayment(t *testing.T) {
	h := newHarness(t)
	view := sampleView()
	view.Status.CustomerPaid = true
	id := view.ID.Hex()

	h.trips.On("SetPayment", mock.Anything, account, id, mock.MatchedBy(func(req models.PaymentRequest) bool {
		return req.CustomerPaid != nil && *req.CustomerPaid && req.DriverPaid == nil
	})).Return(view, nil)
	h.trips.On("SetPayment", mock.Anything, account, id, models.PaymentRequest{}).
		Return(nil, fmt.Errorf("%w: nothing to update", trips.ErrValidation))

	w := h.do("PATCH", "/api/trips/"+id+"/payment", `{"customerPaid":true}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do("PATCH", "/api/trips/"+id+"/payment", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTripHandler_Update(t *testing.T) {
	h := newHarness(t)
	view := sampleView()
	id := view.ID.Hex()
	body := `{
		"driver": {"name": "Sam", "contactNo": "9999999999", "moneyOut": 600},
		"customer": {"name": "Ann", "contactNo": "8888888888", "moneyIn": 1000},
		"trip": {"source": "Airport", "destination": "Hotel", "status": "done", "driverPayEnabled": false,
			"closingExpenses": [{"expenseType": "Parking", "amount": 150}]}
	}`

	h.trips.On("Update", mock.Anything, account, id, mock.MatchedBy(func(req *models.TripRequest) bool {
		return req.IsClose(models.TripOngoing) && req.Trip.DriverPayEnabled != nil && !*req.Trip.DriverPayEnabled &&
			len(req.Trip.ClosingExpenses) == 1
	})).Return(view, nil)

	w := h.do("PUT", "/api/trips/"+id, body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Trip updated successfully", decode(t, w)["message"])
	h.trips.AssertExpectations(t)
}

func TestTripHandler_CloseWithBlankSettlement(t *testing.T) {
	h := newHarness(t)
	view := sampleView()
	id := view.ID.Hex()
	body := `{
		"trip": {"source": "Airport", "destination": "Hotel", "status": "done",
			"stops": [{"location": "Hotel", "expenses": [{"type": "Toll", "amount": 50}]}],
			"intermediateStays": [],
			"closingExpenses": [],
			"paymentDetails": {"amount": "", "voucherNo": "", "mode": "cash", "notes": ""}},
		"driver": {"name": "Sam", "contactNo": "9999999999", "moneyOut": 600},
		"customer": {"name": "Ann", "contactNo": "8888888888", "address": "", "moneyIn": 1000}
	}`

	h.trips.On("Update", mock.Anything, account, id, mock.MatchedBy(func(req *models.TripRequest) bool {
		return req.Trip.PaymentDetails != nil && req.Trip.PaymentDetails.Amount == 0 &&
			req.Trip.PaymentDetails.Mode == "cash"
	})).Return(view, nil)

	w := h.do("PUT", "/api/trips/"+id, body)
	assert.Equal(t, http.StatusOK, w.Code)
	h.trips.AssertExpectations(t)
}

func TestTripHandler_Delete(t *testing.T) {
	h := newHarness(t)
	h.trips.On("Delete", mock.Anything, account, "abc").Return(nil)
	h.trips.On("Delete", mock.Anything, account, "gone").Return(db.ErrNotFound)

	w := h.do("DELETE", "/api/trips/abc", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Trip deleted successfully"}`, w.Body.String())

	w = h.do("DELETE", "/api/trips/gone", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTripHandler_Stats(t *testing.T) {
	h := newHarness(t)
	h.reports.On("Stats", mock.Anything, account).Return(models.TripStats{
		Today: models.PeriodTotals{TotalProfit: 400, TotalDriverPay: 600, TotalCustomerPay: 1000, Count: 1},
	}, nil)

	w := h.do("GET", "/api/trips/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["stats"].(map[string]interface{})
	assert.Equal(t, float64(400), stats["today"].(map[string]interface{})["totalProfit"])
	assert.Equal(t, float64(0), stats["month"].(map[string]interface{})["count"])
}

func TestTripHandler_DuplicatesAndPeople(t *testing.T) {
	h := newHarness(t)
	h.reports.On("Duplicates", mock.Anything, account).Return(nil, nil)
	h.reports.On("People", mock.Anything, account).Return(&models.People{
		Drivers:   []models.DriverSummary{{Name: "Sam", TotalTrips: 2, TotalEarned: 1200}},
		Customers: []models.CustomerSummary{},
	}, nil)

	w := h.do("GET", "/api/trips/duplicates", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"duplicates":[]}`, w.Body.String())

	w = h.do("GET", "/api/trips/people", "")
	assert.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Len(t, out["drivers"], 1)
	assert.Len(t, out["customers"], 0)
}

func TestTripHandler_Report(t *testing.T) {
	h := newHarness(t)
	report := &models.Report{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-02",
		Trips:     []models.TripView{*sampleView()},
		Totals:    models.ReportTotals{CustomerPaid: 1000, DriverPaid: 600, Profit: 400, Count: 1},
	}
	h.reports.On("Report", mock.Anything, account, "2024-03-01", "2024-03-02").Return(report, nil)
	h.reports.On("Report", mock.Anything, account, "2024-03-05", "2024-03-01").
		Return(nil, fmt.Errorf("%w: startDate is after endDate", reports.ErrInvalidRange))

	w := h.do("GET", "/api/trips/report?startDate=2024-03-01&endDate=2024-03-02", "")
	assert.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)["report"].(map[string]interface{})
	assert.Equal(t, "2024-03-01", out["startDate"])
	assert.Equal(t, float64(400), out["totals"].(map[string]interface{})["profit"])

	w = h.do("GET", "/api/trips/report?startDate=2024-03-05&endDate=2024-03-01", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTripHandler_ExportReport(t *testing.T) {
	h := newHarness(t)
	report := &models.Report{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-02",
		Trips:     []models.TripView{*sampleView()},
		Totals:    models.ReportTotals{CustomerPaid: 1000, DriverPaid: 600, Profit: 400, Count: 1},
	}
	h.reports.On("Report", mock.Anything, account, "2024-03-01", "2024-03-02").Return(report, nil)

	w := h.do("GET", "/api/trips/report/export?startDate=2024-03-01&endDate=2024-03-02", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="trips_2024-03-01_2024-03-02.xlsx"`, w.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Trips")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestValidatePhone10(t *testing.T) {
	require.NoError(t, RegisterValidators())

	type form struct {
		Phone string `binding:"phone10"`
	}
	cases := map[string]bool{
		"9999999999":     true,
		"+99 999-999-99": true,
		"(999) 999.9999": true,
		"12345":          false,
		"99999999999":    false,
		"":               false,
	}
	for phone, ok := range cases {
		err := binding.Validator.ValidateStruct(form{Phone: phone})
		assert.Equal(t, ok, err == nil, phone)
	}
}
