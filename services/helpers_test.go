package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"doc-booking/configuration"
	"doc-booking/models"
	"doc-booking/payment"
	"doc-booking/receipt"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

var ist = time.FixedZone("IST", 5*3600+1800)

// testNow is 07:00 on 2026-03-10 in IST.
var testNow = time.Date(2026, 3, 10, 7, 0, 0, 0, ist)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, configuration.Migrate(db))
	return db
}

// testClock is a settable clock shared by the services under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock { return &testClock{now: testNow} }

func (c *testClock) Clock() Clock {
	return Clock{Loc: ist, Now: func() time.Time {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.now
	}}
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedDoctor(t *testing.T, db *gorm.DB, name string, spec models.Specialization, fee string) *models.Doctor {
	t.Helper()
	d := &models.Doctor{
		Name:           name,
		Specialization: spec,
		Experience:     10,
		Hospital:       "City Hospital",
		City:           "Pune",
		Fee:            decimal.RequireFromString(fee),
		IsAvailable:    true,
	}
	require.NoError(t, db.Create(d).Error)
	return d
}

// seedAppointment stores an appointment directly, bypassing booking rules.
func seedAppointment(t *testing.T, db *gorm.DB, userID, doctorID uint, date, hhmm string, status models.AppointmentStatus) *models.Appointment {
	t.Helper()
	a := &models.Appointment{
		UserID:          userID,
		DoctorID:        doctorID,
		PatientName:     "Asha",
		AppointmentDate: date,
		AppointmentTime: hhmm,
		Status:          status,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

func reload(t *testing.T, db *gorm.DB, id uint) models.Appointment {
	t.Helper()
	var a models.Appointment
	require.NoError(t, db.First(&a, id).Error)
	return a
}

type fakeGateway struct {
	mu        sync.Mutex
	orders    map[string]payment.Order
	seq       int
	createErr error
	created   []payment.OrderRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{orders: map[string]payment.Order{}}
}

func (g *fakeGateway) CreateOrder(_ context.Context, req payment.OrderRequest) (payment.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return payment.Order{}, g.createErr
	}
	g.seq++
	o := payment.Order{ID: fmt.Sprintf("order_%d", g.seq), AmountMinor: req.AmountMinor, Currency: req.Currency, Status: "created", Notes: req.Notes}
	g.orders[o.ID] = o
	g.created = append(g.created, req)
	return o, nil
}

func (g *fakeGateway) FetchOrder(_ context.Context, id string) (payment.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[id]
	if !ok {
		return payment.Order{}, errors.New("order not found")
	}
	return o, nil
}

func (g *fakeGateway) markPaid(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o := g.orders[id]
	o.Status = payment.OrderPaid
	g.orders[id] = o
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return payment.VerifySignature(orderID, paymentID, signature, testSecret)
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

type fakeRenderer struct {
	last receipt.Data
}

func (r *fakeRenderer) Render(d receipt.Data) ([]byte, error) {
	r.last = d
	return []byte("%PDF-fake"), nil
}
