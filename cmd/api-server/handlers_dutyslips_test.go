package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/exceltravels/duty-track/internal/ctxstore"
	"github.com/exceltravels/duty-track/internal/database"
	"github.com/exceltravels/duty-track/internal/model"
)

type fakeSlipStore struct {
	slips         map[string]model.DutySlip
	completeCalls int
}

func (s *fakeSlipStore) Get(ctx context.Context, id string) (model.DutySlip, error) {
	slip, ok := s.slips[id]
	if !ok {
		return model.DutySlip{}, model.NewError("duty slip", model.ErrNotFound)
	}
	return slip, nil
}

func (s *fakeSlipStore) Insert(ctx context.Context, dto database.InsertDutySlipDTO) (model.ID, error) {
	if _, ok := s.slips[dto.DutySlipID]; ok {
		return 0, model.NewError("duty slip", model.ErrExists)
	}
	s.slips[dto.DutySlipID] = model.DutySlip{DutySlipID: dto.DutySlipID, Status: model.StatusPending}
	return model.ID(len(s.slips)), nil
}

func (s *fakeSlipStore) Complete(ctx context.Context, id string, c model.Completion) (model.DutySlip, error) {
	s.completeCalls++

	slip, ok := s.slips[id]
	if !ok {
		return model.DutySlip{}, model.NewError("duty slip", model.ErrNotFound)
	}
	if slip.Completed() {
		return model.DutySlip{}, model.NewError("duty slip", model.ErrCompleted)
	}

	slip.StartKM = c.StartKM
	slip.EndKM = c.EndKM
	slip.StartKMPhoto = &c.StartKMPhoto
	slip.EndKMPhoto = &c.EndKMPhoto
	slip.TollFees = c.TollFees
	slip.ParkingFees = c.ParkingFees
	slip.Status = model.StatusCompleted
	now := time.Now()
	slip.ModifiedAt = &now

	s.slips[id] = slip
	return slip, nil
}

func (s *fakeSlipStore) Update(ctx context.Context, id string, dto database.UpdateDutySlipDTO) (model.DutySlip, error) {
	slip, ok := s.slips[id]
	if !ok {
		return model.DutySlip{}, model.NewError("duty slip", model.ErrNotFound)
	}
	if slip.Completed() {
		return model.DutySlip{}, model.NewError("duty slip", model.ErrCompleted)
	}

	if dto.TollFees != nil {
		slip.TollFees = *dto.TollFees
	}
	if dto.Status != nil {
		slip.Status = *dto.Status
	}
	now := time.Now()
	slip.ModifiedAt = &now

	s.slips[id] = slip
	return slip, nil
}

func (s *fakeSlipStore) MarkInProgress(ctx context.Context, id string) error {
	slip, ok := s.slips[id]
	if ok && slip.Status == model.StatusPending {
		slip.Status = model.StatusInProgress
		s.slips[id] = slip
	}
	return nil
}

func (s *fakeSlipStore) FindCompleted(ctx context.Context, filter database.HistoryFilter) ([]model.DutySlip, error) {
	out := []model.DutySlip{}
	for _, slip := range s.slips {
		if slip.Completed() {
			out = append(out, slip)
		}
	}
	return out, nil
}

func newTestApplication(store dutySlipStore) *application {
	return &application{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		slips:  func(*slog.Logger) dutySlipStore { return store },
	}
}

func newSlipRequest(t *testing.T, method, dutySlipID, body string) *http.Request {
	t.Helper()

	r := httptest.NewRequest(method, "/api/v1/duty-slips/"+dutySlipID, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", dutySlipID)

	ctx := ctxstore.With(r.Context(), _traceIDKey, "test-trace")
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)

	return r.WithContext(ctx)
}

const completeBody = `{"manualStartKm":100,"manualEndKm":150,` +
	`"startKmImageUrl":"http://localhost:8080/uploads/duty-slips/DS100/start-km.jpg",` +
	`"endKmImageUrl":"http://localhost:8080/uploads/duty-slips/DS100/end-km.jpg",` +
	`"tollFees":20,"timestampStart":"09:00","timestampEnd":"12:30"}`

func TestCompleteDutySlip(t *testing.T) {
	store := &fakeSlipStore{slips: map[string]model.DutySlip{
		"DS100": {DutySlipID: "DS100", Status: model.StatusPending},
	}}
	app := newTestApplication(store)

	w := httptest.NewRecorder()
	app.handleCompleteDutySlip(w, newSlipRequest(t, http.MethodPost, "DS100", completeBody))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", w.Code, w.Body)
	}

	var got struct {
		Message  string         `json:"message"`
		DutySlip model.DutySlip `json:"dutySlip"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}

	if got.Message != "Trip data saved successfully" {
		t.Errorf("got message %q", got.Message)
	}
	if got.DutySlip.Status != model.StatusCompleted {
		t.Errorf("got status %q, want completed", got.DutySlip.Status)
	}
	if got.DutySlip.ModifiedAt == nil {
		t.Error("completion should set modifiedAt")
	}
	if stored := store.slips["DS100"]; !stored.Completed() {
		t.Error("stored slip not completed")
	}
}

func TestCompleteDutySlipTerminal(t *testing.T) {
	now := time.Now()
	store := &fakeSlipStore{slips: map[string]model.DutySlip{
		"DS100": {DutySlipID: "DS100", Status: model.StatusCompleted, ModifiedAt: &now},
	}}
	app := newTestApplication(store)

	w := httptest.NewRecorder()
	app.handleCompleteDutySlip(w, newSlipRequest(t, http.MethodPost, "DS100", completeBody))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400: %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "Duty slip already completed") {
		t.Errorf("unexpected body: %s", w.Body)
	}
	if store.completeCalls != 0 {
		t.Error("completed slip should be rejected before anything is written")
	}
}

// racingSlipStore reads as pending but loses the completion race, as a
// concurrent second request would against the guarded update.
type racingSlipStore struct {
	*fakeSlipStore
}

func (s *racingSlipStore) Complete(ctx context.Context, id string, c model.Completion) (model.DutySlip, error) {
	return model.DutySlip{}, model.NewError("duty slip", model.ErrCompleted)
}

func TestCompleteDutySlipLostRace(t *testing.T) {
	store := &racingSlipStore{fakeSlipStore: &fakeSlipStore{slips: map[string]model.DutySlip{
		"DS100": {DutySlipID: "DS100", Status: model.StatusPending},
	}}}
	app := newTestApplication(store)

	w := httptest.NewRecorder()
	app.handleCompleteDutySlip(w, newSlipRequest(t, http.MethodPost, "DS100", completeBody))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400: %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "Duty slip already completed") {
		t.Errorf("unexpected body: %s", w.Body)
	}
}

func TestCompleteDutySlipNotFound(t *testing.T) {
	store := &fakeSlipStore{slips: map[string]model.DutySlip{}}
	app := newTestApplication(store)

	w := httptest.NewRecorder()
	app.handleCompleteDutySlip(w, newSlipRequest(t, http.MethodPost, "DS404", completeBody))

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404: %s", w.Code, w.Body)
	}
	if store.completeCalls != 0 {
		t.Error("unknown slip should be rejected before anything is written")
	}
}

func TestUpdateDutySlipTerminal(t *testing.T) {
	now := time.Now()
	store := &fakeSlipStore{slips: map[string]model.DutySlip{
		"DS100": {DutySlipID: "DS100", Status: model.StatusCompleted, ModifiedAt: &now},
	}}
	app := newTestApplication(store)

	w := httptest.NewRecorder()
	app.handleUpdateDutySlip(w, newSlipRequest(t, http.MethodPut, "DS100", `{"tollFees":25}`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400: %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "Duty slip already completed") {
		t.Errorf("unexpected body: %s", w.Body)
	}
	if store.slips["DS100"].TollFees == 25 {
		t.Error("completed slip was mutated")
	}
}
