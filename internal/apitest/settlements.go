package apitest

import (
	"net/http"

	"github.com/mmynk/extracker/internal/middleware"
	"github.com/mmynk/extracker/internal/models"
)

// AddSettlement records a settlement owed by username and returns its id.
// A zero PaymentStatus means Pending.
func (b *Backend) AddSettlement(username string, s models.Settlement) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.ID == 0 {
		s.ID = b.id()
	} else if s.ID > b.nextID {
		b.nextID = s.ID
	}
	if s.PaymentStatus == "" {
		s.PaymentStatus = models.StatusPending
	}
	b.settlements = append(b.settlements, &settlement{Settlement: s, username: username})
	return s.ID
}

// Settlement returns a settlement by id.
func (b *Backend) Settlement(id int64) (models.Settlement, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.settlements {
		if s.ID == id {
			return s.Settlement, true
		}
	}
	return models.Settlement{}, false
}

// SettlementsOf returns the settlements owed by username.
func (b *Backend) SettlementsOf(username string) []models.Settlement {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settlementsOfLocked(username)
}

func (b *Backend) settlementsOfLocked(username string) []models.Settlement {
	out := []models.Settlement{}
	for _, s := range b.settlements {
		if s.username == username {
			out = append(out, s.Settlement)
		}
	}
	return out
}

func (b *Backend) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r.Context())

	b.mu.Lock()
	list := b.settlementsOfLocked(username)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"settlements": list})
}

func (b *Backend) handleUpdateSettlement(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "settlementId")
	var req struct {
		PaymentStatus models.PaymentStatus `json:"payment_status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	username := middleware.GetUsername(r.Context())
	b.mu.Lock()
	defer b.mu.Unlock()

	var target *settlement
	for _, s := range b.settlements {
		if s.ID == id && s.username == username {
			target = s
			break
		}
	}
	if target == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No Settlement matches the given query."})
		return
	}
	if !req.PaymentStatus.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid Payment Status")
		return
	}
	target.PaymentStatus = req.PaymentStatus
	writeMessage(w, http.StatusOK, "Payment status updated successfully!")
}
