package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	kafkax "github.com/ariefcatur/go-repair-shop/internal/kafka"
	"github.com/ariefcatur/go-repair-shop/internal/optimizer"
	"github.com/ariefcatur/go-repair-shop/internal/repairs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type RepairStore interface {
	ListAllParts(ctx context.Context) ([]repairs.Part, error)
	GetOrder(ctx context.Context, id string) (repairs.RepairOrder, error)
	ListOrderParts(ctx context.Context, orderID string) ([]repairs.PartDetail, error)
	UpdateOrderStatus(ctx context.Context, orderID string, next repairs.Status) (repairs.Status, error)
	AdjustPartStock(ctx context.Context, partID string, delta int) (int, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type RankingInvalidator interface {
	Invalidate(ctx context.Context) error
}

type RepairsHandler struct {
	Optimizer    optimizer.Selector
	Repo         RepairStore
	Ranking      RankingInvalidator // optional
	StatusEvents Publisher          // publish repair.order.status_changed
	StockEvents  Publisher          // publish inventory.part.stock_changed
	Service      string
	Log          *zap.Logger
}

type UpdateStatusReq struct {
	Status repairs.Status `json:"status"`
}

type UpdateStatusResp struct {
	RepairOrderID string         `json:"repair_order_id"`
	From          repairs.Status `json:"from"`
	Status        repairs.Status `json:"status"`
}

type AdjustStockReq struct {
	Delta int `json:"delta"`
}

type AdjustStockResp struct {
	PartID        string `json:"part_id"`
	StockQuantity int    `json:"stock_quantity"`
}

func (h *RepairsHandler) Register(r chi.Router) {
	r.Get("/optimized-orders", h.optimizedOrders)
	r.Get("/parts", h.listParts)
	r.Post("/parts/{id}/stock", h.adjustStock)
	r.Get("/repair-orders/{id}", h.getOrder)
	r.Get("/repair-orders/{id}/parts", h.listOrderParts)
	r.Patch("/repair-orders/{id}/status", h.updateStatus)
}

func (h *RepairsHandler) optimizedOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.Optimizer.SelectOrdersByProfit(ctx)
	if err != nil {
		h.log().Warn("optimization failed", zap.Error(err))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *RepairsHandler) listParts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Repo.ListAllParts(ctx)
	if err != nil {
		h.log().Error("list parts", zap.Error(err))
		writeDomainError(w, err)
		return
	}
	if ps == nil {
		ps = []repairs.Part{}
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *RepairsHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Repo.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *RepairsHandler) listOrderParts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ds, err := h.Repo.ListOrderParts(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (h *RepairsHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req UpdateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid json")
		return
	}
	if !req.Status.Valid() {
		writeDomainError(w, repairs.ErrInvalidStatus)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	from, err := h.Repo.UpdateOrderStatus(ctx, orderID, req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.invalidateRanking(ctx)
	h.publish(r, h.StatusEvents, orderID, repairs.EventOrderStatusChanged, repairs.OrderStatusChangedPayload{
		RepairOrderID: orderID,
		From:          from,
		To:            req.Status,
	})

	writeJSON(w, http.StatusOK, UpdateStatusResp{RepairOrderID: orderID, From: from, Status: req.Status})
}

func (h *RepairsHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	partID := chi.URLParam(r, "id")

	var req AdjustStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid json")
		return
	}
	if req.Delta == 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "delta must not be zero")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	qty, err := h.Repo.AdjustPartStock(ctx, partID, req.Delta)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.invalidateRanking(ctx)
	h.publish(r, h.StockEvents, partID, repairs.EventPartStockChanged, repairs.PartStockChangedPayload{
		PartID:        partID,
		Delta:         req.Delta,
		StockQuantity: qty,
	})

	writeJSON(w, http.StatusOK, AdjustStockResp{PartID: partID, StockQuantity: qty})
}

// invalidateRanking drops the cached ranking right away; the inventory
// watcher does the same for changes made by other writers.
func (h *RepairsHandler) invalidateRanking(ctx context.Context) {
	if h.Ranking == nil {
		return
	}
	if err := h.Ranking.Invalidate(ctx); err != nil {
		h.log().Warn("invalidate ranking", zap.Error(err))
	}
}

func (h *RepairsHandler) publish(r *http.Request, p Publisher, key, eventType string, payload any) {
	if p == nil {
		return
	}
	ev := repairs.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  repairs.EventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       middleware.GetReqID(r.Context()),
		CorrelationID: key,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(repairs.PartitionKey(key), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *RepairsHandler) log() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}
