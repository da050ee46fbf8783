package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rail-ticket-reservation/internal/model"
	"github.com/iliyamo/rail-ticket-reservation/internal/service"
	"github.com/iliyamo/rail-ticket-reservation/internal/utils"
)

// ReservationHandler exposes the order/ticket lifecycle to passengers.
type ReservationHandler struct {
	Resv *service.ReservationService
}

func NewReservationHandler(resv *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{Resv: resv}
}

type bookReq struct {
	TrainNumber   string `json:"train_number" validate:"required"`
	CarriageIndex int    `json:"carriage_index" validate:"required,min=1"`
	SeatNumber    int    `json:"seat_number" validate:"required,min=1"`
	DepartDate    string `json:"depart_date" validate:"required"`
	From          string `json:"from" validate:"required"`
	To            string `json:"to" validate:"required"`
}

type orderResp struct {
	ID            uint64  `json:"id"`
	TrainNumber   string  `json:"train_number"`
	CarriageIndex int     `json:"carriage_index"`
	SeatNumber    int     `json:"seat_number"`
	DepartDate    string  `json:"depart_date"`
	Price         float64 `json:"price"`
	Status        string  `json:"status"`
	CreateDate    string  `json:"create_date"`
}

type ticketResp struct {
	ID            uint64 `json:"id"`
	OrderID       uint64 `json:"order_id"`
	TrainNumber   string `json:"train_number"`
	CarriageIndex int    `json:"carriage_index"`
	SeatNumber    int    `json:"seat_number"`
	DepartDate    string `json:"depart_date"`
	Printed       bool   `json:"printed"`
}

func toOrderResp(o *model.Order) orderResp {
	return orderResp{
		ID:            o.ID,
		TrainNumber:   o.TrainNumber,
		CarriageIndex: o.CarriageIndex,
		SeatNumber:    o.SeatNumber,
		DepartDate:    o.DepartDate.Format(dateLayout),
		Price:         o.Price,
		Status:        o.Status,
		CreateDate:    o.CreateDate.Format(time.RFC3339),
	}
}

func toTicketResp(t *model.Ticket) ticketResp {
	return ticketResp{
		ID:            t.ID,
		OrderID:       t.OrderID,
		TrainNumber:   t.TrainNumber,
		CarriageIndex: t.CarriageIndex,
		SeatNumber:    t.SeatNumber,
		DepartDate:    t.DepartDate.Format(dateLayout),
		Printed:       t.Printed,
	}
}

// Book places an order for one seat on one departure date.
func (h *ReservationHandler) Book(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := utils.Validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing or invalid booking fields"})
	}
	date, err := time.Parse(dateLayout, req.DepartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "depart_date must be YYYY-MM-DD"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	order, err := h.Resv.Book(ctx, service.BookRequest{
		UserID:        uid,
		TrainNumber:   req.TrainNumber,
		CarriageIndex: req.CarriageIndex,
		SeatNumber:    req.SeatNumber,
		DepartDate:    date,
		DepartStation: req.From,
		ArriveStation: req.To,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toOrderResp(order))
}

// Issue pays for a booked order, producing its ticket.
func (h *ReservationHandler) Issue(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	order, err := h.Resv.Order(ctx, orderID)
	if err != nil {
		return fail(c, err)
	}
	if order.UserID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your order"})
	}

	ticket, err := h.Resv.IssueTicket(ctx, orderID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toTicketResp(ticket))
}

// Printed flips a ticket's printed flag, succeeding on repeats.
func (h *ReservationHandler) Printed(c echo.Context) error {
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Resv.MarkPrinted(ctx, ticketID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Cancel voids a booked order before payment.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	order, err := h.Resv.Order(ctx, orderID)
	if err != nil {
		return fail(c, err)
	}
	if order.UserID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your order"})
	}

	if err := h.Resv.CancelOrder(ctx, orderID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List returns the caller's orders, newest first.
func (h *ReservationHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	orders, err := h.Resv.Orders(ctx, uid)
	if err != nil {
		return fail(c, err)
	}
	out := make([]orderResp, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResp(&orders[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": out})
}
