package api

import (
	"net/http"

	"github.com/Domenick1991/railseat/internal/domain"
	"github.com/Domenick1991/railseat/internal/route"
	"github.com/Domenick1991/railseat/internal/service/reservation"
	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	service reservation.UseCase
}

type reserveRequest struct {
	ScheduleID    string `json:"schedule_id" binding:"required"`
	FromStationID string `json:"from_station_id" binding:"required"`
	ToStationID   string `json:"to_station_id" binding:"required"`
	NumPeople     int    `json:"num_people"`
}

type reservedResponse struct {
	ReservationID string   `json:"reservation_id"`
	ScheduleID    string   `json:"schedule_id"`
	FromStation   string   `json:"from_station"`
	ToStation     string   `json:"to_station"`
	DepartureAt   string   `json:"departure_at"`
	Seats         []string `json:"seats"`
	TotalPrice    int      `json:"total_price"`
	IsDiscounted  bool     `json:"is_discounted"`
}

type reserveResponse struct {
	Status   string           `json:"status"`
	Reserved reservedResponse `json:"reserved"`
}

type reservationIDRequest struct {
	ReservationID string `json:"reservation_id" binding:"required"`
}

type purchaseResponse struct {
	Status     string `json:"status"`
	EntryToken string `json:"entry_token"`
	Message    string `json:"message,omitempty"`
}

type entryRequest struct {
	EntryToken string `json:"entry_token" binding:"required"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type ticketResponse struct {
	ReservationID string   `json:"reservation_id"`
	ScheduleID    string   `json:"schedule_id"`
	FromStation   string   `json:"from_station"`
	ToStation     string   `json:"to_station"`
	DepartureAt   string   `json:"departure_at"`
	Seats         []string `json:"seats"`
	TotalPrice    int      `json:"total_price"`
	EntryToken    string   `json:"entry_token"`
	IsEntered     bool     `json:"is_entered"`
}

type ticketsResponse struct {
	Tickets []ticketResponse `json:"tickets"`
}

func NewReservationHandler(service reservation.UseCase) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// Register mounts the passenger endpoints on passengers, whose middleware
// resolves the user. The entry gate only needs the entry token and goes on
// public.
func (h *ReservationHandler) Register(public, passengers *gin.RouterGroup) {
	passengers.POST("/reserve", h.reserve)
	passengers.POST("/purchase", h.purchase)
	passengers.POST("/refund", h.refund)
	passengers.GET("/purchased_tickets", h.purchasedTickets)
	public.POST("/entry", h.entry)
}

// stationName falls back to the id for stations off the line.
func stationName(id string) string {
	station, err := route.Station(id)
	if err != nil {
		return id
	}
	return station.Name
}

func (h *ReservationHandler) reserve(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Reserve(c.Request.Context(), reservation.ReserveInput{
		UserID:        currentUser(c).ID,
		ScheduleID:    req.ScheduleID,
		FromStationID: req.FromStationID,
		ToStationID:   req.ToStationID,
		NumPeople:     req.NumPeople,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	res := result.Reservation
	c.JSON(http.StatusOK, reserveResponse{
		Status: string(result.Outcome),
		Reserved: reservedResponse{
			ReservationID: res.ID,
			ScheduleID:    res.ScheduleID,
			FromStation:   stationName(res.FromStationID),
			ToStation:     stationName(res.ToStationID),
			DepartureAt:   res.DepartureAt,
			Seats:         domain.SeatStrings(res.Seats),
			TotalPrice:    res.TotalPrice,
			IsDiscounted:  res.Discounted,
		},
	})
}

func (h *ReservationHandler) purchase(c *gin.Context) {
	var req reservationIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Purchase(c.Request.Context(), currentUser(c).ID, req.ReservationID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, purchaseResponse{
		Status:     string(result.Status),
		EntryToken: result.EntryToken,
		Message:    result.Message,
	})
}

func (h *ReservationHandler) entry(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := h.service.Entry(c.Request.Context(), req.EntryToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusResponse{Status: string(status)})
}

func (h *ReservationHandler) refund(c *gin.Context) {
	var req reservationIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Refund(c.Request.Context(), currentUser(c).ID, req.ReservationID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusResponse{Status: "success"})
}

func (h *ReservationHandler) purchasedTickets(c *gin.Context) {
	reservations, err := h.service.ListPurchased(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}

	tickets := make([]ticketResponse, 0, len(reservations))
	for _, res := range reservations {
		tickets = append(tickets, ticketResponse{
			ReservationID: res.ID,
			ScheduleID:    res.ScheduleID,
			FromStation:   stationName(res.FromStationID),
			ToStation:     stationName(res.ToStationID),
			DepartureAt:   res.DepartureAt,
			Seats:         domain.SeatStrings(res.Seats),
			TotalPrice:    res.TotalPrice,
			EntryToken:    res.EntryToken,
			IsEntered:     res.Status == domain.ReservationStatusEntered,
		})
	}
	c.JSON(http.StatusOK, ticketsResponse{Tickets: tickets})
}
