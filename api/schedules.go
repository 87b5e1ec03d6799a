package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/railseat/internal/domain"
	"github.com/Domenick1991/railseat/internal/service/schedules"
	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	service schedules.UseCase
}

type addTrainRequest struct {
	TrainName      string   `json:"train_name" binding:"required"`
	ModelName      string   `json:"model_name" binding:"required"`
	DepartureTimes []string `json:"departure_times" binding:"required"`
}

type schedulesResponse struct {
	Schedules []schedules.ScheduleView `json:"schedules"`
}

type stationsResponse struct {
	Stations []domain.Station `json:"stations"`
}

type trainModelsResponse struct {
	ModelNames []string `json:"model_names"`
}

type addTrainResponse struct {
	Status      string   `json:"status"`
	TrainID     int64    `json:"train_id"`
	ScheduleIDs []string `json:"schedule_ids"`
}

func NewScheduleHandler(service schedules.UseCase) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

func (h *ScheduleHandler) Register(router *gin.RouterGroup, admin gin.HandlerFunc) {
	router.GET("/schedules", h.list)
	router.GET("/stations", h.stations)
	router.GET("/current_time", h.currentTime)
	router.GET("/train_models", h.trainModels)
	router.POST("/initialize", h.initialize)
	router.POST("/admin/add_train", admin, h.addTrain)
}

func (h *ScheduleHandler) list(c *gin.Context) {
	views, err := h.service.ListUpcoming(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedulesResponse{Schedules: views})
}

func (h *ScheduleHandler) stations(c *gin.Context) {
	c.JSON(http.StatusOK, stationsResponse{Stations: h.service.Stations()})
}

func (h *ScheduleHandler) trainModels(c *gin.Context) {
	names, err := h.service.TrainModels(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trainModelsResponse{ModelNames: names})
}

func (h *ScheduleHandler) currentTime(c *gin.Context) {
	now, err := h.service.CurrentTime(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"current_time": now})
}

func (h *ScheduleHandler) initialize(c *gin.Context) {
	at, err := h.service.Initialize(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "initialized_at": at.Format(time.RFC3339)})
}

func (h *ScheduleHandler) addTrain(c *gin.Context) {
	var req addTrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	train, created, err := h.service.AddTrain(c.Request.Context(), schedules.AddTrainInput{
		TrainName:      req.TrainName,
		ModelName:      req.ModelName,
		DepartureTimes: req.DepartureTimes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	ids := make([]string, 0, len(created))
	for _, s := range created {
		ids = append(ids, s.ID)
	}
	c.JSON(http.StatusCreated, addTrainResponse{Status: "success", TrainID: train.ID, ScheduleIDs: ids})
}
