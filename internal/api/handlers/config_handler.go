package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ssds/seat-allocation/internal/config"
	"github.com/ssds/seat-allocation/pkg/core/model"
)

// ConfigPayload is the JSON form of the saved allocation settings
type ConfigPayload struct {
	Mode          string             `json:"mode" binding:"omitempty,oneof=EQUAL MANUAL"`
	TotalCapacity int                `json:"total_capacity" binding:"min=0"`
	Departments   []string           `json:"departments"`
	Capacities    map[string]int     `json:"capacities"`
	Quotas        map[string]float64 `json:"quotas"`

	// DepartmentList is the form's department table. When present it replaces
	// Departments and Capacities; inactive rows are left out of the run.
	DepartmentList []DepartmentPayload `json:"department_list,omitempty" binding:"omitempty,dive"`
}

// DepartmentPayload is one row of the department table
type DepartmentPayload struct {
	Name     string `json:"name" binding:"required"`
	Capacity int    `json:"capacity" binding:"min=0"`
	IsActive *bool  `json:"is_active"` // nil counts as active
}

// ConfigResponse wraps the settings in the standard status envelope
type ConfigResponse struct {
	Status string        `json:"status"`
	Config ConfigPayload `json:"config"`
}

// ConfigHandler reads and updates the saved allocation settings
type ConfigHandler struct {
	configs *config.Store
	logger  *zap.Logger
}

func NewConfigHandler(configs *config.Store, logger *zap.Logger) *ConfigHandler {
	return &ConfigHandler{configs: configs, logger: logger}
}

func (h *ConfigHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, ConfigResponse{Status: StatusSuccess, Config: payloadFromConfig(h.configs.Get().Allocation)})
}

// UpdateConfig replaces the saved settings and writes them to the config file
func (h *ConfigHandler) UpdateConfig(c *gin.Context) {
	var payload ConfigPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		Error(c, badRequest("invalid config: "+err.Error()))
		return
	}

	quotas, err := quotasFromMap(payload.Quotas)
	if err != nil {
		Error(c, err)
		return
	}

	departments, capacities := payload.Departments, payload.Capacities
	if payload.DepartmentList != nil {
		departments, capacities = activeDepartments(payload.DepartmentList)
	}

	updated, err := h.configs.UpdateAllocation(config.AllocationConfig{
		Mode:        model.Mode(payload.Mode),
		TotalSeats:  payload.TotalCapacity,
		Departments: departments,
		Capacities:  capacities,
		Quotas:      quotas,
	})
	if err != nil {
		Error(c, err)
		return
	}

	h.logger.Info("Configuration updated",
		zap.String("mode", string(updated.Allocation.Mode)),
		zap.Int("total_seats", updated.Allocation.TotalSeats))

	c.JSON(http.StatusOK, ConfigResponse{Status: StatusSuccess, Config: payloadFromConfig(updated.Allocation)})
}

func payloadFromConfig(a config.AllocationConfig) ConfigPayload {
	payload := ConfigPayload{
		Mode:          string(a.Mode),
		TotalCapacity: a.TotalSeats,
		Departments:   a.Departments,
		Capacities:    a.Capacities,
		Quotas:        quotasToMap(a.Quotas),
	}
	if payload.Departments == nil {
		payload.Departments = []string{}
	}
	if payload.Capacities == nil {
		payload.Capacities = map[string]int{}
	}
	for _, name := range payload.Departments {
		active := true
		payload.DepartmentList = append(payload.DepartmentList, DepartmentPayload{
			Name:     name,
			Capacity: payload.Capacities[name],
			IsActive: &active,
		})
	}
	return payload
}

// activeDepartments keeps the active rows in table order
func activeDepartments(list []DepartmentPayload) ([]string, map[string]int) {
	departments := make([]string, 0, len(list))
	capacities := make(map[string]int, len(list))
	for _, d := range list {
		if d.IsActive != nil && !*d.IsActive {
			continue
		}
		departments = append(departments, d.Name)
		capacities[d.Name] = d.Capacity
	}
	return departments, capacities
}
