package controllers

import (
	"net/http"

	"civicsetu-be/models"
	"civicsetu-be/utils"

	"github.com/gin-gonic/gin"
)

type statusOptionView struct {
	models.StatusOption
	Description string `json:"description"`
	Hex         string `json:"hex"`
	BgHex       string `json:"bgHex"`
	Pending     bool   `json:"pending"`
}

// StatusRegistry is the read-only registry payload shared by every client.
type StatusRegistry struct {
	Options     []statusOptionView                            `json:"options"`
	Pending     []models.ReportStatus                         `json:"pending"`
	Completed   []models.ReportStatus                         `json:"completed"`
	Policy      string                                        `json:"policy"`
	Transitions map[models.ReportStatus][]models.ReportStatus `json:"transitions"`
	Reopen      models.ReportStatus                           `json:"reopenTo"`
}

// BuildStatusRegistry assembles the registry payload for policy.
func BuildStatusRegistry(policy models.TransitionPolicy) StatusRegistry {
	options := models.StatusOptions()
	views := make([]statusOptionView, len(options))
	for i, o := range options {
		views[i] = statusOptionView{
			StatusOption: o,
			Description:  models.StatusDescription(string(o.Value)),
			Hex:          o.Color.Hex(),
			BgHex:        o.Color.BgHex(),
			Pending:      models.IsPendingStatus(string(o.Value)),
		}
	}
	return StatusRegistry{
		Options:     views,
		Pending:     models.PendingStatuses(),
		Completed:   models.CompletedStatuses(),
		Policy:      policy.Name(),
		Transitions: models.TransitionGraph(policy),
		Reopen:      models.ReopenStatus,
	}
}

// GetStatuses serves the status registry.
func GetStatuses(policy models.TransitionPolicy) gin.HandlerFunc {
	registry := BuildStatusRegistry(policy)
	return func(c *gin.Context) {
		utils.SuccessResponse(c, http.StatusOK, "", registry)
	}
}
