package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alexanderramin/tranche/internal/domain"
)

var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation:         http.StatusBadRequest,
	domain.KindUnauthorized:       http.StatusForbidden,
	domain.KindNotFound:           http.StatusNotFound,
	domain.KindOutOfOrder:         http.StatusConflict,
	domain.KindExceedsBudget:      http.StatusConflict,
	domain.KindInsufficientEscrow: http.StatusConflict,
	domain.KindInactiveProject:    http.StatusConflict,
	domain.KindTransferFailure:    http.StatusBadGateway,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	if status, ok := kindStatus[domain.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error    string   `json:"error"`
	Kind     string   `json:"kind"`
	Problems []string `json:"problems,omitempty"`
}

func (a *API) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	resp := errorResponse{Error: err.Error(), Kind: string(domain.KindOf(err))}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Problems = verr.Problems
	}
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		resp.Error = "internal error"
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Kind: string(domain.KindValidation)})
}
