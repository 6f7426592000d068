package http

import (
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/adapters/transport/http/middleware"
	appsvc "github.com/Miraines/MoonyAndStarry/initdata-service/internal/app/initdata/service"
	initErrors "github.com/Miraines/MoonyAndStarry/initdata-service/internal/domain/initdata/errors"
	"github.com/gin-gonic/gin"
)

// Telegram кладёт в init data не больше нескольких килобайт.
const maxBodyBytes = 64 << 10

type Handler struct {
	svc appsvc.Service
}

func NewHandler(svc appsvc.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/validate", h.Validate)
	r.GET("/health", h.Health)
}

func (h *Handler) Validate(c *gin.Context) {
	body, err := readInitData(c)
	if err != nil {
		middleware.SetReason(c, initErrors.Reason(err))
		handleError(c, err)
		return
	}

	out, err := h.svc.Validate(c.Request.Context(), body)
	middleware.SetReason(c, out.Reason)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, dto.OK())
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(nethttp.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
}

// readInitData принимает сырое тело запроса, а для application/json
// объект {"init_data": "..."}.
func readInitData(c *gin.Context) (dto.ValidateDTO, error) {
	raw, err := io.ReadAll(nethttp.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return dto.ValidateDTO{}, initErrors.NewMalformed(err)
	}

	if c.ContentType() != gin.MIMEJSON {
		return dto.ValidateDTO{InitData: string(raw)}, nil
	}

	var body dto.ValidateDTO
	if len(raw) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return dto.ValidateDTO{}, initErrors.NewMalformed(err)
	}
	return body, nil
}

func handleError(c *gin.Context, err error) {
	switch {
	case initErrors.IsEmptyPayload(err):
		c.JSON(nethttp.StatusBadRequest, dto.Fail(initErrors.ErrEmptyPayload.Error()))
	case initErrors.IsMalformed(err):
		c.JSON(nethttp.StatusBadRequest, dto.Fail(initErrors.ErrMalformedPayload.Error()))
	case initErrors.IsRejected(err):
		c.JSON(nethttp.StatusOK, dto.Fail(rejectionMessage(err)))
	default:
		_ = c.Error(err)
		c.JSON(nethttp.StatusInternalServerError, dto.Fail("internal server error"))
	}
}

func rejectionMessage(err error) string {
	for _, known := range []error{
		initErrors.ErrMissingHash,
		initErrors.ErrInvalidAuthDate,
		initErrors.ErrMissingAuthDate,
		initErrors.ErrExpired,
		initErrors.ErrInvalidHash,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}
