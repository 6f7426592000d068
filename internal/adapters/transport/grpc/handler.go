package grpc

import (
	"context"

	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/adapters/transport/http/dto"
	appsvc "github.com/Miraines/MoonyAndStarry/initdata-service/internal/app/initdata/service"
	initErrors "github.com/Miraines/MoonyAndStarry/initdata-service/internal/domain/initdata/errors"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Handler struct {
	svc appsvc.Service
}

func NewHandler(svc appsvc.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Validate(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	out, err := h.svc.Validate(ctx, dto.ValidateDTO{InitData: req.GetValue()})
	// поле попадает в итоговую строку grpc_zap
	ctxzap.AddFields(ctx, zap.String("reason", out.Reason))
	if err != nil {
		return nil, mapError(err)
	}
	return &emptypb.Empty{}, nil
}

func mapError(err error) error {
	switch {
	case initErrors.IsEmptyPayload(err):
		return status.Error(codes.InvalidArgument, initErrors.ErrEmptyPayload.Error())
	case initErrors.IsMalformed(err):
		return status.Error(codes.InvalidArgument, initErrors.ErrMalformedPayload.Error())
	case initErrors.IsRejected(err):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
