package service

import (
	"context"
	"fmt"

	"reviewdraw/internal/selection/engine"
	"reviewdraw/internal/selection/models"
	"reviewdraw/pkg/platform/audit"
	"reviewdraw/pkg/requestcontext"
)

func (s *Service) emitAllocation(ctx context.Context, rec *models.Record) {
	for _, entry := range rec.Log {
		s.emit(ctx, rec, audit.Event{
			Action:     audit.ActionExpertDrawn,
			Timestamp:  entry.Timestamp,
			Category:   entry.CategoryName,
			ExpertName: entry.ExpertName,
			Content:    entry.Message(),
		})
	}
	content := fmt.Sprintf("为项目 %s 完成了专家抽取", rec.Project.Name)
	s.emit(ctx, rec, audit.Event{
		Action:    audit.ActionSelectionCreated,
		Timestamp: rec.CreatedAt,
		Content:   content,
	})
	s.logAudit(ctx, string(audit.ActionSelectionCreated),
		"record_id", rec.ID.String(),
		"project_number", rec.Project.Number,
		"experts", len(rec.Entries),
	)
}

func (s *Service) emitReplacement(ctx context.Context, rec *models.Record, res *engine.Replacement) {
	if res == nil {
		return
	}
	s.emit(ctx, rec, audit.Event{
		Action:       audit.ActionExpertReplaced,
		Timestamp:    res.Entry.Timestamp,
		Category:     res.New.CategoryName,
		ReplacedName: res.Entry.ReplacedName,
		NewName:      res.Entry.NewName,
		Reason:       res.Entry.Reason,
		Content:      res.Entry.Message(),
	})
	s.emit(ctx, rec, audit.Event{
		Action:    audit.ActionSelectionAmended,
		Timestamp: res.Entry.Timestamp,
		Content:   fmt.Sprintf("为项目 %s 补抽专家, %s 替换 %s", rec.Project.Name, res.Entry.NewName, res.Entry.ReplacedName),
	})
	s.logAudit(ctx, string(audit.ActionSelectionAmended),
		"record_id", rec.ID.String(),
		"replaced_expert_id", string(res.Old.ExpertID),
		"new_expert_id", string(res.New.ExpertID),
		"version", rec.Version,
	)
}

// emit fills the record context and hands the event to the publisher. Failures
// are logged and counted, never returned.
func (s *Service) emit(ctx context.Context, rec *models.Record, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RecordID = rec.ID.String()
	event.ProjectName = rec.Project.Name
	event.OperatorID = requestcontext.OperatorID(ctx)
	event.RequestID = requestcontext.RequestID(ctx)

	if err := s.auditPublisher.Emit(context.WithoutCancel(ctx), event); err != nil {
		s.metrics.IncAuditEmitFailure()
		s.logger.WarnContext(ctx, "audit event not delivered",
			"request_id", event.RequestID,
			"record_id", event.RecordID,
			"action", event.Action,
			"error", err,
		)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if operatorID := requestcontext.OperatorID(ctx); operatorID != "" {
		attributes = append(attributes, "operator_id", operatorID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
