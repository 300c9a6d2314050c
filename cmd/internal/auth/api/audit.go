package authapi

import (
	"context"
	"log/slog"
	"net"
	"strings"
)

func (h *Handler) auditRegisterSuccess(ctx context.Context, userID string, ip net.IP, ua string) {
	h.writeAudit(ctx, "auth.register.success", ip, ua, slog.String("user_id", userID))
}

func (h *Handler) auditRegisterConflict(ctx context.Context, field string, ip net.IP, ua string) {
	h.writeAudit(ctx, "auth.register.conflict", ip, ua, slog.String("field", field))
}

func (h *Handler) auditLoginSuccess(ctx context.Context, userID string, ip net.IP, ua string, identifier string) {
	h.writeAudit(ctx, "auth.login.success", ip, ua,
		slog.String("user_id", userID),
		slog.String("identifier", identifier),
	)
}

func (h *Handler) auditLoginFailed(ctx context.Context, ip net.IP, ua string, identifier string, reason string) {
	h.writeAudit(ctx, "auth.login.failed", ip, ua,
		slog.String("identifier", identifier),
		slog.String("reason", reason),
	)
}

// writeAudit emits one "audit.<action>" record. The identifier is the
// normalized form the caller typed; passwords never reach here.
func (h *Handler) writeAudit(ctx context.Context, action string, ip net.IP, ua string, attrs ...slog.Attr) {
	if h == nil || h.log == nil {
		return
	}

	action = strings.TrimSpace(action)
	if action == "" {
		return
	}

	base := make([]slog.Attr, 0, len(attrs)+2)
	if ip != nil {
		base = append(base, slog.String("ip", ip.String()))
	}
	if ua = strings.TrimSpace(ua); ua != "" {
		base = append(base, slog.String("user_agent", ua))
	}
	h.log.LogAttrs(ctx, slog.LevelInfo, "audit."+action, append(base, attrs...)...)
}
