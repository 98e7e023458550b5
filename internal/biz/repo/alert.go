package repo

import (
	"context"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

// AlertRepo delivers failures to the operators
type AlertRepo interface {
	Report(ctx context.Context, alert domain.OperatorAlert)
}

// ScreenRepo classifies submission text
type ScreenRepo interface {
	// ShouldFlag reports whether a submission needs a closer look from the confirmers
	ShouldFlag(ctx context.Context, text string) (bool, error)
}
