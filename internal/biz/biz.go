package biz

import (
	"github.com/ahlec/Phil-sub000/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Buckets       *usecase.BucketUsecase
	Prompts       *usecase.PromptUsecase
	Confirmations *usecase.ConfirmationUsecase
	Sessions      *usecase.SessionUsecase
	Reactables    *usecase.ReactableUsecase
	LowQueue      *usecase.LowQueueUsecase
	Community     *usecase.CommunityUsecase
}
