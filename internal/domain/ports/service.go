package ports

import (
	"context"

	"currency-converter-service/internal/domain/model"
)

type ConverterService interface {
	Convert(ctx context.Context, request model.ConversionRequest) (*model.ConversionResult, error)
	RefreshRates(ctx context.Context) error
}
