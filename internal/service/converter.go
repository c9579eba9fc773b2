package service

import (
	"context"
	"errors"
	"fmt"

	"currency-converter-service/internal/domain/model"
	"currency-converter-service/internal/domain/ports"
	"currency-converter-service/pkg/logger"
	"currency-converter-service/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrUnsupportedPair         = errors.New("unsupported conversion pair")
	ErrUnsupportedCrypto       = errors.New("unsupported crypto")
	ErrUnsupportedTargetCrypto = errors.New("unsupported target crypto")
	ErrUpstreamUnavailable     = errors.New("rate source unavailable")
)

// ConverterService routes a conversion request to one of four strategies
// based on whether each side is fiat. A code is fiat iff it appears in the
// EUR basket; everything else is treated as crypto.
type ConverterService struct {
	basket ports.FiatBasketProvider
	pairs  ports.FiatPairProvider
	prices ports.CryptoPriceProvider
	log    *logger.Logger
}

func NewConverterService(basket ports.FiatBasketProvider, pairs ports.FiatPairProvider, prices ports.CryptoPriceProvider, log *logger.Logger) *ConverterService {
	return &ConverterService{
		basket: basket,
		pairs:  pairs,
		prices: prices,
		log:    log,
	}
}

func (s *ConverterService) Convert(ctx context.Context, request model.ConversionRequest) (*model.ConversionResult, error) {
	basket, err := s.basket.Rates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	book := s.prices.Prices(ctx)

	fromFiat := basket.IsFiat(request.From)
	toFiat := basket.IsFiat(request.To)

	var result *model.ConversionResult
	switch {
	case !fromFiat && !toFiat:
		result, err = s.cryptoToCrypto(request, book)
	case !fromFiat && toFiat:
		result, err = s.cryptoToFiat(ctx, request, basket, book)
	case fromFiat && !toFiat:
		result, err = s.fiatToCrypto(ctx, request, basket, book)
	default:
		result, err = s.fiatToFiat(ctx, request, basket)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("conversion completed",
		"from", request.From,
		"to", request.To,
		"via", result.Via,
	)
	return result, nil
}

// RefreshRates forces a basket refresh; the warm-up loop in cmd/server
// calls it so the classification authority stays populated.
func (s *ConverterService) RefreshRates(ctx context.Context) error {
	if err := s.basket.Refresh(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return nil
}

func (s *ConverterService) cryptoToCrypto(request model.ConversionRequest, book model.PriceBook) (*model.ConversionResult, error) {
	if price, ok := book.Price(string(request.From) + string(request.To)); ok {
		return buildResult(request, price, model.ViaDirect), nil
	}

	fromUSDT, okFrom := book.Price(string(request.From) + model.USDT)
	toUSDT, okTo := book.Price(string(request.To) + model.USDT)
	if !okFrom || !okTo {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedPair, request.From, request.To)
	}

	return buildResult(request, fromUSDT.Div(toUSDT), model.ViaUSDT), nil
}

func (s *ConverterService) cryptoToFiat(ctx context.Context, request model.ConversionRequest, basket *model.FiatBasket, book model.PriceBook) (*model.ConversionResult, error) {
	price, ok := book.Price(string(request.From) + model.USDT)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCrypto, request.From)
	}

	if request.To == model.USD {
		return buildResult(request, price, model.ViaBinance), nil
	}

	if pairRate, ok := s.pairs.PairRate(ctx, model.USD, request.To); ok {
		return buildResult(request, price.Mul(pairRate), model.ViaBinanceYahoo), nil
	}

	usdPerEUR, ok := basket.Rate(model.USD)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedPair, request.From, request.To)
	}
	toPerEUR, _ := basket.Rate(request.To)
	rate := price.Div(usdPerEUR).Mul(toPerEUR)
	return buildResult(request, rate, model.ViaBinanceECB), nil
}

func (s *ConverterService) fiatToCrypto(ctx context.Context, request model.ConversionRequest, basket *model.FiatBasket, book model.PriceBook) (*model.ConversionResult, error) {
	price, ok := book.Price(string(request.To) + model.USDT)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTargetCrypto, request.To)
	}

	if pairRate, ok := s.pairs.PairRate(ctx, request.From, model.USD); ok {
		return buildResult(request, pairRate.Div(price), model.ViaYahooBinance), nil
	}

	usdPerEUR, ok := basket.Rate(model.USD)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedPair, request.From, request.To)
	}
	fromPerEUR, _ := basket.Rate(request.From)
	usdRate := usdPerEUR.Div(fromPerEUR)
	return buildResult(request, usdRate.Div(price), model.ViaECBBinance), nil
}

func (s *ConverterService) fiatToFiat(ctx context.Context, request model.ConversionRequest, basket *model.FiatBasket) (*model.ConversionResult, error) {
	if pairRate, ok := s.pairs.PairRate(ctx, request.From, request.To); ok {
		return buildResult(request, pairRate, model.ViaYahoo), nil
	}

	fromPerEUR, _ := basket.Rate(request.From)
	toPerEUR, _ := basket.Rate(request.To)
	return buildResult(request, toPerEUR.Div(fromPerEUR), model.ViaECB), nil
}

// buildResult derives the converted amount from the composed rate so that
// converted == amount * rate holds for every strategy.
func buildResult(request model.ConversionRequest, rate decimal.Decimal, via model.Via) *model.ConversionResult {
	converted := request.Amount.Mul(rate)
	return &model.ConversionResult{
		From:      request.From,
		To:        request.To,
		Amount:    utils.FormatAmount(request.Amount),
		Rate:      utils.FormatAmount(rate),
		Converted: utils.FormatAmount(converted),
		Via:       via,
	}
}
