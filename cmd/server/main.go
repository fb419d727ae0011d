package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gerai-be/internal/checkout"
	"gerai-be/internal/config"
	"gerai-be/internal/courier"
	"gerai-be/internal/db"
	"gerai-be/internal/logger"
	"gerai-be/internal/order"
	"gerai-be/internal/payment"
	"gerai-be/internal/server"
	"gerai-be/internal/shipping"
	"gerai-be/internal/transport"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	origin := shipping.Origin{
		PostalCode:  cfg.OriginPostal,
		CountryCode: cfg.OriginCountry,
	}
	domestic := shipping.NewDomesticClient(cfg.DomesticRatesURL, cfg.DomesticRatesKey)
	international := shipping.NewInternationalClient(cfg.IntlRatesURL, cfg.IntlRatesKey)

	courierClient := courier.NewClient(cfg.CourierGatewayURL, cfg.CourierGatewayKey)
	dispatcher := courier.NewDispatcher(courierClient)

	orderRepo := order.NewRepository(database)
	machine := order.NewMachine(dispatcher)
	orderSvc := order.NewService(orderRepo, machine)

	var opts []checkout.ManagerOption
	if cfg.RateDebounce > 0 {
		opts = append(opts, checkout.WithRateDebounce(cfg.RateDebounce))
	}
	checkouts := checkout.NewManager(orderSvc, origin, domestic, international, opts...)

	payments := payment.NewStatusClient(cfg.PaymentServiceURL, cfg.PaymentServiceKey)

	handler := transport.NewHandler(checkouts, orderSvc, courierClient, payments, cfg.PaymentWebhookKey)

	srv := server.New(":"+cfg.AppPort, handler.Routes(), logger.L())

	go func() {
		if err := srv.Start(); err != nil {
			logger.L().Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.L().Error("shutdown failed", zap.Error(err))
	}
}
