package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MarcGrol/adyencheckout/lib/myconfig"
	"github.com/MarcGrol/adyencheckout/lib/myhttpclient"
	"github.com/MarcGrol/adyencheckout/lib/myratelimit"
	"github.com/MarcGrol/adyencheckout/lib/mytime"
	"github.com/MarcGrol/adyencheckout/lib/myuuid"
	"github.com/MarcGrol/adyencheckout/services/auth"
	"github.com/MarcGrol/adyencheckout/services/checkoutadyen"
	"github.com/MarcGrol/adyencheckout/services/warmup"
)

func main() {
	c := context.Background()

	cfg, err := myconfig.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %s", err)
	}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	{
		metrics := myhttpclient.NewMetrics("adyencheckout", nil)
		sender := myhttpclient.New(cfg.ProviderTimeout, metrics)
		payer := checkoutadyen.NewPayer(checkoutadyen.PayerConfig{
			Environment:   cfg.Environment,
			LiveURLPrefix: cfg.LiveURLPrefix,
			BaseURL:       cfg.CheckoutBaseURL,
			APIKey:        cfg.APIKey,
			HTTPClient:    myhttpclient.NewClient(cfg.ProviderTimeout, metrics),
		})

		checkoutService, err := checkoutadyen.NewWebService(checkoutadyen.Config{
			MerchantAccount: cfg.MerchantAccount,
			ClientKey:       cfg.ClientKey,
			APIKey:          cfg.APIKey,
		}, payer, sender, mytime.RealNower{})
		if err != nil {
			log.Fatalf("Error creating checkout service: %s", err)
		}
		err = checkoutService.RegisterEndpoints(c, router)
		if err != nil {
			log.Fatalf("Error registering checkout endpoints: %s", err)
		}
	}

	stores, storesCleanup, err := auth.NewStores(c)
	if err != nil {
		log.Fatalf("Error creating auth stores: %s", err)
	}
	defer storesCleanup()

	limiter, limiterCleanup, err := myratelimit.New(c, cfg.OTPRateLimit, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Error creating rate limiter: %s", err)
	}
	defer limiterCleanup()

	authService := auth.NewWebService(auth.NewService(stores, mytime.RealNower{}, myuuid.RealUUIDer{}, auth.NewLogNotifier()), limiter)
	err = authService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering auth endpoints: %s", err)
	}

	warmupService := warmup.NewService(stores.Sessions)
	err = warmupService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering warmup endpoints: %s", err)
	}

	log.Printf("Using Adyen %s environment for merchant %s", cfg.Environment, cfg.MerchantAccount)

	startWebServerBlocking(cfg.HTTPAddr(), router)
}

func startWebServerBlocking(addr string, router *mux.Router) {
	log.Printf("Starting webserver on %s (try http://localhost%s/checkout)", addr, addr)
	err := http.ListenAndServe(addr, otelhttp.NewHandler(router, "adyencheckout"))
	if err != nil {
		log.Fatalf("Error starting webserver on %s: %s", addr, err)
	}
}
